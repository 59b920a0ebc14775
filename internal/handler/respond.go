package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/apperror"
)

// envelope is the response wrapper shared by every successful operation.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
}

// respond writes a success envelope with the given status code.
func respond(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, envelope{StatusCode: status, Data: data, Message: message})
}

// respondErr normalizes any error into the structured domain error and
// renders it.  apperror.Error serializes as {statusCode, error, message},
// so nothing beyond the prepared message ever reaches the client.
func respondErr(c echo.Context, err error) error {
	e := apperror.From(err)
	return c.JSON(e.Status, e)
}
