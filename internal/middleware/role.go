package middleware // middleware provides shared request processing for handlers

import (
	"github.com/labstack/echo/v4" // echo provides middleware chaining and context
	"net/http"                    // http package defines standard HTTP status codes
)

// RequireRole returns a middleware function that enforces that the
// authenticated account holds one of the specified roles (admin,
// employee or hr).  If the account's role is not in the allowed set,
// the request is aborted with a 403 Forbidden response.  It assumes
// Authenticate has already resolved the principal and stored the role
// in the context under the key "role".
func RequireRole(roles ...string) echo.MiddlewareFunc {
	// Build a set of allowed roles for constant‑time lookups.  The map
	// value is a boolean and is always true when present.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Retrieve the role from context.  It should have been
			// stored by the Authenticate middleware as a string.  If
			// not present or of wrong type, treat as missing.
			v := c.Get("role")
			role, ok := v.(string)
			if !ok || !allowed[role] {
				// If role is missing or not allowed, return 403
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			// Otherwise call the next handler in the chain
			return next(c)
		}
	}
}
