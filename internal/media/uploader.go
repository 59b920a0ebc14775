// Package media talks to the external media host that stores avatar images.
// The subsystem only depends on an upload-returns-URL-or-fails contract; the
// provider behind the endpoint is opaque.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// ErrNoURL is returned when the media host answers without a usable URL.
// Callers treat it the same as a transport failure: the upload did not
// produce a reference, so the operation that needed one must fail.
var ErrNoURL = errors.New("media host returned no usable url")

// Uploader is the minimal contract the session layer needs.  Upload sends
// the file content and either returns the URL under which the media host
// serves it, or an error.
type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

// HTTPUploader posts files as multipart form data to a configured endpoint
// and expects a JSON body of the form {"url": "..."}.  Every request is
// bounded by the client timeout so a slow upload cannot pin a handler.
type HTTPUploader struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPUploader builds an uploader for the given endpoint.  The timeout
// applies to the whole round trip including the body transfer.
func NewHTTPUploader(endpoint, apiKey string, client *http.Client) *HTTPUploader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPUploader{endpoint: endpoint, apiKey: apiKey, client: client}
}

// Upload streams the file to the media host and returns the hosted URL.
func (u *HTTPUploader) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("media host responded %d", resp.StatusCode)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", ErrNoURL
	}
	return out.URL, nil
}
