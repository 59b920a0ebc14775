package media

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadReturnsHostedURL(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "ana.png", fh.Filename)
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://cdn.example/ana.png"})
	}))
	defer ts.Close()

	up := NewHTTPUploader(ts.URL, "api-key", ts.Client())
	url, err := up.Upload(context.Background(), "ana.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/ana.png", url)
	assert.Equal(t, "Bearer api-key", gotAuth)
}

func TestUploadRejectsMissingURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer ts.Close()

	up := NewHTTPUploader(ts.URL, "", ts.Client())
	_, err := up.Upload(context.Background(), "a.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNoURL)
}

func TestUploadSurfacesHostErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	up := NewHTTPUploader(ts.URL, "", ts.Client())
	_, err := up.Upload(context.Background(), "a.png", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestUploadHonorsTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	up := NewHTTPUploader(ts.URL, "", &http.Client{Timeout: 50 * time.Millisecond})
	_, err := up.Upload(context.Background(), "a.png", strings.NewReader("x"))
	assert.Error(t, err, "a hanging media host must not hang the caller")
}
