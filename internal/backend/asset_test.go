package backend

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAsset_SameOriginOnly(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/covers/7.png", r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	})

	data, contentType, err := c.FetchAsset(context.Background(), "/images/covers/7.png", 1024)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", contentType)

	_, _, err = c.FetchAsset(context.Background(), "https://evil.example/cover.png", 1024)
	assert.ErrorIs(t, err, ErrForeignOrigin)

	_, _, err = c.FetchAsset(context.Background(), "//evil.example/cover.png", 1024)
	assert.ErrorIs(t, err, ErrForeignOrigin)
}

func TestFetchAsset_SizeLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	})

	_, _, err := c.FetchAsset(context.Background(), "/big.jpg", 32)
	assert.Error(t, err)
}

func TestFetchAsset_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, _, err := c.FetchAsset(context.Background(), "/missing.jpg", 32)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}
