package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"booknest/internal/backend"
	"booknest/internal/model"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, data []byte) image.Config {
	t.Helper()
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg
}

func TestCoverService_ScalesAndCaches(t *testing.T) {
	api := new(mockBackend)
	svc := NewCoverService(api, 320)

	api.On("FetchAsset", mock.Anything, "/images/dune.png", int64(maxCoverBytes)).
		Return(pngBytes(t, 640, 400), "image/png", nil).Once()

	cover, err := svc.Thumbnail(context.Background(), "/images/dune.png", 0)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", cover.ContentType)

	cfg := decodeJPEG(t, cover.Data)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 200, cfg.Height)

	again, err := svc.Thumbnail(context.Background(), "/images/dune.png", 5000)
	require.NoError(t, err)
	assert.Equal(t, cover.Data, again.Data)
	assert.Equal(t, 1, svc.Len())

	api.AssertNumberOfCalls(t, "FetchAsset", 1)
}

func TestCoverService_NeverUpscales(t *testing.T) {
	api := new(mockBackend)
	svc := NewCoverService(api, 320)

	api.On("FetchAsset", mock.Anything, "/images/small.png", int64(maxCoverBytes)).
		Return(pngBytes(t, 100, 150), "image/png", nil).Once()

	cover, err := svc.Thumbnail(context.Background(), "/images/small.png", 300)
	require.NoError(t, err)

	cfg := decodeJPEG(t, cover.Data)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 150, cfg.Height)
}

func TestCoverService_Failures(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		err     error
		kind    Kind
		message string
	}{
		{"foreign origin", nil, fmt.Errorf("resolve: %w", backend.ErrForeignOrigin), KindValidation, "Cover images must come from the BookNest service"},
		{"missing", nil, &backend.Error{Status: 404}, KindNotFound, "Cover image not found."},
		{"not an image", []byte("plain text"), nil, KindValidation, "Unsupported cover image format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(mockBackend)
			svc := NewCoverService(api, 0)
			api.On("FetchAsset", mock.Anything, "https://cdn.example.com/x.png", int64(maxCoverBytes)).
				Return(tt.data, "", tt.err).Once()

			_, err := svc.Thumbnail(context.Background(), "https://cdn.example.com/x.png", 100)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.message, err.Error())
			assert.Zero(t, svc.Len())
		})
	}
}

func TestCoverService_RequiresSource(t *testing.T) {
	svc := NewCoverService(new(mockBackend), 320)

	_, err := svc.Thumbnail(context.Background(), "", 100)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestCoverService_EvictsOldest(t *testing.T) {
	api := new(mockBackend)
	svc := NewCoverService(api, 16)
	data := pngBytes(t, 8, 8)

	api.On("FetchAsset", mock.Anything, mock.Anything, int64(maxCoverBytes)).Return(data, "image/png", nil)

	for i := 0; i <= coverCacheLimit; i++ {
		_, err := svc.Thumbnail(context.Background(), fmt.Sprintf("/images/%d.png", i), 0)
		require.NoError(t, err)
	}
	assert.Equal(t, coverCacheLimit, svc.Len())

	_, err := svc.Thumbnail(context.Background(), "/images/0.png", 0)
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "FetchAsset", coverCacheLimit+2)
}
