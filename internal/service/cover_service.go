package service

import (
	"bytes"
	"container/list"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"sync"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"booknest/internal/backend"
	"booknest/internal/model"
)

const (
	maxCoverBytes   = 8 << 20
	coverCacheLimit = 256
)

type assetAPI interface {
	FetchAsset(ctx context.Context, ref string, maxBytes int64) ([]byte, string, error)
}

type Cover struct {
	Data        []byte
	ContentType string
}

type coverKey struct {
	src   string
	width int
}

type coverEntry struct {
	key   coverKey
	cover Cover
}

// CoverService serves scaled book covers from the backend origin with a
// bounded in-memory LRU cache.
type CoverService struct {
	api      assetAPI
	maxWidth int

	mu      sync.Mutex
	entries map[coverKey]*list.Element
	lru     *list.List
}

func NewCoverService(api assetAPI, maxWidth int) *CoverService {
	if maxWidth <= 0 {
		maxWidth = 320
	}
	return &CoverService{
		api:      api,
		maxWidth: maxWidth,
		entries:  make(map[coverKey]*list.Element),
		lru:      list.New(),
	}
}

// Thumbnail returns src scaled to width pixels wide. A width outside
// (0, maxWidth] is clamped to maxWidth. Images are never upscaled.
func (s *CoverService) Thumbnail(ctx context.Context, src string, width int) (Cover, error) {
	if src == "" {
		return Cover{}, newFailure(KindValidation, "A cover source is required", model.ErrInvalidInput)
	}
	if width <= 0 || width > s.maxWidth {
		width = s.maxWidth
	}

	key := coverKey{src: src, width: width}
	if cover, ok := s.cached(key); ok {
		return cover, nil
	}

	data, _, err := s.api.FetchAsset(ctx, src, maxCoverBytes)
	if err != nil {
		if errors.Is(err, backend.ErrForeignOrigin) {
			return Cover{}, &Failure{Kind: KindValidation, Message: "Cover images must come from the BookNest service", sentinel: model.ErrInvalidInput, cause: err}
		}
		return Cover{}, classify(err, messages{notFound: "Cover image not found."})
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Cover{}, &Failure{Kind: KindValidation, Message: "Unsupported cover image format", sentinel: model.ErrInvalidInput, cause: err}
	}

	scaled, err := scaleCover(img, width)
	if err != nil {
		return Cover{}, fmt.Errorf("encode cover: %w", err)
	}

	cover := Cover{Data: scaled, ContentType: "image/jpeg"}
	s.store(key, cover)

	return cover, nil
}

func scaleCover(src image.Image, width int) ([]byte, error) {
	bounds := src.Bounds()
	scale := float64(width) / float64(bounds.Dx())
	if scale > 1 {
		scale = 1
	}

	targetWidth := max(1, int(math.Round(float64(bounds.Dx())*scale)))
	targetHeight := max(1, int(math.Round(float64(bounds.Dy())*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *CoverService) cached(key coverKey) (Cover, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return Cover{}, false
	}
	s.lru.MoveToFront(el)
	return el.Value.(*coverEntry).cover, true
}

func (s *CoverService) store(key coverKey, cover Cover) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[key]; ok {
		el.Value.(*coverEntry).cover = cover
		s.lru.MoveToFront(el)
		return
	}

	s.entries[key] = s.lru.PushFront(&coverEntry{key: key, cover: cover})
	for s.lru.Len() > coverCacheLimit {
		oldest := s.lru.Back()
		s.lru.Remove(oldest)
		delete(s.entries, oldest.Value.(*coverEntry).key)
	}
}

// Len reports how many thumbnails are cached.
func (s *CoverService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}
