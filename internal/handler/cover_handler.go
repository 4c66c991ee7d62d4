package handler

import (
	"net/http"
	"strconv"

	"booknest/internal/service"
	"booknest/pkg/apierror"
)

type CoverHandler struct {
	service *service.CoverService
}

func NewCoverHandler(service *service.CoverService) *CoverHandler {
	return &CoverHandler{service: service}
}

func (h *CoverHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	width := 0
	if raw := query.Get("w"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apierror.New("BAD_REQUEST", "w must be an integer", raw, http.StatusBadRequest))
			return
		}
		width = parsed
	}

	cover, err := h.service.Thumbnail(r.Context(), query.Get("src"), width)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", cover.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(cover.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(cover.Data)
}
