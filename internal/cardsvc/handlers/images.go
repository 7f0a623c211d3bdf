package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/avvvet/cardvault/internal/cardsvc/storage"
	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"
)

// ServeImage streams a stored photo. Like a public bucket URL it needs no
// token.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		h.badRequest(w, "invalid image path", err)
		return
	}
	p, err := storage.CleanPath(raw)
	if err != nil {
		h.badRequest(w, "invalid image path", err)
		return
	}

	rc, contentType, err := h.images.Open(r.Context(), p)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.CreateResponse(w, Response{Message: "image not found", Code: http.StatusNotFound})
			return
		}
		h.respondError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, rc); err != nil {
		log.Warnf("image %s: write interrupted: %v", p, err)
	}
}
