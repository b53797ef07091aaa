package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"hostel-backend/internal/media"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// MediaHandler streams uploaded complaint media from the storage backend.
type MediaHandler struct {
	backend media.Backend
	log     zerolog.Logger
}

func NewMediaHandler(backend media.Backend, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{backend: backend, log: log}
}

// Serve writes the named upload. Local files support range requests so
// videos can seek.
// GET /uploads/{name}
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	body, size, err := h.backend.Download(r.Context(), name)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) || errors.Is(err, media.ErrInvalidName) {
			http.NotFound(w, r)
			return
		}
		h.log.Error().Err(err).Str("file", name).Msg("download media")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer body.Close()

	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Cache-Control", "private, max-age=86400")

	if rs, ok := body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, time.Time{}, rs)
		return
	}

	if size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	if _, err := io.Copy(w, body); err != nil {
		h.log.Debug().Err(err).Str("file", name).Msg("media stream interrupted")
	}
}
