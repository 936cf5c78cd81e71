package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/objectstore"
)

// handleGetImage serves an image held by the embedded object store.
// Object keys are unique per upload, so responses are cacheable forever.
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	if s.images == nil {
		writeNotFound(w, "image not found")
		return
	}

	blob, err := s.images.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			writeNotFound(w, "image not found")
			return
		}
		s.logger.Error("reading image failed", "key", chi.URLParam(r, "key"), "error", err)
		writeInternalError(w, "failed to read image")
		return
	}

	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(blob.Data)
}
