package media

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"spielapi/internal/httpx"

	"github.com/go-chi/chi/v5"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Upload handles PUT /spiele/{id}/media. The raw body is stored with its
// Content-Type.
func (h *HTTPHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.service.Save(r.Context(), id, r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store media", nil)
		return
	}
	if !ok {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Spiel not found", nil)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// Download handles GET /spiele/{id}/media.
func (h *HTTPHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	obj, err := h.service.Find(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Media not found", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load media", nil)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if !obj.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", obj.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, obj.Body)
}
