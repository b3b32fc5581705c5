package spiel

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"spielapi/internal/httpx"

	"github.com/go-chi/chi/v5"
)

const basePath = "/spiele"

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type link struct {
	Href string `json:"href"`
}

// spielResponse is a Spiel with hypermedia links.
type spielResponse struct {
	Spiel
	Links map[string]link `json:"_links"`
}

func etag(version int) string {
	return `"` + strconv.Itoa(version) + `"`
}

// baseURL is the absolute URL of the collection as seen by the client.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.TrimSpace(strings.Split(p, ",")[0])
	}
	return scheme + "://" + r.Host + basePath
}

// List handles GET /spiele
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := Query{
		Titel:      q.Get("titel"),
		Javascript: q.Get("javascript") == "true",
		Typescript: q.Get("typescript") == "true",
		Art:        Art(q.Get("art")),
		Verlag:     Verlag(q.Get("verlag")),
		ISBN:       q.Get("isbn"),
	}

	spiele, err := h.service.Find(r.Context(), query)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	base := baseURL(r)
	out := make([]spielResponse, 0, len(spiele))
	for _, s := range spiele {
		out = append(out, spielResponse{Spiel: s, Links: map[string]link{"self": {Href: base + "/" + s.ID}}})
	}
	httpx.JSONSuccess(w, r, out, map[string]interface{}{"total": len(out)})
}

// Get handles GET /spiele/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if s == nil {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Spiel not found", nil)
		return
	}

	tag := etag(s.Version)
	if inm := r.Header.Get("If-None-Match"); inm == tag || inm == strconv.Itoa(s.Version) {
		w.Header().Set("ETag", tag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	base := baseURL(r)
	self := base + "/" + s.ID
	w.Header().Set("ETag", tag)
	httpx.JSONSuccess(w, r, spielResponse{
		Spiel: *s,
		Links: map[string]link{
			"self":   {Href: self},
			"list":   {Href: base},
			"add":    {Href: base},
			"update": {Href: self},
			"remove": {Href: self},
		},
	}, nil)
}

// Create handles POST /spiele
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in Spiel
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err, false)
		return
	}

	w.Header().Set("Location", baseURL(r)+"/"+created.ID)
	w.Header().Set("ETag", etag(created.Version))
	httpx.JSONSuccessCreated(w, r, created)
}

// Update handles PUT /spiele/{id}. The If-Match header carries the version.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	version := r.Header.Get("If-Match")
	if version == "" {
		httpx.JSONError(w, r, http.StatusPreconditionRequired, "PRECONDITION_REQUIRED", "Header If-Match is missing", nil)
		return
	}

	var in Spiel
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	in.ID = chi.URLParam(r, "id")

	updated, err := h.service.Update(r.Context(), in, version)
	if err != nil {
		writeError(w, r, err, true)
		return
	}

	w.Header().Set("ETag", etag(updated.Version))
	httpx.JSONSuccessNoContent(w)
}

// Delete handles DELETE /spiele/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// writeError maps domain errors to responses. On update every conflict is a
// failed precondition.
func writeError(w http.ResponseWriter, r *http.Request, err error, update bool) {
	var e *Error
	if !errors.As(err, &e) {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	conflict := http.StatusBadRequest
	if update {
		conflict = http.StatusPreconditionFailed
	}
	switch e.Kind {
	case KindValidation:
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", httpx.DetailsFromMap(e.Fields))
	case KindTitelExists:
		httpx.JSONError(w, r, conflict, "TITEL_EXISTS", e.Error(), nil)
	case KindIsbnExists:
		httpx.JSONError(w, r, conflict, "ISBN_EXISTS", e.Error(), nil)
	case KindNotExists:
		httpx.JSONError(w, r, http.StatusPreconditionFailed, "SPIEL_NOT_EXISTS", e.Error(), nil)
	case KindVersionInvalid:
		httpx.JSONError(w, r, http.StatusPreconditionFailed, "VERSION_INVALID", e.Error(), nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
