package spiel

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h := NewHTTPHandler(NewService(NewMemoryRepo(), nil, "", nil))
	r := chi.NewRouter()
	r.Get("/spiele", h.List)
	r.Post("/spiele", h.Create)
	r.Get("/spiele/{id}", h.Get)
	r.Put("/spiele/{id}", h.Update)
	r.Delete("/spiele/{id}", h.Delete)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

func createVia(t *testing.T, h http.Handler, s Spiel) string {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/spiele", s, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	loc := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "http://example.com/spiele/"), loc)
	return strings.TrimPrefix(loc, "http://example.com/spiele/")
}

func TestHTTPHandler_CreateAndGet(t *testing.T) {
	h := newTestRouter(t)
	id := createVia(t, h, alpha())

	w := doJSON(t, h, http.MethodGet, "/spiele/"+id, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"0"`, w.Header().Get("ETag"))

	var got spielResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &got))
	assert.Equal(t, "Alpha", got.Titel)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "http://example.com/spiele/"+id, got.Links["self"].Href)
	assert.Equal(t, "http://example.com/spiele", got.Links["list"].Href)
	assert.Len(t, got.Links, 5)

	w = doJSON(t, h, http.MethodGet, "/spiele/"+id, nil, map[string]string{"If-None-Match": `"0"`})
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestHTTPHandler_GetMissing(t *testing.T) {
	h := newTestRouter(t)
	for _, id := range []string{idMissing, "not-a-uuid"} {
		w := doJSON(t, h, http.MethodGet, "/spiele/"+id, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, id)
	}
}

func TestHTTPHandler_CreateErrors(t *testing.T) {
	h := newTestRouter(t)
	createVia(t, h, alpha())

	w := doJSON(t, h, http.MethodPost, "/spiele", Spiel{Titel: "-x", Art: "PRINT"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	fields := make([]string, 0, len(env.Error.Details))
	for _, d := range env.Error.Details {
		fields = append(fields, d.Field)
	}
	assert.Equal(t, []string{"art", "isbn", "preis", "titel", "verlag"}, fields)

	dup := beta()
	dup.Titel = "Alpha"
	w = doJSON(t, h, http.MethodPost, "/spiele", dup, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "TITEL_EXISTS", decodeEnvelope(t, w).Error.Code)

	dup = beta()
	dup.ISBN = isbnAlpha
	w = doJSON(t, h, http.MethodPost, "/spiele", dup, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ISBN_EXISTS", decodeEnvelope(t, w).Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/spiele", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPHandler_Update(t *testing.T) {
	h := newTestRouter(t)
	id := createVia(t, h, alpha())
	createVia(t, h, beta())

	upd := alpha()
	upd.Rating = intPtr(5)

	w := doJSON(t, h, http.MethodPut, "/spiele/"+id, upd, nil)
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)

	w = doJSON(t, h, http.MethodPut, "/spiele/"+id, upd, map[string]string{"If-Match": `"0"`})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Equal(t, `"1"`, w.Header().Get("ETag"))

	tests := []struct {
		name    string
		id      string
		ifMatch string
		mutate  func(*Spiel)
		status  int
		code    string
	}{
		{"stale version", id, `"0"`, nil, http.StatusPreconditionFailed, "VERSION_INVALID"},
		{"non numeric version", id, `"abc"`, nil, http.StatusPreconditionFailed, "VERSION_INVALID"},
		{"titel owned by other", id, `"1"`, func(s *Spiel) { s.Titel = "Beta" }, http.StatusPreconditionFailed, "TITEL_EXISTS"},
		{"missing spiel", idMissing, `"0"`, func(s *Spiel) { s.Titel = "Gamma" }, http.StatusPreconditionFailed, "SPIEL_NOT_EXISTS"},
		{"invalid body", id, `"1"`, func(s *Spiel) { s.Art = "PRINT" }, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := alpha()
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			w := doJSON(t, h, http.MethodPut, "/spiele/"+tt.id, in, map[string]string{"If-Match": tt.ifMatch})
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeEnvelope(t, w).Error.Code)
		})
	}

	w = doJSON(t, h, http.MethodGet, "/spiele/"+id, nil, nil)
	var got spielResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &got))
	assert.Equal(t, 5, *got.Rating)
	assert.Equal(t, 1, got.Version)
}

func TestHTTPHandler_ListAndDelete(t *testing.T) {
	h := newTestRouter(t)
	id := createVia(t, h, alpha())
	createVia(t, h, beta())

	list := func(path string) []spielResponse {
		w := doJSON(t, h, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var out []spielResponse
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &out))
		return out
	}

	all := list("/spiele")
	require.Len(t, all, 2)
	assert.Equal(t, "Alpha", all[0].Titel)
	assert.Equal(t, "http://example.com/spiele/"+all[0].ID, all[0].Links["self"].Href)

	assert.Len(t, list("/spiele?titel=alp"), 1)
	assert.Len(t, list("/spiele?javascript=true&typescript=true"), 2)
	assert.Empty(t, list("/spiele?titel=zzz"))

	w := doJSON(t, h, http.MethodDelete, "/spiele/"+id, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, h, http.MethodDelete, "/spiele/"+id, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, h, http.MethodGet, "/spiele/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTPHandler_DatumIsADate(t *testing.T) {
	h := newTestRouter(t)

	body := `{"titel":"Gamma","art":"KINDLE","verlag":"IWI_VERLAG","preis":3.3,"datum":"2016-02-28","isbn":"0-0070-0644-6"}`
	req := httptest.NewRequest(http.MethodPost, "/spiele", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := strings.TrimPrefix(w.Header().Get("Location"), "http://example.com/spiele/")

	w = doJSON(t, h, http.MethodGet, "/spiele/"+id, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &got))
	assert.Equal(t, "2016-02-28", got["datum"])

	req = httptest.NewRequest(http.MethodPost, "/spiele", strings.NewReader(strings.Replace(body, "2016-02-28", "28.02.2016", 1)))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
