package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spielapi/internal/spiel"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const knownID = "00000000-0000-0000-0000-000000000001"

type fakeFinder struct{}

func (fakeFinder) FindByID(_ context.Context, id string) (*spiel.Spiel, error) {
	if id != knownID {
		return nil, nil
	}
	return &spiel.Spiel{ID: id, Titel: "Alpha"}, nil
}

func TestService_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), fakeFinder{}, nil)

	ok, err := svc.Save(ctx, knownID, "image/png", strings.NewReader("png-1"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Save(ctx, knownID, "", strings.NewReader("replaced"))
	require.NoError(t, err)
	assert.True(t, ok)

	obj, err := svc.Find(ctx, knownID)
	require.NoError(t, err)
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(data))
	assert.Equal(t, defaultContentType, obj.ContentType)
	assert.Equal(t, int64(8), obj.Size)
}

func TestService_MissingSpiel(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), fakeFinder{}, nil)

	ok, err := svc.Save(ctx, "unknown", "image/png", strings.NewReader("x"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Find(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Find(ctx, knownID)
	assert.ErrorIs(t, err, ErrNotFound)
}

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) FindByID(ctx context.Context, id string) (*spiel.Spiel, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*spiel.Spiel)
	return s, args.Error(1)
}

func TestService_FinderError(t *testing.T) {
	boom := errors.New("db down")
	finder := new(mockFinder)
	finder.On("FindByID", mock.Anything, knownID).Return(nil, boom).Twice()
	svc := NewService(NewMemoryStore(), finder, nil)

	_, err := svc.Save(context.Background(), knownID, "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, boom)
	_, err = svc.Find(context.Background(), knownID)
	assert.ErrorIs(t, err, boom)

	finder.AssertExpectations(t)
}

func newTestRouter() http.Handler {
	h := NewHTTPHandler(NewService(NewMemoryStore(), fakeFinder{}, nil))
	r := chi.NewRouter()
	r.Put("/spiele/{id}/media", h.Upload)
	r.Get("/spiele/{id}/media", h.Download)
	return r
}

func TestHTTPHandler_UploadDownload(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPut, "/spiele/"+knownID+"/media", bytes.NewReader([]byte{0x89, 'P', 'N', 'G'}))
	req.Header.Set("Content-Type", "image/png")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/spiele/"+knownID+"/media", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "4", w.Header().Get("Content-Length"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, w.Body.Bytes())
}

func TestHTTPHandler_NotFound(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/spiele/unknown/media", strings.NewReader("x")))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/spiele/"+knownID+"/media", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
