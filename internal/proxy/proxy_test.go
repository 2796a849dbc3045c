package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchgate/internal/config"
	"switchgate/internal/target"
	"switchgate/pkg/logger"
)

type recordingForwarder struct {
	decisions []Decision
}

func (f *recordingForwarder) Forward(w http.ResponseWriter, r *http.Request, d Decision) {
	f.decisions = append(f.decisions, d)
	w.WriteHeader(http.StatusNoContent)
}

func TestHandlerPassesDecisionToForwarder(t *testing.T) {
	router, _, _ := newTestRouter(t)
	fwd := &recordingForwarder{}
	h := NewHandler(router, fwd, logger.Discard())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/service/hello", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, fwd.decisions, 1)
	assert.Equal(t, target.A, fwd.decisions[0].Backend)
	assert.Equal(t, "/hello", fwd.decisions[0].Path)
}

func TestHandlerUnmatchedPath(t *testing.T) {
	router, _, _ := newTestRouter(t)
	fwd := &recordingForwarder{}
	h := NewHandler(router, fwd, logger.Discard())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/elsewhere", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "CLIENT_NOT_FOUND")
	assert.Empty(t, fwd.decisions)
}

// TestHandlerSwitchesBackends runs the pipeline against two live backends
// and flips the store between requests.
func TestHandlerSwitchesBackends(t *testing.T) {
	a := echoBackend(t, "A")
	b := echoBackend(t, "B")

	endpoints, err := target.ParseEndpoints(a.URL, b.URL)
	require.NoError(t, err)

	store := target.NewStore()
	engine, _ := newTestEngine(config.DefaultConfig().Transport)
	h := NewHandler(NewRouter(store, endpoints, "/service"), engine, logger.Discard())

	get := func(path string) string {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		body, _ := io.ReadAll(rec.Body)
		return string(body)
	}

	assert.Contains(t, get("/service/hello"), "A GET /hello|")
	store.Toggle()
	assert.Contains(t, get("/service/hello"), "B GET /hello|")
	assert.Contains(t, get("/service"), "B GET /|")
	store.Toggle()
	assert.Contains(t, get("/service/"), "A GET /|")
}
