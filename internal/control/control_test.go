package control

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchgate/internal/target"
	"switchgate/pkg/logger"
)

func newTestHandlers() (*Handlers, *target.Store) {
	store := target.NewStore()
	return New(store, "/service", logger.Discard()), store
}

func TestToggle(t *testing.T) {
	h, store := newTestHandlers()

	rec := httptest.NewRecorder()
	h.Toggle(rec, httptest.NewRequest("GET", "/flip", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Service set to B\n", rec.Body.String())
	assert.Equal(t, target.B, store.Current())

	rec = httptest.NewRecorder()
	h.Toggle(rec, httptest.NewRequest("GET", "/flip", nil))
	assert.Equal(t, "Service set to A\n", rec.Body.String())
	assert.Equal(t, target.A, store.Current())
}

func TestConcurrentToggles(t *testing.T) {
	h, store := newTestHandlers()

	const calls = 101
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Toggle(httptest.NewRecorder(), httptest.NewRequest("GET", "/flip", nil))
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(calls), store.Flips())
	assert.Equal(t, target.B, store.Current())
}

func TestIndex(t *testing.T) {
	h, store := newTestHandlers()

	req := httptest.NewRequest("GET", "http://gateway.local:8080/", nil)
	rec := httptest.NewRecorder()
	h.Index(rec, req)

	expected := "Use these endpoints:\n" +
		" - http://gateway.local:8080/service: show current service\n" +
		" - http://gateway.local:8080/flip: flip service (from service A to service B and vice-versa)\n" +
		" - http://gateway.local:8080/service/hello: call an API from current service\n"

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, expected, rec.Body.String())
	assert.Equal(t, uint64(0), store.Flips(), "index has no side effects")
}

func TestIndexBehindProxy(t *testing.T) {
	store := target.NewStore()
	h := New(store, "/api/", logger.Discard())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "public.example.com, internal:8080")

	rec := httptest.NewRecorder()
	h.Index(rec, req)

	assert.Contains(t, rec.Body.String(), " - https://public.example.com/api: show current service\n")
	assert.Contains(t, rec.Body.String(), " - https://public.example.com/api/hello: call")
}

func TestHealth(t *testing.T) {
	h, store := newTestHandlers()
	store.Toggle()

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, healthResponse{Status: "healthy", Service: "switchgate", Active: "B", Flips: 1}, body)
}

func TestToggleLogsTransition(t *testing.T) {
	var buf bytes.Buffer
	store := target.NewStore()
	h := New(store, "/service", logger.New(logger.LoggerConfig{Level: "info", Format: "json", Output: &buf}))

	h.Toggle(httptest.NewRecorder(), httptest.NewRequest("GET", "/flip", nil))

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "A", record["from"])
	assert.Equal(t, "B", record["backend"])
	assert.Equal(t, float64(1), record["flips"])
}
