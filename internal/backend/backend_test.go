package backend

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"switchgate/pkg/logger"
)

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServices(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		welcome string
		hello   string
	}{
		{"service A", Config{Name: "A"}, "Welcome to Service A\n", "Hello world\n"},
		{"service B", Config{Name: "B"}, "Welcome to Service B\n", "Bonjour le monde\n"},
		{"custom greeting", Config{Name: "C", Greeting: "Hola mundo\n"}, "Welcome to Service C\n", "Hola mundo\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(tt.cfg, logger.Discard())

			rec := serve(h, http.MethodGet, "/")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.welcome, rec.Body.String())
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))

			rec = serve(h, http.MethodGet, "/hello")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.hello, rec.Body.String())
		})
	}
}

func TestUnknownRoutes(t *testing.T) {
	h := New(Config{Name: "A"}, logger.Discard())

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/missing").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodPost, "/hello").Code)
}

func TestDefaultGreeting(t *testing.T) {
	assert.Equal(t, "Hello world", DefaultGreeting("A"))
	assert.Equal(t, "Bonjour le monde", DefaultGreeting("b"))
	assert.Equal(t, "Hello world", DefaultGreeting("other"))
}
