package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewritePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		prefix   string
		expected string
		matched  bool
	}{
		{name: "bare prefix", path: "/service", prefix: "/service", expected: "/", matched: true},
		{name: "prefix with slash", path: "/service/", prefix: "/service", expected: "/", matched: true},
		{name: "single segment", path: "/service/hello", prefix: "/service", expected: "/hello", matched: true},
		{name: "nested segments", path: "/service/a/b/c", prefix: "/service", expected: "/a/b/c", matched: true},
		{name: "trailing slash kept", path: "/service/hello/", prefix: "/service", expected: "/hello/", matched: true},
		{name: "double slash", path: "/service//x", prefix: "/service", expected: "//x", matched: true},
		{name: "prefix configured with slash", path: "/service/hello", prefix: "/service/", expected: "/hello", matched: true},
		{name: "bare path with slash prefix", path: "/service", prefix: "/service/", expected: "/", matched: true},
		{name: "multi segment prefix", path: "/api/v1/users", prefix: "/api/v1", expected: "/users", matched: true},
		{name: "similar prefix", path: "/services", prefix: "/service", matched: false},
		{name: "similar prefix nested", path: "/services/hello", prefix: "/service", matched: false},
		{name: "other path", path: "/flip", prefix: "/service", matched: false},
		{name: "root", path: "/", prefix: "/service", matched: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RewritePath(tt.path, tt.prefix)
			assert.Equal(t, tt.matched, ok)
			if tt.matched {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

// TestRewritePathAnyRest checks /prefix/<rest> -> /<rest> over a spread of
// rest values.
func TestRewritePathAnyRest(t *testing.T) {
	rests := []string{"", "hello", "a/b", "with space", "ünïcode", "x?y", "%2F", ".", "..", "a/../b"}

	for _, rest := range rests {
		got, ok := RewritePath("/service/"+rest, "/service")
		assert.True(t, ok, rest)
		assert.Equal(t, "/"+rest, got, rest)
	}
}
