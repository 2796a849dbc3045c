package proxy

import (
	"net/http"
	"net/url"

	"switchgate/internal/target"
)

// Decision is the routing outcome for one request: the backend chosen, its
// base URL and the path to send upstream. It is computed once per request
// and is not affected by toggles that happen afterwards.
type Decision struct {
	Backend target.Backend
	BaseURL *url.URL

	// Path is the decoded upstream path relative to BaseURL.
	Path string

	// RawPath is the escaped form of Path, set only when the inbound
	// request carried one.
	RawPath string
}

// Target returns the host the decision points at.
func (d Decision) Target() string {
	return d.BaseURL.Host
}

// Router resolves requests under a prefix to the active backend.
type Router struct {
	store     *target.Store
	endpoints target.Endpoints
	prefix    string
}

// NewRouter creates a router reading the selection from store.
func NewRouter(store *target.Store, endpoints target.Endpoints, prefix string) *Router {
	return &Router{
		store:     store,
		endpoints: endpoints,
		prefix:    prefix,
	}
}

// Prefix returns the route prefix the router strips.
func (rt *Router) Prefix() string {
	return rt.prefix
}

// Resolve computes the Decision for r. The store is read exactly once, so
// the request sees a single snapshot of the selection. It returns false if
// r's path is not under the router's prefix.
func (rt *Router) Resolve(r *http.Request) (Decision, bool) {
	path, ok := RewritePath(r.URL.Path, rt.prefix)
	if !ok {
		return Decision{}, false
	}

	var rawPath string
	if r.URL.RawPath != "" {
		rawPath, _ = RewritePath(r.URL.RawPath, rt.prefix)
	}

	b := rt.store.Current()
	return Decision{
		Backend: b,
		BaseURL: rt.endpoints.URL(b),
		Path:    path,
		RawPath: rawPath,
	}, true
}
