// Package target holds the routing state of the gateway: which of the two
// backends currently receives proxied traffic, and where each backend lives.
//
// The Store is the only shared mutable value in the gateway. It is created
// once at startup and handed by pointer to the components that read or flip
// it; nothing else touches the underlying cell.
//
// Thread Safety:
// Store methods are safe for concurrent use by any number of goroutines.
// Endpoints is immutable after construction.
package target

import (
	"fmt"
	"net/url"
	"sync/atomic"
)

// Backend identifies one of the two upstream services.
type Backend uint8

const (
	// A is the backend selected at startup.
	A Backend = iota

	// B is the alternate backend.
	B
)

// String returns "A" or "B".
func (b Backend) String() string {
	if b == B {
		return "B"
	}

	return "A"
}

// Other returns the backend that is not b.
func (b Backend) Other() Backend {
	if b == A {
		return B
	}

	return A
}

// Backends lists every backend in declaration order.
func Backends() []Backend {
	return []Backend{A, B}
}

// Store owns the active backend selection.
//
// The selection is derived from a flip counter: every Toggle increments it,
// and the active backend is its low bit. An increment is a single atomic
// operation, so concurrent toggles are serialized and none is lost, and a
// reader always observes the result of some completed toggle.
type Store struct {
	flips atomic.Uint64
}

// NewStore creates a store with backend A active.
func NewStore() *Store {
	return &Store{}
}

// Current returns the active backend.
func (s *Store) Current() Backend {
	return Backend(s.flips.Load() & 1)
}

// Toggle flips the active backend and returns the new one.
func (s *Store) Toggle() Backend {
	return Backend(s.flips.Add(1) & 1)
}

// Flips returns the number of toggles performed since the store was created.
func (s *Store) Flips() uint64 {
	return s.flips.Load()
}

// Endpoints maps each backend to its base URL.
//
// The mapping is an array indexed by Backend, so every backend has exactly
// one entry and a lookup can never miss.
type Endpoints struct {
	urls [2]*url.URL
}

// NewEndpoints builds the backend mapping. Both URLs are required; the
// values are copied so later changes by the caller have no effect.
func NewEndpoints(a, b *url.URL) (Endpoints, error) {
	if a == nil {
		return Endpoints{}, fmt.Errorf("base URL for backend %s is required", A)
	}

	if b == nil {
		return Endpoints{}, fmt.Errorf("base URL for backend %s is required", B)
	}

	ac, bc := *a, *b
	return Endpoints{urls: [2]*url.URL{A: &ac, B: &bc}}, nil
}

// ParseEndpoints parses two raw base URLs into Endpoints.
func ParseEndpoints(rawA, rawB string) (Endpoints, error) {
	a, err := url.Parse(rawA)
	if err != nil {
		return Endpoints{}, fmt.Errorf("invalid base URL for backend %s: %w", A, err)
	}

	b, err := url.Parse(rawB)
	if err != nil {
		return Endpoints{}, fmt.Errorf("invalid base URL for backend %s: %w", B, err)
	}

	return NewEndpoints(a, b)
}

// URL returns the base URL of backend b. The returned value must not be
// modified.
func (e Endpoints) URL(b Backend) *url.URL {
	return e.urls[b&1]
}
