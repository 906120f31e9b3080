// Package request carries the state that must live exactly as long as one
// page render: the asset queue and the run-once guards.
package request

import (
	"context"
	"sync"

	"github.com/goliatone/go-widgets/pkg/assets"
)

// Scope is created per HTTP request or CLI invocation and passed explicitly
// to the operations that need it.
type Scope struct {
	mu     sync.Mutex
	assets *assets.Queue
	done   map[string]struct{}
}

// NewScope returns an empty scope with a fresh asset queue.
func NewScope() *Scope {
	return &Scope{
		assets: assets.New(),
		done:   make(map[string]struct{}),
	}
}

// Assets returns the request asset queue.
func (s *Scope) Assets() *assets.Queue {
	return s.assets
}

// Once reports true the first time key is claimed in this scope and false
// afterwards.
func (s *Scope) Once(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.done[key]; ok {
		return false
	}
	s.done[key] = struct{}{}
	return true
}

// Done reports whether key was already claimed.
func (s *Scope) Done(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.done[key]
	return ok
}

type scopeKey struct{}

// WithScope stores s on ctx.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// FromContext returns the scope stored on ctx, or a new detached scope when
// none is present.
func FromContext(ctx context.Context) *Scope {
	if ctx != nil {
		if s, ok := ctx.Value(scopeKey{}).(*Scope); ok && s != nil {
			return s
		}
	}
	return NewScope()
}
