package vfs

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// HandlerFunc opens a stream for an address of the scheme it is registered for.
type HandlerFunc func(addr string) (io.ReadCloser, error)

// Mux routes addresses to handlers by scheme.
// Mux is safe for concurrent use.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewMux returns an empty Mux.
func NewMux() *Mux {
	return &Mux{handlers: make(map[string]HandlerFunc)}
}

// Handle registers h for scheme. Registering a scheme twice is an error.
func (m *Mux) Handle(scheme string, h HandlerFunc) error {
	if scheme == "" || h == nil {
		return fmt.Errorf("vfs: invalid handler registration for scheme %q", scheme)
	}
	scheme = strings.ToLower(scheme)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.handlers[scheme]; dup {
		return fmt.Errorf("vfs: scheme %q already registered", scheme)
	}
	m.handlers[scheme] = h
	return nil
}

// Open opens addr with the handler registered for its scheme.
func (m *Mux) Open(addr string) (io.ReadCloser, error) {
	scheme, _, ok := strings.Cut(addr, "://")
	if !ok || scheme == "" {
		return nil, fmt.Errorf("%w: %q has no scheme", ErrInvalidLocation, addr)
	}

	m.mu.RLock()
	h, ok := m.handlers[strings.ToLower(scheme)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no handler for scheme %q", ErrInvalidLocation, scheme)
	}
	return h(addr)
}

// Handles reports whether a handler is registered for scheme.
func (m *Mux) Handles(scheme string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.handlers[strings.ToLower(scheme)]
	return ok
}
