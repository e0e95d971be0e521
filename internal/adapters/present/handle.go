package present

import (
	"context"
	"sync"
)

// Handle is a presented document.
type Handle struct {
	c        Context
	strategy string
	release  func()
	once     sync.Once
	closeErr error
}

func newHandle(c Context, strategy string, release func()) *Handle {
	return &Handle{c: c, strategy: strategy, release: release}
}

// Strategy names the strategy that presented the document.
func (h *Handle) Strategy() string { return h.strategy }

// URL returns the address of the context.
func (h *Handle) URL() string { return h.c.URL() }

// PDF prints the document.
func (h *Handle) PDF(ctx context.Context) ([]byte, error) {
	return h.c.PDF(ctx)
}

// Close closes the context and releases its blob. Safe to call twice.
func (h *Handle) Close() error {
	h.once.Do(func() {
		h.closeErr = h.c.Close()
		if h.release != nil {
			h.release()
		}
	})
	return h.closeErr
}
