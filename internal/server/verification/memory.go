package verification

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
)

type key struct {
	purpose Purpose
	email   string
}

// MemoryRegistry keeps codes in process memory. Codes do not survive a
// restart. Expired entries are dropped when touched and by Sweep.
type MemoryRegistry struct {
	opts options

	mu      sync.Mutex
	entries map[key]Entry
	closed  bool

	done      chan struct{}
	closeOnce sync.Once
}

var _ Registry = (*MemoryRegistry)(nil)

func NewMemoryRegistry(opts ...Option) *MemoryRegistry {
	return &MemoryRegistry{
		opts:    newOptions(opts),
		entries: make(map[key]Entry),
		done:    make(chan struct{}),
	}
}

func (r *MemoryRegistry) Issue(_ context.Context, purpose Purpose, email string) (string, error) {
	code, err := r.opts.generate()
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", ErrClosed
	}

	r.entries[key{purpose, email}] = Entry{Code: code, ExpiresAt: r.opts.now().Add(r.opts.ttl)}
	return code, nil
}

func (r *MemoryRegistry) Verify(_ context.Context, purpose Purpose, email, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return r.check(key{purpose, email}, code)
}

func (r *MemoryRegistry) Consume(_ context.Context, purpose Purpose, email, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	k := key{purpose, email}
	if err := r.check(k, code); err != nil {
		return err
	}
	delete(r.entries, k)
	return nil
}

func (r *MemoryRegistry) Invalidate(_ context.Context, purpose Purpose, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	delete(r.entries, key{purpose, email})
	return nil
}

// check must be called with r.mu held.
func (r *MemoryRegistry) check(k key, code string) error {
	e, ok := r.entries[k]
	if !ok {
		return common.ErrInvalidOrExpiredCode
	}
	if e.expired(r.opts.now()) {
		delete(r.entries, k)
		return common.ErrInvalidOrExpiredCode
	}
	if !codesEqual(e.Code, code) {
		return common.ErrInvalidOrExpiredCode
	}
	return nil
}

// Sweep removes every expired entry and reports how many were dropped.
func (r *MemoryRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.opts.now()
	n := 0
	for k, e := range r.entries {
		if e.expired(now) {
			delete(r.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included.
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// RunSweeper calls Sweep every interval until ctx is done or the registry
// is closed. onSweep, if set, receives the number of dropped entries.
func (r *MemoryRegistry) RunSweeper(ctx context.Context, interval time.Duration, onSweep func(n int)) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-t.C:
			n := r.Sweep()
			if onSweep != nil {
				onSweep(n)
			}
		}
	}
}

// Close drops all codes and stops the sweeper. It is safe to call twice.
func (r *MemoryRegistry) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.entries = make(map[key]Entry)
		r.mu.Unlock()
		close(r.done)
	})
	return nil
}
