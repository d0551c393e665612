// Package verification keeps short-lived one-time codes that gate signup and
// password reset. Codes are keyed by (purpose, email); issuing a new code for
// a key replaces the previous one.
package verification

import (
	"context"
	"errors"
	"time"
)

// Purpose partitions the code keyspace per flow.
type Purpose string

const (
	PurposeSignup             Purpose = "signup"
	PurposeResetPassword      Purpose = "forgot-password"
	PurposeAdminResetPassword Purpose = "admin-forgot-password"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 10 * time.Minute

var ErrClosed = errors.New("verification registry closed")

// Registry issues and checks verification codes. Rejected codes are reported
// as common.ErrInvalidOrExpiredCode, whatever the reason.
type Registry interface {
	// Issue generates a fresh code for (purpose, email), replacing any previous one.
	Issue(ctx context.Context, purpose Purpose, email string) (string, error)
	// Verify checks code without consuming it.
	Verify(ctx context.Context, purpose Purpose, email, code string) error
	// Consume checks code and removes it in one step, so a code completes
	// at most one flow.
	Consume(ctx context.Context, purpose Purpose, email, code string) error
	// Invalidate removes any code for (purpose, email).
	Invalidate(ctx context.Context, purpose Purpose, email string) error
	Close() error
}

// Entry is a pending code. A code checked at exactly ExpiresAt is still valid.
type Entry struct {
	Code      string
	ExpiresAt time.Time
}

func (e Entry) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

type options struct {
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

// Option customises a registry.
type Option func(*options)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock replaces time.Now (memory backend only).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithGenerator replaces the random code generator.
func WithGenerator(gen func() (string, error)) Option {
	return func(o *options) { o.generate = gen }
}

func newOptions(opts []Option) options {
	o := options{ttl: DefaultTTL, now: time.Now, generate: GenerateCode}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
