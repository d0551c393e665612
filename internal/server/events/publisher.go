// Package events announces account lifecycle changes to other services.
package events

import (
	"context"
	"time"
)

// Routing keys.
const (
	AccountCreated       = "account.created"
	AccountPasswordReset = "account.password_reset"
)

// Event is the JSON body of every published message.
type Event struct {
	Type       string    `json:"-"`
	AccountID  string    `json:"account_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events. Delivery is best effort; callers log failures
// and carry on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
