// Package mailer delivers verification mail over SMTP, Amazon SES or,
// for local development, the log.
package mailer

import (
	"context"
	"fmt"
	"net/mail"
)

// Message is a single outgoing mail with plain-text and HTML bodies.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends a Message. Implementations return an error wrapping the
// underlying transport failure; callers decide how to surface it.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Sender is the From identity of outgoing mail.
type Sender struct {
	Address string
	Name    string
}

func (s Sender) String() string {
	if s.Name == "" {
		return s.Address
	}
	return (&mail.Address{Name: s.Name, Address: s.Address}).String()
}

func validate(msg Message) error {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	if msg.Text == "" && msg.HTML == "" {
		return fmt.Errorf("empty message body")
	}
	return nil
}
