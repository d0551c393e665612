package mailer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/shopauth/internal/logging"
)

// ConsoleMailer prints mail to w instead of delivering it. Development only.
// The log records the recipient and subject, never the body.
type ConsoleMailer struct {
	mu     sync.Mutex
	w      io.Writer
	logger logging.Logger
}

func NewConsoleMailer(w io.Writer, logger logging.Logger) *ConsoleMailer {
	return &ConsoleMailer{w: w, logger: logger.With("module", "mailer.console")}
}

func (m *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	m.mu.Lock()
	_, err := fmt.Fprintf(m.w, "To: %s\nSubject: %s\n\n%s\n", msg.To, msg.Subject, msg.Text)
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	m.logger.Info(ctx, "mail written to console", "to", msg.To, "subject", msg.Subject)
	return nil
}
