package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"
)

// SMTPConfig describes the relay. UseSSL selects implicit TLS (port 465);
// otherwise STARTTLS is used whenever the server offers it.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseSSL   bool
	Timeout  time.Duration
	From     Sender
}

func (c SMTPConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SMTPMailer delivers mail through an SMTP relay, one connection per message.
type SMTPMailer struct {
	cfg  SMTPConfig
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	m := &SMTPMailer{cfg: cfg}
	m.dial = m.dialContext
	return m
}

func (m *SMTPMailer) dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: m.cfg.Timeout, KeepAlive: 30 * time.Second}
	if m.cfg.UseSSL {
		td := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: m.cfg.Host}}
		return td.DialContext(ctx, network, addr)
	}
	return dialer.DialContext(ctx, network, addr)
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	body, err := buildMIME(m.cfg.From, msg, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	netConn, err := m.dial(ctx, "tcp", m.cfg.addr())
	if err != nil {
		return fmt.Errorf("failed to dial SMTP server %s: %w", m.cfg.addr(), err)
	}

	deadline := time.Now().Add(m.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = netConn.SetDeadline(deadline)

	conn, err := smtp.NewClient(netConn, m.cfg.Host)
	if err != nil {
		netConn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer conn.Close()

	if err = conn.Hello("localhost"); err != nil {
		return fmt.Errorf("failed to send HELO: %w", err)
	}

	if !m.cfg.UseSSL {
		if ok, _ := conn.Extension("STARTTLS"); ok {
			if err = conn.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err = conn.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate (user: %s): %w", m.cfg.Username, err)
		}
	}

	if err = conn.Mail(m.cfg.From.Address); err != nil {
		return fmt.Errorf("failed to set sender (%s): %w", m.cfg.From.Address, err)
	}
	if err = conn.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient (%s): %w", msg.To, err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(body); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return conn.Quit()
}

// buildMIME renders msg as a multipart/alternative message.
func buildMIME(from Sender, msg Message, date time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	headers := []struct{ k, v string }{
		{"From", from.String()},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", date.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/alternative; boundary=" + mw.Boundary()},
	}
	for _, h := range headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.k, h.v)
	}
	buf.WriteString("\r\n")

	parts := []struct{ ctype, body string }{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		pw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.ctype},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
