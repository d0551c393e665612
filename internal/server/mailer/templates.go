package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

// Kind selects the verification mail template.
type Kind string

const (
	KindSignupCode     Kind = "signup_code"
	KindResetCode      Kind = "reset_code"
	KindAdminResetCode Kind = "admin_reset_code"
)

type codeData struct {
	SiteName string
	Code     string
	Minutes  int
}

var subjects = map[Kind]string{
	KindSignupCode:     "Your Signup Verification Code",
	KindResetCode:      "Your Password Reset Verification Code",
	KindAdminResetCode: "Your Admin Password Reset Verification Code",
}

const textTemplates = `
{{define "signup_code"}}Welcome to {{.SiteName}}!

Your verification code is: {{.Code}}

The code expires in {{.Minutes}} minute{{if ne .Minutes 1}}s{{end}}.
{{end}}
{{define "reset_code"}}A password reset was requested for your {{.SiteName}} account.

Your verification code is: {{.Code}}

The code expires in {{.Minutes}} minute{{if ne .Minutes 1}}s{{end}}. If you did not ask for a reset, ignore this message.
{{end}}
{{define "admin_reset_code"}}A password reset was requested for your {{.SiteName}} admin account.

Your verification code is: {{.Code}}

The code expires in {{.Minutes}} minute{{if ne .Minutes 1}}s{{end}}. If you did not ask for a reset, contact the other administrators.
{{end}}
`

const htmlTemplates = `
{{define "layout_start"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #333;">
{{end}}
{{define "layout_end"}}<p style="color: #888; font-size: 12px;">The code expires in {{.Minutes}} minute{{if ne .Minutes 1}}s{{end}}.</p>
</body>
</html>
{{end}}
{{define "signup_code"}}{{template "layout_start" .}}<h1>Welcome to {{.SiteName}}</h1>
<p>Your verification code is: <b>{{.Code}}</b></p>
{{template "layout_end" .}}{{end}}
{{define "reset_code"}}{{template "layout_start" .}}<h1>Password reset</h1>
<p>Your verification code is: <b>{{.Code}}</b></p>
<p>If you did not ask for a reset, ignore this message.</p>
{{template "layout_end" .}}{{end}}
{{define "admin_reset_code"}}{{template "layout_start" .}}<h1>Admin password reset</h1>
<p>Your verification code is: <b>{{.Code}}</b></p>
<p>If you did not ask for a reset, contact the other administrators.</p>
{{template "layout_end" .}}{{end}}
`

// Composer renders verification mail.
type Composer struct {
	siteName string
	minutes  int
	text     *texttemplate.Template
	html     *htmltemplate.Template
}

// NewComposer parses the built-in templates. ttl is the code lifetime shown
// to the recipient, rounded up to whole minutes.
func NewComposer(siteName string, ttl time.Duration) (*Composer, error) {
	text, err := texttemplate.New("text").Parse(textTemplates)
	if err != nil {
		return nil, fmt.Errorf("failed to parse text templates: %w", err)
	}
	html, err := htmltemplate.New("html").Parse(htmlTemplates)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html templates: %w", err)
	}
	return &Composer{siteName: siteName, minutes: wholeMinutes(ttl), text: text, html: html}, nil
}

func wholeMinutes(d time.Duration) int {
	m := int((d + time.Minute - 1) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}

// CodeMessage builds the mail carrying code to the given address.
func (c *Composer) CodeMessage(kind Kind, to, code string) (Message, error) {
	subject, ok := subjects[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown mail kind %q", kind)
	}

	data := codeData{SiteName: c.siteName, Code: code, Minutes: c.minutes}

	var text, html bytes.Buffer
	if err := c.text.ExecuteTemplate(&text, string(kind), data); err != nil {
		return Message{}, fmt.Errorf("failed to render %s text: %w", kind, err)
	}
	if err := c.html.ExecuteTemplate(&html, string(kind), data); err != nil {
		return Message{}, fmt.Errorf("failed to render %s html: %w", kind, err)
	}

	return Message{To: to, Subject: subject, Text: text.String(), HTML: html.String()}, nil
}
