// Package identity verifies ID tokens issued by external identity providers.
package identity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// Identity is what a verified provider token asserts about its holder.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// Verifier checks a provider token. Any failure wraps common.ErrExternalTokenInvalid.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type payloadValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier validates Google ID tokens against the configured OAuth
// client ID and requires a verified email claim.
type GoogleVerifier struct {
	clientID  string
	validator payloadValidator
}

// NewGoogleVerifier builds a verifier fetching Google's signing keys with
// httpClient (http.DefaultClient when nil).
func NewGoogleVerifier(ctx context.Context, clientID string, httpClient *http.Client) (*GoogleVerifier, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	v, err := idtoken.NewValidator(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google token validator: %w", err)
	}
	return &GoogleVerifier{clientID: clientID, validator: v}, nil
}

func (g *GoogleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("empty token: %w", common.ErrExternalTokenInvalid)
	}
	if g.clientID == "" {
		return nil, fmt.Errorf("google login is not configured: %w", common.ErrExternalTokenInvalid)
	}

	payload, err := g.validator.Validate(ctx, token, g.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExternalTokenInvalid, err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("token carries no email: %w", common.ErrExternalTokenInvalid)
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, fmt.Errorf("email not verified: %w", common.ErrExternalTokenInvalid)
	}

	name, _ := payload.Claims["name"].(string)
	return &Identity{Subject: payload.Subject, Email: email, Name: name}, nil
}
