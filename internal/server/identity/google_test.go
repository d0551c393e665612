package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

type fakeValidator struct {
	payload  *idtoken.Payload
	err      error
	audience string
}

func (f *fakeValidator) Validate(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
	f.audience = audience
	return f.payload, f.err
}

func TestGoogleVerifier_Verify(t *testing.T) {
	fv := &fakeValidator{payload: &idtoken.Payload{
		Subject: "g-1",
		Claims: map[string]interface{}{
			"email":          "a@example.com",
			"email_verified": true,
			"name":           "Alice",
		},
	}}
	g := &GoogleVerifier{clientID: "client-1", validator: fv}

	id, err := g.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, &Identity{Subject: "g-1", Email: "a@example.com", Name: "Alice"}, id)
	assert.Equal(t, "client-1", fv.audience)
}

func TestGoogleVerifier_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		clientID string
		token    string
		v        *fakeValidator
	}{
		{"empty token", "client-1", "", &fakeValidator{}},
		{"not configured", "", "tok", &fakeValidator{}},
		{"validator error", "client-1", "tok", &fakeValidator{err: errors.New("bad signature")}},
		{"no email", "client-1", "tok", &fakeValidator{payload: &idtoken.Payload{Claims: map[string]interface{}{}}}},
		{"unverified email", "client-1", "tok", &fakeValidator{payload: &idtoken.Payload{Claims: map[string]interface{}{
			"email": "a@example.com", "email_verified": false,
		}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &GoogleVerifier{clientID: tt.clientID, validator: tt.v}
			_, err := g.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, common.ErrExternalTokenInvalid)
		})
	}
}
