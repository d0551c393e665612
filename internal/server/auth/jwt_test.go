package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, exp, err := GenerateToken("acc-123", models.RoleAdmin, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if d := time.Until(exp); d < 59*time.Minute || d > time.Hour {
		t.Fatalf("unexpected expiry %v", exp)
	}

	claims, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.AccountID != "acc-123" || claims.Role != models.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Subject != "acc-123" {
		t.Fatalf("subject mismatch: %q", claims.Subject)
	}
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	tok, _, err := GenerateToken("u1", models.RoleUser, secret, -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = ParseToken(tok, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := GenerateToken("u2", models.RoleUser, []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = ParseToken(tok, []byte("wrong-secret"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestParseToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not.a.jwt", []byte("k"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		AccountID: "u3",
		Role:      models.RoleAdmin,
	})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	if _, err := ParseToken(s, []byte("k")); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestParseToken_ForeignIssuer(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		AccountID: "u4",
	})
	s, err := tok.SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	if _, err := ParseToken(s, secret); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}
