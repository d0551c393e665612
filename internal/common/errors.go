// Package common defines shared constants and sentinel errors used across
// the transport, service and repository layers of shopauth. Callers should
// use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Validation errors (missing or malformed input).
	ErrValidation = errors.New("validation error")

	// Verification code errors.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired verification code")

	// Credential errors.
	ErrWeakPassword       = errors.New("password does not satisfy the policy")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRoleMismatch       = errors.New("role mismatch")
	ErrAccountNotFound    = errors.New("account not found")

	// Identity uniqueness errors. Both specific errors wrap ErrDuplicateIdentity.
	ErrDuplicateIdentity = errors.New("identity already exists")
	ErrEmailTaken        = fmt.Errorf("email already exists: %w", ErrDuplicateIdentity)
	ErrMobileTaken       = fmt.Errorf("mobile number already exists: %w", ErrDuplicateIdentity)

	// Federated identity errors.
	ErrExternalTokenInvalid = errors.New("external identity token invalid")

	// Mail transport errors.
	ErrTransport = errors.New("mail transport failure")

	// Session token errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
