package services

import (
	"bytes"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/shopauth/internal/common"
)

// MinPasswordLength is counted in characters, not bytes.
const MinPasswordLength = 8

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordSymbols is the punctuation accepted as the symbol class.
const PasswordSymbols = "!@#$%^&*()-_=+[]{};:'\",.<>/?\\|`~"

// ValidatePassword enforces the password policy: at least MinPasswordLength
// characters and at most MaxPasswordBytes bytes, with an uppercase letter,
// a lowercase letter, a digit and one of PasswordSymbols. The returned error
// wraps common.ErrWeakPassword and names the first unmet rule.
func ValidatePassword(password string) error {
	return validatePassword([]byte(password))
}

func validatePassword(password []byte) error {
	if utf8.RuneCount(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, common.ErrWeakPassword)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes: %w", MaxPasswordBytes, common.ErrWeakPassword)
	}

	var upper, lower, digit, symbol bool
	for rest := password; len(rest) > 0; {
		r, size := utf8.DecodeRune(rest)
		rest = rest[size:]
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case bytes.ContainsRune([]byte(PasswordSymbols), r):
			symbol = true
		}
	}

	switch {
	case !upper:
		return fmt.Errorf("password must contain an uppercase letter: %w", common.ErrWeakPassword)
	case !lower:
		return fmt.Errorf("password must contain a lowercase letter: %w", common.ErrWeakPassword)
	case !digit:
		return fmt.Errorf("password must contain a digit: %w", common.ErrWeakPassword)
	case !symbol:
		return fmt.Errorf("password must contain a symbol: %w", common.ErrWeakPassword)
	}
	return nil
}
