package verification

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

const (
	codeMin = 100000
	codeMax = 999999
)

var codeSpan = big.NewInt(codeMax - codeMin + 1)

// GenerateCode returns a uniformly random six-digit code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}

func codesEqual(want, got string) bool {
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
