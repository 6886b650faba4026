package recovery

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var tokenRange = big.NewInt(1000000)

// GenerateToken returns a six-digit zero-padded numeric validation token in
// the range 000000-999999.
func GenerateToken() (string, error) {
	n, err := rand.Int(rand.Reader, tokenRange)
	if err != nil {
		return "", fmt.Errorf("recovery: generate token: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
