package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// randomDigits returns n cryptographically random decimal digits
func randomDigits(n int) (string, error) {
	digits := make([]byte, n)
	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}
	return string(digits), nil
}
