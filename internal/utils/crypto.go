// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

func GenerateRandomString(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GeneratePaymentToken mints the bearer token embedded in payment-link URLs.
func GeneratePaymentToken() (string, error) {
	return GenerateRandomString(32)
}

// GenerateOrderNumber produces a human-readable order reference like
// AUR-20260115-X7K2QZ.
func GenerateOrderNumber() (string, error) {
	suffix, err := GenerateRandomString(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("AUR-%s-%s", time.Now().Format("20060102"), suffix), nil
}
