// internal/utils/crypto_test.go
package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePaymentToken(t *testing.T) {
	token, err := GeneratePaymentToken()
	require.NoError(t, err)
	assert.Len(t, token, 32)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]+$`), token)

	other, err := GeneratePaymentToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestGenerateOrderNumber(t *testing.T) {
	number, err := GenerateOrderNumber()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^AUR-\d{8}-[A-Za-z0-9]{6}$`), number)
}
