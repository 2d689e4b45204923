// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUSState(t *testing.T) {
	assert.True(t, IsValidUSState("OR"))
	assert.True(t, IsValidUSState("tx"), "case insensitive")
	assert.True(t, IsValidUSState("DC"))
	assert.False(t, IsValidUSState("ZZ"))
	assert.False(t, IsValidUSState(""))
	assert.False(t, IsValidUSState("Oregon"))
}

func TestIsValidUSZip(t *testing.T) {
	assert.True(t, IsValidUSZip("97201"))
	assert.True(t, IsValidUSZip("97201-1234"))
	assert.False(t, IsValidUSZip("1234"))
	assert.False(t, IsValidUSZip("97201-12"))
	assert.False(t, IsValidUSZip("abcde"))
	assert.False(t, IsValidUSZip(""))
}

func TestValidateStructAddressTags(t *testing.T) {
	type addressForm struct {
		State string `validate:"required,us_state"`
		Zip   string `validate:"required,us_zip"`
	}

	assert.NoError(t, ValidateStruct(&addressForm{State: "CA", Zip: "94103"}))

	err := ValidateStruct(&addressForm{State: "XX", Zip: "0"})
	assert.Error(t, err)

	fieldErrs := GetValidationErrors(err)
	assert.Len(t, fieldErrs, 2)

	byField := map[string]ValidationError{}
	for _, fe := range fieldErrs {
		byField[fe.Field] = fe
	}
	assert.Equal(t, "us_state", byField["state"].Tag)
	assert.Equal(t, "Invalid US state code", byField["state"].Message)
	assert.Equal(t, "us_zip", byField["zip"].Tag)
	assert.Equal(t, "Invalid ZIP code", byField["zip"].Message)
}

func TestGetValidationErrorsNonValidatorError(t *testing.T) {
	assert.Empty(t, GetValidationErrors(assert.AnError))
	assert.Empty(t, GetValidationErrors(nil))
}
