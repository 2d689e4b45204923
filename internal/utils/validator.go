// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// usStates is the set of valid two-letter state/territory codes accepted on
// shipping addresses.
var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "DC": true, "PR": true, "VI": true, "GU": true,
}

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("us_state", validateUSState)
	validate.RegisterValidation("us_zip", validateUSZip)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateUSState(fl validator.FieldLevel) bool {
	return usStates[strings.ToUpper(fl.Field().String())]
}

func validateUSZip(fl validator.FieldLevel) bool {
	return zipPattern.MatchString(fl.Field().String())
}

// IsValidUSState checks a two-letter state code outside struct validation.
func IsValidUSState(code string) bool {
	return usStates[strings.ToUpper(code)]
}

// IsValidUSZip checks a 5-digit or ZIP+4 code outside struct validation.
func IsValidUSZip(zip string) bool {
	return zipPattern.MatchString(zip)
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "us_state":
		return "Invalid US state code"
	case "us_zip":
		return "Invalid ZIP code"
	default:
		return e.Field() + " is invalid"
	}
}
