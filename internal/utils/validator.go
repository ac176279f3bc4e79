// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	nonDigits       = regexp.MustCompile(`\D`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("proportion", validateFraction)
	validate.RegisterValidation("efficiency", validateFraction)
	validate.RegisterValidation("hexcolor_opt", validateOptionalHexColor)
	validate.RegisterValidation("phone_br", validateBrazilianPhone)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateFraction accepts 0 < v <= 1.
func validateFraction(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return v > 0 && v <= 1
}

func validateOptionalHexColor(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || hexColorPattern.MatchString(value)
}

// validateBrazilianPhone accepts 10 or 11 digits (area code + number) in any
// punctuation.
func validateBrazilianPhone(fl validator.FieldLevel) bool {
	digits := nonDigits.ReplaceAllString(fl.Field().String(), "")
	return len(digits) == 10 || len(digits) == 11
}

// Validation tags for common fields
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
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "gte":
		return e.Field() + " must be greater than or equal to " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "proportion":
		return e.Field() + " must be a proportion between 0 and 1"
	case "efficiency":
		return e.Field() + " must be greater than 0 and at most 1"
	case "hexcolor_opt":
		return e.Field() + " must be a color like #1A2B3C"
	case "phone_br":
		return e.Field() + " must be a phone number with area code"
	default:
		return e.Field() + " is invalid"
	}
}
