package utils

import (
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
)

var (
	validate  = newValidator()
	otpLength atomic.Int32
)

func init() {
	otpLength.Store(5)
}

// SetOTPLength sets the code length the "otp" tag accepts.
func SetOTPLength(n int) {
	otpLength.Store(int32(n))
}

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names so errors match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		return isOTPCode(fl.Field().String(), int(otpLength.Load()))
	})
	return v
}

// ValidateStruct returns a field -> message map, or nil when data is valid.
func ValidateStruct(data any) map[string]string {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, err := range validationErrors {
			errors[err.Field()] = getErrorMessage(err)
		}
	}

	return errors
}

// converts validator errors to human-readable messages
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Valid email is required"
	case "min":
		return fmt.Sprintf("Minimum length is %s", err.Param())
	case "max":
		return fmt.Sprintf("Maximum length is %s", err.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", err.Param())
	case "numeric":
		return "Must contain digits only"
	case "otp":
		return fmt.Sprintf("Must be a %d-digit code", otpLength.Load())
	case "iso8601":
		return "Valid date is required (YYYY-MM-DD or RFC3339)"
	default:
		return fmt.Sprintf("Invalid %s field", err.Field())
	}
}

// isOTPCode reports whether s is exactly n ASCII digits.
func isOTPCode(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
