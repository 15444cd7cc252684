package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	registerRules(validate)
}

func registerRules(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("user_type", validateUserType)
}

// RegisterGinValidators applies the same field naming and custom rules to
// gin's binding validator.
func RegisterGinValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerRules(v)
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		name = strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
	}
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateUserType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "rider" || value == "driver"
}

// ValidationDetails flattens validator errors into field -> message pairs.
// It returns nil for errors that are not validation errors.
func ValidationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = describeFieldError(fieldErr)
	}
	return details
}

func describeFieldError(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fieldErr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fieldErr.Param())
	case "latitude":
		return "must be a valid latitude"
	case "longitude":
		return "must be a valid longitude"
	case "user_type":
		return "must be rider or driver"
	default:
		return fmt.Sprintf("failed %s validation", fieldErr.Tag())
	}
}

// BindingError converts a request binding failure into a validation AppError.
func BindingError(err error) *AppError {
	if details := ValidationDetails(err); details != nil {
		return ValidationError(ErrValidationFailed, details)
	}
	return ValidationError(ErrInvalidInput, map[string]string{"body": err.Error()})
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
