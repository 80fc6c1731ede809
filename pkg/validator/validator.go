package validator

import (
	"errors"
	"fmt"
	"strings"

	"anoa.com/campusfeedback/pkg/apperror"
	"github.com/go-playground/validator/v10"
)

// BindingError converts a gin binding failure into a validation AppError.
func BindingError(err error) *apperror.AppError {
	return apperror.Validation(apperror.CodeValidation, FormatValidationError(err))
}

func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Email":           "Email",
		"Password":        "Password",
		"Role":            "Role",
		"Name":            "Name",
		"DisplayName":     "Display name",
		"Content":         "Content",
		"Category":        "Category",
		"Reason":          "Reason",
		"Days":            "Suspension days",
		"TargetFacultyID": "Target faculty",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
