package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationErrorResponse represents a validation error with field-level details
type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Global validator instance (reused across all handlers)
var validate = validator.New()

// ValidateRequest validates a request struct using go-playground/validator
// Returns a user-friendly error message if validation fails
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			var errors []ValidationErrorResponse
			for _, fieldError := range ve {
				errors = append(errors, ValidationErrorResponse{
					Field:   fieldError.Field(),
					Message: formatValidationError(fieldError),
				})
			}
			// Return first error for simple handling
			if len(errors) > 0 {
				return fmt.Errorf("validation failed: %s: %s",
					errors[0].Field,
					errors[0].Message)
			}
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// FormOutcome classifies a public form submission. The bot outcome exists
// so handlers branch server-side while the HTTP response stays
// success-shaped; the distinction must never reach the client.
type FormOutcome int

const (
	FormAccepted FormOutcome = iota
	FormRejectedInvalid
	FormRejectedBot
)

// HoneypotCarrier is implemented by form DTOs carrying the hidden field
type HoneypotCarrier interface {
	HoneypotValue() string
}

// ValidateForm applies schema validation plus the hidden-field bot check.
// Any value in the hidden field wins over validation errors: a bot gets
// the deceptive success path, never a field-level error to learn from.
func ValidateForm(req HoneypotCarrier) (FormOutcome, error) {
	if req.HoneypotValue() != "" {
		return FormRejectedBot, nil
	}
	if err := ValidateRequest(req); err != nil {
		return FormRejectedInvalid, err
	}
	return FormAccepted, nil
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
