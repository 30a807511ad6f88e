package service

import (
	"errors"
	"strings"

	"task_manager/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validationError converts the first validator failure into a domain.ValidationError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return domain.NewValidationError(field, fe.Field()+" is required")
	case "email":
		return domain.NewValidationError(field, "Please provide a valid email")
	case "max":
		return domain.NewValidationError(field, fe.Field()+" must be at most "+fe.Param()+" characters")
	default:
		return domain.NewValidationError(field, fe.Field()+" is invalid")
	}
}

const invalidStatusMessage = "Invalid status. Must be: Todo, In Progress, or Completed"

func checkStatus(s domain.Status) error {
	if !s.Valid() {
		return domain.NewValidationError("status", invalidStatusMessage)
	}
	return nil
}
