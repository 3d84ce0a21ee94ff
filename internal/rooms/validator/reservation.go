package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"posada/pkg/logger"
	"posada/pkg/model"

	"github.com/go-playground/validator/v10"
)

const maxStayNights = 60

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	return &ReservationValidator{
		validate: validator.New(),
		logger:   log,
	}
}

// Validate checks the request shape, then the normalized intent's domain
// rules. The parsed dates are re-derived here so validation cannot drift from
// what the service submits.
func (v *ReservationValidator) Validate(req *model.RoomReservationRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	intent, err := req.Intent()
	if err != nil {
		return ValidationErrors{
			ValidationError{Field: "EndDate", Message: err.Error()},
		}
	}

	if nights := intent.Nights(); nights < 1 {
		return ValidationErrors{
			ValidationError{Field: "EndDate", Message: "stay must be at least one night"},
		}
	} else if nights > maxStayNights {
		return ValidationErrors{
			ValidationError{Field: "EndDate", Message: fmt.Sprintf("stay must be at most %d nights", maxStayNights)},
		}
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if intent.StartDate.Before(today) {
		return ValidationErrors{
			ValidationError{Field: "StartDate", Message: "start_date cannot be in the past"},
		}
	}

	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must match the format %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
