package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Tesudeix/Yuki/internal/apperr"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var errNoValidatorEngine = errors.New("gin validator engine is not go-playground/validator")

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// RegisterValidators installs calendar_date and clock_time on gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errNoValidatorEngine
	}
	return register(v)
}

func register(v *validator.Validate) error {
	if err := v.RegisterValidation("calendar_date", validateCalendarDate); err != nil {
		return err
	}
	return v.RegisterValidation("clock_time", validateClockTime)
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	return IsCalendarDate(fl.Field().String())
}

func validateClockTime(fl validator.FieldLevel) bool {
	return IsClockTime(fl.Field().String())
}

// IsCalendarDate reports whether s is a real day written as YYYY-MM-DD.
func IsCalendarDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsClockTime reports whether s is HH:MM between 00:00 and 23:59.
func IsClockTime(s string) bool {
	if len(s) != len(TimeLayout) {
		return false
	}
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}

// ParseID parses a reference id, rejecting malformed input as invalid_input.
func ParseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.InvalidInput("invalid " + field)
	}
	return id, nil
}

func FieldErrors(verrs validator.ValidationErrors) []ValidationError {
	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "uuid":
		return fe.Field() + " must be a valid id"
	case "calendar_date":
		return fe.Field() + " must be a date in YYYY-MM-DD format"
	case "clock_time":
		return fe.Field() + " must be a time in HH:MM format"
	case "dive":
		return fe.Field() + " has an invalid element"
	default:
		return fe.Field() + " is invalid"
	}
}
