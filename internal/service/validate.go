package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/sakif/user-service/internal/apperror"
	"github.com/sakif/user-service/internal/model"
)

// validate is shared: validator.Validate caches struct metadata and is
// safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report the JSON name ("first_name"), not the Go name ("FirstName").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// ValidateUserInput checks that every required field was present in the
// payload. Content is not inspected: an empty email or a one-letter
// password is accepted as-is.
func ValidateUserInput(in model.UserInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	return apperror.ValidationErrors(lo.Map(verrs, func(fe validator.FieldError, _ int) *apperror.AppError {
		return fieldError(fe)
	}))
}

func fieldError(fe validator.FieldError) *apperror.AppError {
	loc := []string{"body", fe.Field()}

	switch fe.Tag() {
	case "required":
		return apperror.ValidationFailed(loc, "value_error.missing", "field required")
	default:
		return apperror.ValidationFailed(loc, "value_error", fe.Error())
	}
}
