package services

import (
	"errors"
	"reflect"
	"strings"

	"timesheet/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so messages match request bodies.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// validateInput checks struct tags and converts the first failure into a
// validation AppError.
func validateInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperror.Validation("%s is required", field)
	case "email":
		return apperror.Validation("%s must be a valid email address", field)
	case "oneof":
		return apperror.Validation("%s must be one of: %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return apperror.Validation("%s must be at least %s characters", field, fe.Param())
		}
		return apperror.Validation("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return apperror.Validation("%s must be at most %s characters", field, fe.Param())
		}
		return apperror.Validation("%s must be at most %s", field, fe.Param())
	default:
		return apperror.Validation("%s is invalid", field)
	}
}
