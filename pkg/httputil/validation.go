package httputil

import (
	"github.com/go-playground/validator/v10"

	"github.com/pravodoc/pravodoc-backend/pkg/errors"
	"github.com/pravodoc/pravodoc-backend/pkg/i18n"
)

var validate = validator.New()

// Validate validates a struct using go-playground/validator
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.BadRequest(err.Error())
		}

		details := make(map[string]string)
		for _, e := range validationErrors {
			details[e.Field()] = formatValidationError(e)
		}

		return errors.Validation(details)
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	params := map[string]string{"param": e.Param()}
	switch e.Tag() {
	case "required", "min", "max", "gt", "oneof", "datetime":
		return i18n.T("validation."+e.Tag(), params)
	default:
		return i18n.T("validation.invalid")
	}
}
