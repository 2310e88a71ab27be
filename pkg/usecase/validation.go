package usecase

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput runs struct tag validation and reports failures as ErrValidation
func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return goerr.Wrap(err, "failed to validate input")
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+":"+fe.Tag())
	}
	return goerr.Wrap(ErrValidation, "invalid input: "+strings.Join(fields, ", "),
		goerr.V("fields", fields))
}
