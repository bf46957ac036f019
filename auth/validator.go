package auth

import (
	"app-chat/errors"
	goerrors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength mirrors the hosted provider's own minimum so that a
// too-short password is refused before any network call.
const MinPasswordLength = 6

var validate = validator.New()

type SignUpRequest struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type LogInRequest struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

func ValidateSignUp(req SignUpRequest) error {
	return check(req)
}

func ValidateLogIn(req LogInRequest) error {
	return check(req)
}

// check maps the first failing rule onto the matching sentinel error.
func check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !goerrors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err
	}
	fe := fieldErrors[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s", errors.ErrEmptyField, fe.Field())
	case "email":
		return fmt.Errorf("%w: %q", errors.ErrInvalidEmail, fe.Value())
	case "min":
		return fmt.Errorf("%w: at least %d characters", errors.ErrPasswordTooShort, MinPasswordLength)
	default:
		return fmt.Errorf("%s failed on %s", fe.Field(), fe.Tag())
	}
}
