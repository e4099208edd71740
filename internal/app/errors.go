package app

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/jobplus/internal/types"
)

// ErrUnknownItem is returned when a favorite toggle names an item that is not displayed.
var ErrUnknownItem = errors.New("item is not in the current list")

// ValidationError describes rejected form input. Message is what the user sees.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidateRegistration checks the registration form. Missing fields are reported
// before a malformed username.
func ValidateRegistration(req types.RegisterRequest) error {
	err := req.Validate()
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return &ValidationError{Field: fe.Field(), Message: MsgMissingField}
		}
	}
	return &ValidationError{Field: fieldErrs[0].Field(), Message: MsgInvalidUsername}
}
