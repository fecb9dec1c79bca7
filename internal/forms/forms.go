// Package forms validates user-submitted login and registration forms.
// Validation runs before any network call; a failing form never reaches the
// remote auth service.
package forms

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Login is the login form.
type Login struct {
	Username string `validate:"required,min=6"`
	Password string `validate:"required,min=6"`
}

// Registration is the account creation form. Confirm must repeat Password.
type Registration struct {
	Username string `validate:"required,min=6"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Confirm  string `validate:"required,eqfield=Password"`
}

// ValidationError aggregates per-field messages for inline display.
type ValidationError struct {
	// Fields maps the lowercased field name to a user-facing message.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, e.Fields[name])
	}
	return strings.Join(parts, "; ")
}

// Validate checks a form struct against its validation tags. On failure it
// returns a *ValidationError with one message per failing field.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		fields[field] = fieldMessage(field, fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "eqfield":
		return "passwords must match"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
