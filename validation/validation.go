// Package validation checks form input and reports problems per field.
// Results never leave the caller that asked for them; an empty Errors means
// the form is valid.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a form field name to a user-facing message.
type Errors map[string]string

func (e Errors) Valid() bool { return len(e) == 0 }

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,20}$`)

var (
	validate   = newValidator()
	emailCheck = validator.New()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields under their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return usernamePattern.MatchString(value) || isEmail(value)
	})
	return v
}

func isEmail(value string) bool {
	return emailCheck.Var(value, "required,email") == nil
}

// messages is keyed by "field.tag"; "*.tag" entries apply to any field.
type messages map[string]string

func (m messages) lookup(fe validator.FieldError) string {
	if msg, ok := m[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := m["*."+fe.Tag()]; ok {
		return msg
	}
	return fe.Field() + " is invalid"
}

func run(form any, msgs messages) Errors {
	errs := Errors{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["form"] = err.Error()
		return errs
	}
	for _, fe := range fieldErrs {
		if _, seen := errs[fe.Field()]; seen {
			continue
		}
		errs[fe.Field()] = msgs.lookup(fe)
	}
	return errs
}
