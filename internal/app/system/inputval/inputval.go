// Package inputval validates form and API input structs with
// go-playground/validator and turns failures into user-facing messages.
//
// Struct fields declare rules with `validate:"..."` and a display name with
// `label:"..."`:
//
//	type registerInput struct {
//	    Name       string `validate:"required,max=100" label:"Name"`
//	    BloodGroup string `validate:"required,bloodgroup" label:"Blood group"`
//	}
package inputval

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/go-playground/validator/v10"
)

// emailRe is deliberately loose: local@domain.tld with no whitespace.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// phoneRe accepts an optional leading + and 7 to 15 digits (after normalize.Phone).
var phoneRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			return f.Name
		})
		must(v.RegisterValidation("bloodgroup", func(fl validator.FieldLevel) bool {
			return models.IsBloodGroup(fl.Field().String())
		}))
		must(v.RegisterValidation("district", func(fl validator.FieldLevel) bool {
			return models.IsDistrict(fl.Field().String())
		}))
		must(v.RegisterValidation("urgency", func(fl validator.FieldLevel) bool {
			_, ok := models.ParseUrgency(fl.Field().String())
			return ok
		}))
		must(v.RegisterValidation("simpleemail", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		}))
		must(v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phoneRe.MatchString(fl.Field().String())
		}))
		validate = v
	})
	return validate
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// IsValidEmail reports whether s has the basic local@domain.tld shape.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string // struct field name
	Message string // sentence shown to the user
}

// Result holds the outcome of Validate.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Err converts the result to an *apperr.ValidationError, or nil when valid.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	fes := make([]apperr.FieldError, len(r.Errors))
	for i, e := range r.Errors {
		fes[i] = apperr.FieldError{Field: e.Field, Message: e.Message}
	}
	return apperr.NewValidationErrors(fes)
}

// Validate runs the struct's rules.
func Validate(s any) *Result {
	res := &Result{}
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.StructField(),
			Message: message(fe),
		})
	}
	return res
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "email", "simpleemail":
		return "A valid email address is required."
	case "bloodgroup":
		return "Please choose a valid blood group."
	case "district":
		return "Please choose a valid district."
	case "urgency":
		return "Urgency must be low, medium, high or critical."
	case "phone":
		return label + " must be a valid phone number."
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, fe.Param())
	case "eqfield":
		return label + " does not match."
	default:
		return label + " is invalid."
	}
}
