package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/syntura/hms/internal/platform/apperr"
)

// Validator adapts go-playground/validator to echo.Validator. Field names in
// error messages use the struct's json tags.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate reports the first failing field as a validation error.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Invalid("%s", err.Error())
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return apperr.Required(fe.Field())
	case "email":
		return apperr.Invalid("%s must be a valid email address", fe.Field())
	case "oneof":
		return apperr.Invalid("%s must be one of: %s", fe.Field(), fe.Param())
	case "min", "gte":
		return apperr.Invalid("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return apperr.Invalid("%s is invalid", fe.Field())
	}
}

// Bind decodes the request into v and validates it when the server has a
// validator installed. Decode failures are reported as validation errors.
func Bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Internal != nil {
			return apperr.Invalid("Invalid request body: %v", he.Internal)
		}
		return apperr.Invalid("Invalid request body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(v)
}
