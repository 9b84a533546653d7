package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/campus-booking/internal/application"
)

// requestValidator runs struct-tag validation over decoded request bodies and
// translates failures into the application's field-error shape. Tag failures
// look up a message under "field.tag" first, then "field".
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return requestValidator{validate: v}
}

func (rv requestValidator) check(req any, messages map[string]string) error {
	err := rv.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	vErr := &application.ValidationError{}
	for _, fe := range fieldErrs {
		field := fe.Field()
		if msg, ok := messages[field+"."+fe.Tag()]; ok {
			vErr.Add(field, msg)
			continue
		}
		if msg, ok := messages[field]; ok {
			vErr.Add(field, msg)
			continue
		}
		vErr.Add(field, field+" is invalid")
	}
	return vErr
}
