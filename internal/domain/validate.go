package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name when one is declared.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return strings.ToLower(f.Name)
		}
		return name
	})
	// PostgreSQL text columns cannot store U+0000.
	_ = v.RegisterValidation("nonul", func(fl validator.FieldLevel) bool {
		return !strings.ContainsRune(fl.Field().String(), 0)
	})
	return v
}

// ValidateStruct runs the `validate` tags of s and converts failures into a
// *ValidationError.
func ValidateStruct(s any) error {
	return convert(validate.Struct(s), "")
}

// ValidateVar validates a single value against a tag expression.
func ValidateVar(v any, tag string) error {
	return convert(validate.Var(v, tag), "value")
}

func convert(err error, field string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if field != "" {
			name = field
		}
		fields[name] = message(fe)
	}
	return &ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "nonul":
		return "must not contain NUL characters"
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

func varMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields["value"]
	}
	return err.Error()
}
