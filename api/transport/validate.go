package transport

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/fastygo/taskboard/domain"
)

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "schema"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
}

// Validate checks req against its struct tags. Failures are returned as
// INVALID domain errors naming each offending field.
func Validate(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}
	messages := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		messages = append(messages, ve.Field()+": "+describe(ve))
	}
	return domain.WrapError(domain.ErrCodeInvalid, strings.Join(messages, "; "), domain.ErrInvalidPayload)
}

// DecodeValues fills dst from form or query values.
func DecodeValues(dst interface{}, values map[string][]string) error {
	if err := schemaDecoder.Decode(dst, values); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "failed to decode parameters", err)
	}
	return nil
}

func describe(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	default:
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
