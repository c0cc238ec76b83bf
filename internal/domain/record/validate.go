package record

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate проверяет запись по правилам ее типа.
func Validate(r Record) error {
	if r == nil {
		return ErrMalformedRecord
	}
	if err := validate.Struct(r); err != nil {
		fields := ValidationErrors(err)
		if len(fields) == 0 {
			return fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return fmt.Errorf("%w: %s", ErrInvalidData, describe(fields))
	}
	return nil
}

// ValidationErrors превращает ошибку валидатора в карту поле -> правило.
func ValidationErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	errorResponse := make(map[string]string, len(validationErrors))
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func describe(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" ("+fields[name]+")")
	}
	return strings.Join(parts, ", ")
}
