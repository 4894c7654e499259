package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	pkghttp "github.com/BradenHooton/taskvault/pkg/http"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so violations match the request body
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidationError carries every field violation found in a request
type ValidationError struct {
	Fields []pkghttp.FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateRequest runs struct tag validation and returns a *ValidationError
// when any field is rejected
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	verr := &ValidationError{Fields: make([]pkghttp.FieldViolation, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, pkghttp.FieldViolation{
			Field:   fe.Field(),
			Message: describe(fe),
		})
	}
	return verr
}

// writeValidationFailure writes the 400 for an error from ValidateRequest
func writeValidationFailure(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		pkghttp.WriteValidationError(w, verr.Fields)
		return
	}
	pkghttp.WriteBadRequest(w, "Invalid request")
}

func describe(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "numeric":
		return "must contain only digits"
	case "len":
		return "must be exactly " + param + " characters"
	case "min":
		return "must be at least " + param + " characters"
	case "max":
		return "must be at most " + param + " characters"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "gte":
		return "must be " + param + " or greater"
	case "lte":
		return "must be " + param + " or less"
	}
	return "failed " + fe.Tag() + " check"
}
