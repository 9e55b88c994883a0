// Package validate decodes raw documents into typed configurations and checks
// their struct-tag schemas. Violations are reported as one message list per
// field path, using the JSON names the caller sent.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error maps a dotted field path to the messages raised for it.
type Error struct {
	Fields map[string][]string
}

func (e *Error) Error() string {
	paths := make([]string, 0, len(e.Fields))
	for p := range e.Fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		parts = append(parts, fmt.Sprintf("%s: %s", p, strings.Join(e.Fields[p], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Field builds an Error for a single field.
func Field(path, message string) *Error {
	return &Error{Fields: map[string][]string{path: {message}}}
}

func (e *Error) add(path, message string) {
	e.Fields[path] = append(e.Fields[path], message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
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

// Decode converts doc into out and validates it.
func Decode(doc interface{}, out interface{}) error {
	if doc == nil {
		doc = map[string]interface{}{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return DecodeJSON(raw, out)
}

// DecodeJSON unmarshals raw into out and validates it.
func DecodeJSON(raw []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			path := typeErr.Field
			if path == "" {
				path = "__root__"
			}
			return Field(path, fmt.Sprintf("value is not a valid %s", typeErr.Type))
		}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return Field("__root__", "malformed JSON document")
		}
		return Field("__root__", err.Error())
	}
	return Struct(out)
}

// Struct validates an already populated value. Values that are not structs
// carry no schema and always pass.
func Struct(v interface{}) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := &Error{Fields: make(map[string][]string)}
	for _, fe := range fieldErrs {
		out.add(fieldPath(fe), message(fe))
	}
	return out
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "url", "http_url":
		return "invalid or missing URL scheme"
	case "numeric":
		return "this field must contain a number"
	case "endswith":
		return fmt.Sprintf("value has to end with %s", fe.Param())
	case "json":
		return "could not parse invalid JSON object"
	case "oneof":
		return fmt.Sprintf("value has to be one of: %s", fe.Param())
	case "min":
		return fmt.Sprintf("ensure this value is at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("ensure this value is at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
