package pricing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrAmbiguousConstantPrice = errors.New("constant price package has more than one price period")

// ValidationError collects every rejected input field of a quote.
type ValidationError struct {
	fields map[string][]string
}

func newValidationError() *ValidationError {
	return &ValidationError{fields: make(map[string][]string)}
}

func IsValidationError(err error) *ValidationError {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

func (ve *ValidationError) add(field, msg string) {
	ve.fields[field] = append(ve.fields[field], msg)
}

func (ve *ValidationError) orNil() error {
	if len(ve.fields) == 0 {
		return nil
	}
	return ve
}

func (ve *ValidationError) Error() string {
	keys := make([]string, 0, len(ve.fields))
	for k := range ve.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(ve.fields[k], ", ")))
	}
	return "invalid quote input: " + strings.Join(parts, "; ")
}

func (ve *ValidationError) Fields() map[string][]string {
	return ve.fields
}

// FieldError reports a single rejected field as a ValidationError.
func FieldError(field, msg string) error {
	ve := newValidationError()
	ve.add(field, msg)
	return ve
}
