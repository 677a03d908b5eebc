package httpserver

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationFields turns validator errors into a json-path -> messages map,
// e.g. "items[0].resource": ["failed on oneof"].
func validationFields(err error) map[string][]string {
	out := map[string][]string{}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		out["body"] = []string{err.Error()}
		return out
	}
	for _, fe := range ves {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		msg := "failed on " + fe.Tag()
		if fe.Param() != "" {
			msg += " " + fe.Param()
		}
		out[ns] = append(out[ns], msg)
	}
	return out
}
