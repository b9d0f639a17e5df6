// Package validation runs declarative struct-tag predicates and turns the
// failures into one human-readable message per field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// youtubePattern accepts youtube.com and youtu.be links with or without scheme.
var youtubePattern = regexp.MustCompile(`^(https?://)?(www\.youtube\.com|youtu\.?be)/.+$`)

// IsYouTubeURL reports whether s looks like a YouTube link.
func IsYouTubeURL(s string) bool { return youtubePattern.MatchString(s) }

// Messager lets a request type override messages. Keys are "field.tag".
type Messager interface {
	Messages() map[string]string
}

// defaultMessages is used when the request type has no override for a tag.
var defaultMessages = map[string]string{
	"required":    "The field '%s' is required.",
	"required_if": "The field '%s' is required.",
	"notblank":    "The field '%s' cannot be blank.",
	"email":       "The field '%s' must be a valid email address.",
	"min":         "The field '%s' must be at least %s characters long.",
	"max":         "The field '%s' must be no longer than %s characters.",
	"oneof":       "The field '%s' must be one of %s.",
	"youtube_if":  "The field '%s' must be a YouTube URL.",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Error keys follow the wire name: an explicit `name` tag, else the json tag.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if n := f.Tag.Get("name"); n != "" {
			return n
		}
		n := strings.Split(f.Tag.Get("json"), ",")[0]
		if n == "" || n == "-" {
			return f.Name
		}
		return n
	})
	if err := v.RegisterValidation("youtube_if", youtubeIf); err != nil {
		panic(err)
	}
	return v
}

// youtubeIf implements `youtube_if=Field value`: when the sibling Field equals
// value, a non-empty string must be a YouTube URL. Emptiness is left to
// required_if so each case gets its own message.
func youtubeIf(fl validator.FieldLevel) bool {
	parts := strings.Fields(fl.Param())
	if len(parts) != 2 {
		return false
	}
	parent := reflect.Indirect(fl.Parent())
	sib := parent.FieldByName(parts[0])
	if !sib.IsValid() || sib.Kind() != reflect.String || sib.String() != parts[1] {
		return true
	}
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return IsYouTubeURL(s)
}

// Struct validates s (a pointer to a struct) and returns the first failing
// message of every invalid field, keyed by wire name. An empty map means valid.
func Struct(s any) map[string]string {
	out := map[string]string{}
	err := validate.Struct(s)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}
	var overrides map[string]string
	if m, ok := s.(Messager); ok {
		overrides = m.Messages()
	}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, fe, overrides)
	}
	return out
}

func message(field string, fe validator.FieldError, overrides map[string]string) string {
	if msg, ok := overrides[field+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := overrides[field]; ok {
		return msg
	}
	if tmpl, ok := defaultMessages[fe.Tag()]; ok {
		if strings.Count(tmpl, "%s") == 2 {
			return fmt.Sprintf(tmpl, field, fe.Param())
		}
		return fmt.Sprintf(tmpl, field)
	}
	return fmt.Sprintf("Field '%s' is invalid: %s", field, fe.Tag())
}
