// Package bind decodes request bodies and query strings into planning DTOs and validates them
package bind

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	perr "transitplan/internal/platform/errors"
	"transitplan/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// MaxBody caps a JSON request body
const MaxBody = 1 << 20

// ValidatorSvc holds the validator and its english translator
type ValidatorSvc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *ValidatorSvc
)

// planning tags, each with a short english message
var planningTags = []struct {
	tag string
	msg string
	fn  validator.Func
}{
	{"shift", "{0} must be a shift between 1 and 3", intBetween(1, 3)},
	{"weekday", "{0} must be a weekday code between 0 and 6", intBetween(0, 6)},
	{"resolution", "{0} must be skip or overwrite", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "skip" || s == "overwrite"
	}},
	{"service_date", "{0} must be a date formatted YYYY-MM-DD", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	}},
}

func intBetween(lo, hi int64) validator.Func {
	return func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= lo && n <= hi
	}
}

// Get returns the validator singleton
// messages name fields by their json tag
func Get() *ValidatorSvc {
	vOnce.Do(func() {
		loc := en.New()
		trans, _ := ut.New(loc, loc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		translate(v, trans, "min", "{0} must be at least {1}", true)
		translate(v, trans, "max", "{0} must be at most {1}", true)
		for _, t := range planningTags {
			_ = v.RegisterValidation(t.tag, t.fn)
			translate(v, trans, t.tag, t.msg, false)
		}

		vSvc = &ValidatorSvc{Validator: v, Translator: trans}
	})
	return vSvc
}

func jsonName(fld reflect.StructField) string {
	tag := fld.Tag.Get("json")
	if i := strings.Index(tag, ","); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" || tag == "-" {
		return fld.Name
	}
	return tag
}

func translate(v *validator.Validate, trans ut.Translator, tag, text string, withParam bool) {
	_ = v.RegisterTranslation(tag, trans,
		func(u ut.Translator) error { return u.Add(tag, text, true) },
		func(u ut.Translator, fe validator.FieldError) string {
			var msg string
			if withParam {
				msg, _ = u.T(tag, fe.Field(), fe.Param())
			} else {
				msg, _ = u.T(tag, fe.Field())
			}
			return msg
		},
	)
}

// ParseJSON decodes a single JSON object into T and validates it
// unknown fields, trailing data and bodies over MaxBody are rejected
func ParseJSON[T any](r *http.Request) (T, error) {
	var zero, dst T
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.Get().Warn().Err(err).Msg("failed to close request body")
		}
	}()

	peek := make([]byte, 1)
	n, _ := r.Body.Read(peek)
	if n == 0 {
		if r.Method == http.MethodGet || r.Method == http.MethodDelete {
			return zero, nil
		}
		return zero, perr.JSONErrf("empty body")
	}
	body := io.MultiReader(bytes.NewReader(peek[:n]), r.Body)

	dec := json.NewDecoder(io.LimitReader(body, MaxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dst); err != nil {
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	if err := Validate(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

// ValidationFieldAndMessage returns the first failing field and its translated message
func ValidationFieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return verrs[0].Field(), verrs[0].Translate(Get().Translator)
	}
	return "", err.Error()
}
