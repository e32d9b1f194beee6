package bind

import (
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"

	perr "transitplan/internal/platform/errors"
	"transitplan/internal/platform/logger"
)

// query fields are named by their json tag so one DTO serves bodies and query strings
var queryDecoder = func() *form.Decoder {
	d := form.NewDecoder()
	d.SetTagName("json")
	return d
}()

// ParseQuery decodes the query string into T by json tag name, then validates it
// list fields accept repeated keys or comma separated values; unknown keys are ignored
func ParseQuery[T any](r *http.Request) (T, error) {
	var zero, dst T
	vals := splitLists(r.URL.Query(), reflect.TypeOf(dst))
	if err := queryDecoder.Decode(&dst, vals); err != nil {
		return zero, queryError(err)
	}
	if err := Validate(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

// Validate checks v against its validate tags
// a failure is a validation error carrying the offending field
func Validate(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	if inv, ok := err.(*validator.InvalidValidationError); ok {
		logger.Get().Error().Err(inv).Msg("validator internal error")
		return perr.InvalidArgf("validation error")
	}
	field, msg := ValidationFieldAndMessage(err)
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", msg), field)
}

// queryError reports the first undecodable key, by name, as a validation error
func queryError(err error) error {
	derrs, ok := err.(form.DecodeErrors)
	if !ok || len(derrs) == 0 {
		logger.Get().Error().Err(err).Msg("query decoder error")
		return perr.InvalidArgf("query decode error")
	}
	keys := make([]string, 0, len(derrs))
	for k := range derrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	key := keys[0]
	field := key
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s: %v", key, derrs[key]), field)
}

// splitLists expands comma separated values of slice fields into repeated keys
// and trims scalars, leaving vals untouched
func splitLists(vals url.Values, t reflect.Type) url.Values {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	lists := map[string]bool{}
	if t != nil && t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.IsExported() && sf.Type.Kind() == reflect.Slice {
				lists[jsonName(sf)] = true
			}
		}
	}

	out := make(url.Values, len(vals))
	for k, vs := range vals {
		for _, v := range vs {
			if !lists[k] {
				out[k] = append(out[k], strings.TrimSpace(v))
				continue
			}
			for _, p := range strings.Split(v, ",") {
				if p = strings.TrimSpace(p); p != "" {
					out[k] = append(out[k], p)
				}
			}
		}
	}
	return out
}
