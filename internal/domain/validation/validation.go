// Package validation turns raw request payloads into normalized domain
// values. It performs no I/O and never panics: failures are returned as a
// *Rejection listing every failing field and the rule it failed.
package validation

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/flencrypto/cfs-platform/internal/domain/apperr"
	"github.com/flencrypto/cfs-platform/internal/domain/model"
	"github.com/go-playground/validator/v10"
)

// Rejection enumerates the failing fields of one payload.
type Rejection struct {
	Op     string
	Issues []apperr.FieldIssue
}

// Err converts the rejection into a ValidationError.
func (r *Rejection) Err() error {
	if r == nil {
		return nil
	}
	return apperr.Invalid(r.Op, r.Issues)
}

// Has reports whether field failed any rule.
func (r *Rejection) Has(field string) bool {
	if r == nil {
		return false
	}
	for _, is := range r.Issues {
		if is.Field == field {
			return true
		}
	}
	return false
}

func (r *Rejection) add(field, rule, msg string) {
	r.Issues = append(r.Issues, apperr.FieldIssue{Field: field, Rule: rule, Message: msg})
}

func (r *Rejection) orNil() *Rejection {
	if len(r.Issues) == 0 {
		return nil
	}
	return r
}

var validate = newValidator() //nolint:gochecknoglobals // validator caches struct metadata and is safe for concurrent use

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("contest_type", func(fl validator.FieldLevel) bool {
		return model.ContestType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("contest_status", func(fl validator.FieldLevel) bool {
		return model.ContestStatus(fl.Field().String()).Valid()
	})
	return v
}

// check runs struct-tag rules on in and records failures under prefix,
// skipping fields that already failed coercion.
func (r *Rejection) check(in any, prefix string, skip map[string]bool) {
	err := validate.Struct(in)
	if err == nil {
		return
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		r.add(strings.TrimSuffix(prefix, "."), "invalid", err.Error())
		return
	}
	for _, fe := range ves {
		name := prefix + fe.Field()
		if skip[name] {
			continue
		}
		r.add(name, fe.Tag(), describe(fe))
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "url":
		return "must be a valid URL"
	case "contest_type":
		return "must be one of DAILY, WEEKLY, SEASONAL, HEAD_TO_HEAD, TOURNAMENT, MULTIPLIER"
	case "contest_status":
		return "must be one of DRAFT, ACTIVE, LOCKED, SETTLED, CANCELLED"
	default:
		return "failed " + fe.Tag()
	}
}

// reader coerces loosely typed JSON values. JSON null counts as absent.
type reader struct {
	raw    map[string]any
	prefix string
	rej    *Rejection
	failed map[string]bool
	seen   int
}

func newReader(raw map[string]any, prefix string, rej *Rejection) *reader {
	return &reader{raw: raw, prefix: prefix, rej: rej, failed: map[string]bool{}}
}

func (rd *reader) get(key string) (any, bool) {
	v, ok := rd.raw[key]
	if !ok || v == nil {
		return nil, false
	}
	rd.seen++
	return v, true
}

func (rd *reader) fail(key, rule, msg string) {
	name := rd.prefix + key
	rd.failed[name] = true
	rd.rej.add(name, rule, msg)
}

func (rd *reader) str(key string) *string {
	v, ok := rd.get(key)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		rd.fail(key, "string", "must be a string")
		return nil
	}
	return &s
}

func (rd *reader) trimmed(key string) *string {
	s := rd.str(key)
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func (rd *reader) number(key string) *float64 {
	v, ok := rd.get(key)
	if !ok {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		rd.fail(key, "number", "must be a number")
		return nil
	}
	return &f
}

func (rd *reader) integer(key string) *int {
	v, ok := rd.get(key)
	if !ok {
		return nil
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		rd.fail(key, "integer", "must be an integer")
		return nil
	}
	n := int(f)
	return &n
}

func (rd *reader) boolean(key string) *bool {
	v, ok := rd.get(key)
	if !ok {
		return nil
	}
	switch b := v.(type) {
	case bool:
		return &b
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return &parsed
		}
	}
	rd.fail(key, "boolean", "must be a boolean")
	return nil
}

func (rd *reader) timestamp(key string) *time.Time {
	v, ok := rd.get(key)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if ok {
		if ts, ok := parseTime(s); ok {
			return &ts
		}
	}
	rd.fail(key, "datetime", "must be an RFC 3339 timestamp")
	return nil
}

func (rd *reader) object(key string) map[string]any {
	v, ok := rd.get(key)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		rd.fail(key, "object", "must be an object")
		return nil
	}
	return m
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} //nolint:gochecknoglobals // read-only

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
