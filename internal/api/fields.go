package api

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// Field mapping between Go structs and the wire format is declared with
// `api` struct tags:
//
//	Name     string `api:"name,filterable"`
//	SubmitAs string `api:"submitAs,filterable"`
//	Active   bool   `api:"active,readonly"`
//
// The tag value is the wire name (defaults to the field name with its first
// rune lowered). "filterable" marks the field usable in list filters;
// "readonly" excludes it from write bodies; "-" skips the field entirely.

type fieldSpec struct {
	index      int
	goName     string
	paramName  string // snake_case of the Go name, used as the filter key
	apiName    string
	filterable bool
	readonly   bool
}

var fieldSpecCache sync.Map // reflect.Type -> []fieldSpec

// fieldsOf returns the declared fields of a resource struct type, memoized
// per type.
func fieldsOf(t reflect.Type) []fieldSpec {
	if cached, ok := fieldSpecCache.Load(t); ok {
		return cached.([]fieldSpec)
	}

	var specs []fieldSpec
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous || !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("api")
		if tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		spec := fieldSpec{
			index:     i,
			goName:    f.Name,
			paramName: snakeCase(f.Name),
			apiName:   parts[0],
		}
		if spec.apiName == "" {
			spec.apiName = lowerFirst(f.Name)
		}
		for _, opt := range parts[1:] {
			switch opt {
			case "filterable":
				spec.filterable = true
			case "readonly":
				spec.readonly = true
			}
		}
		specs = append(specs, spec)
	}

	fieldSpecCache.Store(t, specs)
	return specs
}

// filterableFields maps filter keys (snake_case Go names) to wire names for
// the fields declared filterable on t.
func filterableFields(t reflect.Type) map[string]string {
	out := make(map[string]string)
	for _, spec := range fieldsOf(t) {
		if spec.filterable {
			out[spec.paramName] = spec.apiName
		}
	}
	return out
}

// formValues encodes the writable, non-zero fields of a resource struct as
// form values keyed by wire name.
func formValues(v any) url.Values {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	vals := url.Values{}
	for _, spec := range fieldsOf(rv.Type()) {
		if spec.readonly {
			continue
		}
		fv := rv.Field(spec.index)
		switch fv.Kind() {
		case reflect.String:
			if s := fv.String(); s != "" {
				vals.Set(spec.apiName, s)
			}
		case reflect.Bool:
			if fv.Bool() {
				vals.Set(spec.apiName, "true")
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if n := fv.Int(); n != 0 {
				vals.Set(spec.apiName, strconv.FormatInt(n, 10))
			}
		case reflect.Float32, reflect.Float64:
			if f := fv.Float(); f != 0 {
				vals.Set(spec.apiName, strconv.FormatFloat(f, 'f', -1, 64))
			}
		case reflect.Slice:
			if fv.Type().Elem().Kind() == reflect.String {
				for j := 0; j < fv.Len(); j++ {
					vals.Add(spec.apiName, fv.Index(j).String())
				}
			}
		}
	}
	return vals
}

// FieldValues renders the writable, non-zero fields of a resource keyed by
// wire name, for display.
func FieldValues(r Remote) map[string]string {
	out := make(map[string]string)
	for name, values := range formValues(r) {
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// setFields assigns normalized response data to the declared fields of a
// resource struct, coercing scalar types where the wire representation
// differs.
func setFields(v any, data map[string]any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	for _, spec := range fieldsOf(rv.Type()) {
		raw, ok := data[spec.apiName]
		if !ok || raw == nil {
			continue
		}
		if err := setField(rv.Field(spec.index), raw); err != nil {
			return fmt.Errorf("field %s: %w", spec.goName, err)
		}
	}
	return nil
}

func setField(fv reflect.Value, raw any) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(toString(raw))
	case reflect.Bool:
		switch val := raw.(type) {
		case bool:
			fv.SetBool(val)
		case string:
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("cannot parse %q as bool", val)
			}
			fv.SetBool(b)
		default:
			return fmt.Errorf("cannot assign %T to bool", raw)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt(raw)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Float32, reflect.Float64:
		switch val := raw.(type) {
		case float64:
			fv.SetFloat(val)
		case string:
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("cannot parse %q as float", val)
			}
			fv.SetFloat(f)
		default:
			return fmt.Errorf("cannot assign %T to float", raw)
		}
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return nil // nested collections are not mapped
		}
		items, ok := raw.([]any)
		if !ok {
			items = []any{raw}
		}
		out := reflect.MakeSlice(fv.Type(), 0, len(items))
		for _, item := range items {
			out = reflect.Append(out, reflect.ValueOf(toString(item)))
		}
		fv.Set(out)
	}
	return nil
}

// toString renders a scalar wire value as a string. JSON numbers print
// without a trailing ".0" so identity values like @id=3 become "3".
func toString(raw any) string {
	switch val := raw.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func toInt(raw any) (int64, error) {
	switch val := raw.(type) {
	case float64:
		return int64(val), nil
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as int", val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot assign %T to int", raw)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// snakeCase converts a Go field name to its snake_case filter key
// ("SubmitAs" -> "submit_as").
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
