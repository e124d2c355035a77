package listquery

import (
	"net/url"
	"strings"
)

// Filters maps a field name to the set of accepted values. A normalized
// mapping never holds empty value lists or empty strings.
type Filters map[string][]string

// Normalize coerces loosely-typed filter input into Filters. Accepted value
// shapes are string, []string and []any holding strings; nil and other
// shapes are dropped. Fields left without values are omitted.
func Normalize(raw map[string]any) Filters {
	out := Filters{}
	for field, v := range raw {
		var values []string
		switch val := v.(type) {
		case string:
			values = appendValue(values, val)
		case []string:
			for _, s := range val {
				values = appendValue(values, s)
			}
		case []any:
			for _, item := range val {
				if s, ok := item.(string); ok {
					values = appendValue(values, s)
				}
			}
		}
		if len(values) > 0 {
			out[field] = values
		}
	}
	return out
}

// Normalize returns a copy of f with blank values and empty fields removed.
// Normalizing an already-normalized mapping yields an equal mapping.
func (f Filters) Normalize() Filters {
	out := Filters{}
	for field, vals := range f {
		var values []string
		for _, s := range vals {
			values = appendValue(values, s)
		}
		if len(values) > 0 {
			out[field] = values
		}
	}
	return out
}

// FromValues builds Filters from URL query parameters. Repeated parameters
// and comma-separated values both contribute values; reserved keys are
// skipped.
func FromValues(v url.Values, reserved ...string) Filters {
	skip := make(map[string]bool, len(reserved))
	for _, r := range reserved {
		skip[r] = true
	}

	out := Filters{}
	for field, vals := range v {
		if skip[field] {
			continue
		}
		var values []string
		for _, raw := range vals {
			for _, s := range strings.Split(raw, ",") {
				values = appendValue(values, s)
			}
		}
		if len(values) > 0 {
			out[field] = values
		}
	}
	return out
}

func appendValue(values []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return values
	}
	return append(values, s)
}
