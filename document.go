package docukit

import (
	"fmt"
	"strings"
	"time"
)

// Document is the string-keyed representation every backend adapter hands to
// and receives from the core. Nested objects are nested map[string]any
// values, addressable through dotted paths.
type Document map[string]any

// Filter is an equality-only caller filter: every entry must match exactly.
// A nil value matches the null-or-missing class.
type Filter map[string]any

// Presence is the tri-state outcome of a field lookup. The distinction
// between a field set to null and a field never set matters to keyset
// predicates, so it is preserved end to end.
type Presence uint8

const (
	PresenceAbsent Presence = iota
	PresenceNull
	PresenceValue
)

// Lookup resolves a possibly dotted field path. Traversal stops with
// PresenceAbsent as soon as a path segment is missing or a non-object value
// is found mid-path.
func (d Document) Lookup(path string) (any, Presence) {
	segments := strings.Split(path, ".")
	current := d

	for i, segment := range segments {
		v, ok := current[segment]
		if !ok {
			return nil, PresenceAbsent
		}

		if i == len(segments)-1 {
			if v == nil {
				return nil, PresenceNull
			}
			return v, PresenceValue
		}

		next, ok := v.(map[string]any)
		if !ok {
			if nextDoc, okDoc := v.(Document); okDoc {
				next = nextDoc
			} else {
				return nil, PresenceAbsent
			}
		}
		current = next
	}

	return nil, PresenceAbsent
}

// Clone returns a copy deep enough for bookkeeping mutation: nested maps and
// slices are copied, leaf values are shared.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}

	ret := make(Document, len(d))
	for k, v := range d {
		ret[k] = cloneValue(v)
	}

	return ret
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return t.Clone()
	case map[string]any:
		return map[string]any(Document(t).Clone())
	case []any:
		ret := make([]any, len(t))
		for i := range t {
			ret[i] = cloneValue(t[i])
		}
		return ret
	default:
		return v
	}
}

// compareValues orders two concrete (non-null) values. Sort-key fields are
// assumed type-homogeneous per field; integer widths and floats are unified
// before comparison. Values of unknown types fall back to their string
// rendering so that the order stays total and reproducible.
func compareValues(a, b any) int {
	if af, aok := numericValue(a); aok {
		if bf, bok := numericValue(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	switch at := a.(type) {
	case string:
		if bt, ok := b.(string); ok {
			return strings.Compare(at, bt)
		}
	case bool:
		if bt, ok := b.(bool); ok {
			switch {
			case at == bt:
				return 0
			case !at:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}
