package docukit

import (
	"slices"

	"github.com/samber/lo"
)

type (
	// Condition is a composable boolean predicate over documents. The core
	// builds Conditions; each backend adapter translates the tree into its
	// native filter representation. Matches gives the reference in-memory
	// semantics every translation must agree with.
	//
	// A nil Condition means "match everything".
	Condition interface {
		// Matches evaluates the condition against a document.
		Matches(doc Document) bool

		condition()
	}

	// And is the conjunction of its terms.
	And struct {
		Terms []Condition
	}

	// Or is the disjunction of its terms. The keyset range predicate is an
	// Or of Ands: one branch per sort-field breakpoint.
	Or struct {
		Terms []Condition
	}

	// Compare asserts Operator(Field, Value) where Value is concrete.
	// Null and missing field values never satisfy a Compare.
	Compare struct {
		Field string
		Op    Operator
		Value any
	}

	// IsNull matches documents whose field is null or missing.
	IsNull struct {
		Field string
	}

	// NotNull matches documents whose field is present with a non-null value.
	NotNull struct {
		Field string
	}
)

func (And) condition()     {}
func (Or) condition()      {}
func (Compare) condition() {}
func (IsNull) condition()  {}
func (NotNull) condition() {}

// NewAnd builds a conjunction, dropping nil terms and flattening nested Ands.
// Zero remaining terms yield nil (match everything); a single term is
// returned as-is.
func NewAnd(terms ...Condition) Condition {
	flat := flatten(terms, func(c Condition) ([]Condition, bool) {
		and, ok := c.(And)
		return and.Terms, ok
	})

	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return And{Terms: flat}
	}
}

// NewOr builds a disjunction, dropping nil terms and flattening nested Ors.
// Zero remaining terms yield nil; a single term is returned as-is.
func NewOr(terms ...Condition) Condition {
	flat := flatten(terms, func(c Condition) ([]Condition, bool) {
		or, ok := c.(Or)
		return or.Terms, ok
	})

	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return Or{Terms: flat}
	}
}

func flatten(terms []Condition, unwrap func(Condition) ([]Condition, bool)) []Condition {
	ret := make([]Condition, 0, len(terms))
	for _, term := range terms {
		if term == nil {
			continue
		}

		if inner, ok := unwrap(term); ok {
			ret = append(ret, inner...)
			continue
		}

		ret = append(ret, term)
	}

	return ret
}

// Condition converts the equality filter into a Condition. Nil values become
// IsNull terms. Returns nil for an empty filter.
func (f Filter) Condition() Condition {
	terms := make([]Condition, 0, len(f))
	for _, field := range sortedKeys(f) {
		value := f[field]
		if value == nil {
			terms = append(terms, IsNull{Field: field})
			continue
		}

		terms = append(terms, Compare{Field: field, Op: OperatorEQ, Value: value})
	}

	return NewAnd(terms...)
}

// sortedKeys keeps the generated condition deterministic regardless of map
// iteration order.
func sortedKeys(f Filter) []string {
	keys := lo.Keys(f)
	slices.Sort(keys)
	return keys
}

func (a And) Matches(doc Document) bool {
	for _, term := range a.Terms {
		if term == nil {
			continue
		}
		if !term.Matches(doc) {
			return false
		}
	}

	return true
}

func (o Or) Matches(doc Document) bool {
	for _, term := range o.Terms {
		if term == nil {
			return true
		}
		if term.Matches(doc) {
			return true
		}
	}

	return false
}

func (c Compare) Matches(doc Document) bool {
	v, presence := doc.Lookup(c.Field)
	if presence != PresenceValue {
		return false
	}

	cmp := compareValues(v, c.Value)
	switch c.Op {
	case OperatorEQ:
		return cmp == 0
	case OperatorGT:
		return cmp > 0
	case OperatorLT:
		return cmp < 0
	default:
		return false
	}
}

func (n IsNull) Matches(doc Document) bool {
	_, presence := doc.Lookup(n.Field)
	return presence != PresenceValue
}

func (n NotNull) Matches(doc Document) bool {
	_, presence := doc.Lookup(n.Field)
	return presence == PresenceValue
}
