package firedoc

import (
	"cloud.google.com/go/firestore"

	"github.com/docukit/docukit"
)

// TranslateCondition converts a condition tree into a Firestore composite
// filter. A nil condition translates to nil (no filter).
//
// Firestore caveat: a document with no value at all under a field is
// invisible to every filter, so the null-or-missing class degrades to
// "== null" here. Documents that should participate in null ordering must
// store an explicit null. The exact tri-state semantics hold on the mongodoc
// and memdoc backends.
func TranslateCondition(cond docukit.Condition) firestore.EntityFilter {
	switch t := cond.(type) {
	case nil:
		return nil
	case docukit.And:
		return firestore.AndFilter{Filters: translateTerms(t.Terms)}
	case docukit.Or:
		return firestore.OrFilter{Filters: translateTerms(t.Terms)}
	case docukit.Compare:
		op := "=="
		switch t.Op {
		case docukit.OperatorGT:
			op = ">"
		case docukit.OperatorLT:
			op = "<"
		}
		return firestore.PropertyFilter{Path: t.Field, Operator: op, Value: t.Value}
	case docukit.IsNull:
		return firestore.PropertyFilter{Path: t.Field, Operator: "==", Value: nil}
	case docukit.NotNull:
		return firestore.PropertyFilter{Path: t.Field, Operator: "!=", Value: nil}
	default:
		// Unknown node kinds match nothing rather than everything.
		return firestore.PropertyFilter{Path: "__name__", Operator: "==", Value: ""}
	}
}

func translateTerms(terms []docukit.Condition) []firestore.EntityFilter {
	ret := make([]firestore.EntityFilter, 0, len(terms))
	for _, term := range terms {
		if f := TranslateCondition(term); f != nil {
			ret = append(ret, f)
		}
	}

	return ret
}

func translateDirection(d docukit.Direction) firestore.Direction {
	if d == docukit.DirectionDESC {
		return firestore.Desc
	}

	return firestore.Asc
}
