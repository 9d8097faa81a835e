package docukit

// buildRangeCondition produces the keyset range predicate: documents
// satisfying it are exactly those that sort strictly after the anchor under
// the canonical orderings. The result is a disjunction with one branch per
// sort-field breakpoint:
//
//	(f0 after a0)
//	OR (f0 == a0 AND f1 after a1)
//	OR (f0 == a0 AND f1 == a1 AND ... fn after an)
//
// where the last field is the always-present unique tiebreaker. Null and
// missing anchor values form one class treated as the logical minimum
// regardless of direction:
//   - equality prefix terms on a null/missing anchor value assert IsNull;
//   - "after" on a null/missing value ascending means any concrete value;
//   - "after" on a null/missing value descending is unsatisfiable (nothing
//     sorts below the minimum), so that branch is omitted and ties at the
//     minimum flow to the next breakpoint through the IsNull prefix term.
//
// The predicate is exact for any combination of present/null/missing values,
// which is what guarantees no duplicate and no skipped rows across pages.
func buildRangeCondition(sort Orderings, anchor Document) Condition {
	disjuncts := make([]Condition, 0, len(sort))

	for i, orderBy := range sort {
		inequality := inequalityTerm(orderBy, anchor, i == len(sort)-1)
		if inequality == nil {
			continue
		}

		conjuncts := make([]Condition, 0, i+1)
		for _, prev := range sort[:i] {
			conjuncts = append(conjuncts, equalityTerm(prev.Field, anchor))
		}
		conjuncts = append(conjuncts, inequality)

		disjuncts = append(disjuncts, NewAnd(conjuncts...))
	}

	return NewOr(disjuncts...)
}

func equalityTerm(field string, anchor Document) Condition {
	v, presence := anchor.Lookup(field)
	if presence != PresenceValue {
		return IsNull{Field: field}
	}

	return Compare{Field: field, Op: OperatorEQ, Value: v}
}

// inequalityTerm builds the direction-aware strict inequality for one
// breakpoint. The tiebreaker is the unique id field and is assumed present,
// so it gets a plain comparison with no null case. A nil return means the
// branch cannot match anything and must be dropped.
func inequalityTerm(orderBy OrderBy, anchor Document, tiebreaker bool) Condition {
	v, presence := anchor.Lookup(orderBy.Field)

	if tiebreaker {
		return Compare{Field: orderBy.Field, Op: orderBy.Direction.ForOperator(), Value: v}
	}

	switch orderBy.Direction {
	case DirectionDESC:
		if presence == PresenceValue {
			return NewOr(
				Compare{Field: orderBy.Field, Op: OperatorLT, Value: v},
				IsNull{Field: orderBy.Field},
			)
		}
		// Anchor is already at the minimum.
		return nil
	default:
		if presence == PresenceValue {
			return Compare{Field: orderBy.Field, Op: OperatorGT, Value: v}
		}
		return NotNull{Field: orderBy.Field}
	}
}
