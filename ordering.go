package docukit

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
)

// Direction defines the sort direction for the requested dataset.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (d Direction) Valid() bool {
	return d == DirectionASC || d == DirectionDESC
}

func (d Direction) ForOperator() Operator {
	switch d {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", d))
	}
}

type (
	Orderings []OrderBy
	OrderBy   struct {
		Field     string
		Direction Direction
	}

	FieldAlias = string

	// FieldMapping maps external field aliases to document field paths.
	// Key is an external alias, value is an internal (possibly dotted) path.
	FieldMapping = map[FieldAlias]string
)

var _availableFieldNameSymbols = append([]rune("_."), lo.AlphanumericCharset...)

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s'", o.Direction)
	}

	// Field paths reach backend query builders verbatim, so restrict the
	// allowed characters.
	if o.Field == "" || !lo.Every(_availableFieldNameSymbols, []rune(o.Field)) {
		return fmt.Errorf("ordering field name contains forbidden symbols '%s'", o.Field)
	}

	return nil
}

// Normalize canonicalizes the orderings against the entity's unique id field:
//   - duplicate fields are dropped, first occurrence wins;
//   - if idField appears, the list is truncated immediately after it (a unique
//     field fully determines order, anything after it is unreachable);
//   - otherwise (idField, ASC) is appended as the final tiebreaker.
//
// The result is never empty: at minimum it contains the tiebreaker.
func (o Orderings) Normalize(idField string) Orderings {
	ret := make(Orderings, 0, len(o)+1)
	seen := make(map[string]struct{}, len(o))

	for _, orderBy := range o {
		if _, ok := seen[orderBy.Field]; ok {
			continue
		}
		seen[orderBy.Field] = struct{}{}

		ret = append(ret, orderBy)
		if orderBy.Field == idField {
			return ret
		}
	}

	return append(ret, OrderBy{Field: idField, Direction: DirectionASC})
}

// Compare reports the relative order of two documents under the orderings:
// negative when a sorts before b, positive when after, zero on a full tie.
// Null and missing values form one class that sorts before any concrete
// value ascending and after it descending.
func (o Orderings) Compare(a, b Document) int {
	for _, orderBy := range o {
		av, ap := a.Lookup(orderBy.Field)
		bv, bp := b.Lookup(orderBy.Field)

		var cmp int
		switch {
		case ap != PresenceValue && bp != PresenceValue:
			cmp = 0
		case ap != PresenceValue:
			cmp = -1
		case bp != PresenceValue:
			cmp = 1
		default:
			cmp = compareValues(av, bv)
		}

		if orderBy.Direction == DirectionDESC {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp
		}
	}

	return 0
}

func (o Orderings) validate() error {
	if len(o) == 0 {
		return fmt.Errorf("empty ordering list")
	}

	var err error
	for _, orderBy := range o {
		err = orderBy.validate()
		if err != nil {
			return err
		}
	}

	return nil
}

// ParseSort builds Orderings from a list of strings in the format
// "field asc|desc". Field aliases are resolved via FieldMapping.
// Returns an error if an alias is not found in the mapping.
func ParseSort(stringOrderings []string, fieldMapping FieldMapping) (Orderings, error) {
	ret := make(Orderings, 0, len(stringOrderings))
	aliases := lo.Keys(fieldMapping)

	for _, stringOrdering := range stringOrderings {
		cutStringOrdering := strings.Split(strings.TrimSpace(stringOrdering), " ")
		if len(cutStringOrdering) != 2 {
			return nil, fmt.Errorf("invalid ordering string format '%s'", stringOrdering)
		}

		fieldAlias := cutStringOrdering[0]
		direction := Direction(strings.ToUpper(cutStringOrdering[1]))
		if !direction.Valid() {
			return nil, fmt.Errorf("invalid ordering direction '%s'", cutStringOrdering[1])
		}

		fieldPath := fieldMapping[fieldAlias]
		if fieldPath == "" {
			return nil, fmt.Errorf("invalid field alias. closest: '%s'", closestAlias(fieldAlias, aliases))
		}

		ret = append(ret, OrderBy{
			Field:     fieldPath,
			Direction: direction,
		})
	}

	return ret, nil
}

func closestAlias(input FieldAlias, dataSet []FieldAlias) FieldAlias {
	minDist := math.MaxInt
	closest := ""

	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		if dist < minDist {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}
