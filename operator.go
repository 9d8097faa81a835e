package docukit

import "fmt"

// Operator defines a comparison operator for filtering by field.
// Used in pagination filtering conditions and caller equality filters.
type Operator string

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"

	// OperatorEQ is the equality operator. The keyset builder uses it only
	// for the equality prefix of a range branch; caller filters use it for
	// every term.
	OperatorEQ Operator = "="
)

func (o Operator) Valid() bool {
	return o == OperatorLT || o == OperatorGT
}

func (o Operator) ForOrdering() Direction {
	switch o {
	case OperatorGT:
		return DirectionASC
	case OperatorLT:
		return DirectionDESC
	default:
		panic(fmt.Errorf("cannot map operator '%s' to ordering", o))
	}
}
