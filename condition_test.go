package docukit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_NewAnd_NewOr_Flattening(t *testing.T) {
	eq := Compare{Field: "a", Op: OperatorEQ, Value: 1}
	gt := Compare{Field: "b", Op: OperatorGT, Value: 2}

	tests := []struct {
		name string
		got  Condition
		want Condition
	}{
		{"no terms yield nil", NewAnd(), nil},
		{"nil terms dropped to nil", NewAnd(nil, nil), nil},
		{"single term returned as-is", NewAnd(eq), eq},
		{"two terms wrapped", NewAnd(eq, gt), And{Terms: []Condition{eq, gt}}},
		{"nested and flattened", NewAnd(eq, And{Terms: []Condition{gt}}), And{Terms: []Condition{eq, gt}}},
		{"or single term returned as-is", NewOr(nil, gt), gt},
		{"nested or flattened", NewOr(Or{Terms: []Condition{eq}}, gt), Or{Terms: []Condition{eq, gt}}},
		{"or keeps nested and intact", NewOr(And{Terms: []Condition{eq, gt}}), And{Terms: []Condition{eq, gt}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.got)
		})
	}
}

func Test_Condition_Matches(t *testing.T) {
	doc := Document{
		"age":    30,
		"name":   "alice",
		"note":   nil,
		"tenant": "a",
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"eq match", Compare{Field: "name", Op: OperatorEQ, Value: "alice"}, true},
		{"eq mismatch", Compare{Field: "name", Op: OperatorEQ, Value: "bob"}, false},
		{"gt match", Compare{Field: "age", Op: OperatorGT, Value: 20}, true},
		{"gt boundary excluded", Compare{Field: "age", Op: OperatorGT, Value: 30}, false},
		{"lt match", Compare{Field: "age", Op: OperatorLT, Value: 40}, true},
		{"compare never matches null", Compare{Field: "note", Op: OperatorGT, Value: 0}, false},
		{"compare never matches missing", Compare{Field: "missing", Op: OperatorLT, Value: "z"}, false},
		{"isnull matches null", IsNull{Field: "note"}, true},
		{"isnull matches missing", IsNull{Field: "missing"}, true},
		{"isnull rejects value", IsNull{Field: "age"}, false},
		{"notnull matches value", NotNull{Field: "age"}, true},
		{"notnull rejects null", NotNull{Field: "note"}, false},
		{"notnull rejects missing", NotNull{Field: "missing"}, false},
		{
			name: "and requires all terms",
			cond: NewAnd(
				Compare{Field: "age", Op: OperatorGT, Value: 20},
				Compare{Field: "tenant", Op: OperatorEQ, Value: "b"},
			),
			want: false,
		},
		{
			name: "or requires one term",
			cond: NewOr(
				Compare{Field: "age", Op: OperatorGT, Value: 100},
				IsNull{Field: "note"},
			),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.cond.Matches(doc))
		})
	}
}

func Test_Filter_Condition(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   Condition
	}{
		{"empty filter is nil", Filter{}, nil},
		{"nil filter is nil", nil, nil},
		{
			name:   "single equality",
			filter: Filter{"name": "alice"},
			want:   Compare{Field: "name", Op: OperatorEQ, Value: "alice"},
		},
		{
			name:   "nil value becomes isnull",
			filter: Filter{"note": nil},
			want:   IsNull{Field: "note"},
		},
		{
			name:   "multiple terms sorted by field",
			filter: Filter{"b": 2, "a": 1},
			want: And{Terms: []Condition{
				Compare{Field: "a", Op: OperatorEQ, Value: 1},
				Compare{Field: "b", Op: OperatorEQ, Value: 2},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.filter.Condition())
		})
	}
}
