package mongodoc

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/docukit/docukit"
)

// TranslateCondition converts a condition tree into a MongoDB filter
// document. A nil condition becomes the match-everything filter.
//
// The null-or-missing class maps onto Mongo's own equivalence: `{f: null}`
// matches both null values and absent fields, and `{f: {$ne: null}}`
// excludes both, so the tri-state semantics of the core hold exactly.
// Strict comparisons rely on Mongo's type bracketing to exclude nulls, which
// matches the core's assumption of type-homogeneous sort fields.
func TranslateCondition(cond docukit.Condition) bson.M {
	switch t := cond.(type) {
	case nil:
		return bson.M{}
	case docukit.And:
		terms := make([]bson.M, 0, len(t.Terms))
		for _, term := range t.Terms {
			terms = append(terms, TranslateCondition(term))
		}
		return bson.M{"$and": terms}
	case docukit.Or:
		terms := make([]bson.M, 0, len(t.Terms))
		for _, term := range t.Terms {
			terms = append(terms, TranslateCondition(term))
		}
		return bson.M{"$or": terms}
	case docukit.Compare:
		switch t.Op {
		case docukit.OperatorEQ:
			return bson.M{t.Field: toBSONValue(t.Value)}
		case docukit.OperatorGT:
			return bson.M{t.Field: bson.M{"$gt": toBSONValue(t.Value)}}
		case docukit.OperatorLT:
			return bson.M{t.Field: bson.M{"$lt": toBSONValue(t.Value)}}
		}
	case docukit.IsNull:
		return bson.M{t.Field: nil}
	case docukit.NotNull:
		return bson.M{t.Field: bson.M{"$ne": nil}}
	}

	// Unknown node kinds match nothing rather than everything.
	return bson.M{"_id": bson.M{"$exists": false}}
}

// TranslateSort converts orderings into a Mongo sort document. Document
// order is significant, hence bson.D.
func TranslateSort(orderBy docukit.Orderings) bson.D {
	ret := make(bson.D, 0, len(orderBy))
	for _, ob := range orderBy {
		dir := 1
		if ob.Direction == docukit.DirectionDESC {
			dir = -1
		}
		ret = append(ret, bson.E{Key: ob.Field, Value: dir})
	}

	return ret
}

func toBSON(doc docukit.Document) bson.M {
	ret := make(bson.M, len(doc))
	for k, v := range doc {
		ret[k] = toBSONValue(v)
	}

	return ret
}

func toBSONValue(v any) any {
	switch t := v.(type) {
	case docukit.Document:
		return toBSON(t)
	case map[string]any:
		return toBSON(docukit.Document(t))
	case []any:
		ret := make(bson.A, 0, len(t))
		for _, item := range t {
			ret = append(ret, toBSONValue(item))
		}
		return ret
	default:
		return v
	}
}

// fromBSON normalizes driver types back into plain Document values so that
// the core's comparator and Lookup see one representation: nested bson.M and
// bson.D become map[string]any, bson arrays become []any, BSON datetimes
// become time.Time and int32 widens to int64. ObjectIDs stay native; the
// ObjectIDCodec handles them at the cursor boundary.
func fromBSON(raw bson.M) docukit.Document {
	ret := make(docukit.Document, len(raw))
	for k, v := range raw {
		ret[k] = fromBSONValue(v)
	}

	return ret
}

func fromBSONValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return map[string]any(fromBSON(t))
	case bson.D:
		m := make(docukit.Document, len(t))
		for _, e := range t {
			m[e.Key] = fromBSONValue(e.Value)
		}
		return map[string]any(m)
	case primitive.A:
		ret := make([]any, 0, len(t))
		for _, item := range t {
			ret = append(ret, fromBSONValue(item))
		}
		return ret
	case primitive.DateTime:
		return t.Time().UTC()
	case int32:
		return int64(t)
	default:
		return v
	}
}
