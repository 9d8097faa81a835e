package mongodoc

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/docukit/docukit"
)

// ObjectIDCodec lets cursor tokens carry native ObjectID anchors as hex.
// Wire it into docukit.Config.IDCodec for collections keyed by ObjectIDs.
type ObjectIDCodec struct{}

func (ObjectIDCodec) EncodeID(id any) (string, bool) {
	oid, ok := id.(primitive.ObjectID)
	if !ok {
		return "", false
	}

	return oid.Hex(), true
}

func (ObjectIDCodec) DecodeID(raw string) (any, error) {
	return primitive.ObjectIDFromHex(raw)
}

var _ docukit.IDCodec = ObjectIDCodec{}
