package docukit

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

var _encoder = base64.RawURLEncoding

// IDCodec encodes store-native id types that the built-in cursor codec does
// not know (for example MongoDB ObjectIDs). EncodeID returns ok=false when
// the id is not of the codec's type, letting the built-in handling run.
type IDCodec interface {
	EncodeID(id any) (raw string, ok bool)
	DecodeID(raw string) (any, error)
}

// cursorToken is the wire form of a cursor. It deterministically identifies
// the anchor document by its unique id and nothing else: the anchor's
// sort-field values are re-fetched fresh from the store on resolution, never
// trusted from the token.
type cursorToken struct {
	Kind  string `json:"k"`
	Value string `json:"v"`
}

const (
	tokenKindString = "s"
	tokenKindInt    = "i"
	tokenKindFloat  = "f"
	tokenKindCustom = "x"
)

// EncodeCursor serializes an anchor id into an opaque, URL-safe token.
// codec may be nil when ids are plain strings, integers or floats.
func EncodeCursor(id any, codec IDCodec) (string, error) {
	token := cursorToken{}

	if codec != nil {
		if raw, ok := codec.EncodeID(id); ok {
			token.Kind, token.Value = tokenKindCustom, raw
		}
	}

	if token.Kind == "" {
		switch t := id.(type) {
		case string:
			token.Kind, token.Value = tokenKindString, t
		case int:
			token.Kind, token.Value = tokenKindInt, strconv.FormatInt(int64(t), 10)
		case int32:
			token.Kind, token.Value = tokenKindInt, strconv.FormatInt(int64(t), 10)
		case int64:
			token.Kind, token.Value = tokenKindInt, strconv.FormatInt(t, 10)
		case float64:
			token.Kind, token.Value = tokenKindFloat, strconv.FormatFloat(t, 'g', -1, 64)
		default:
			return "", fmt.Errorf("cannot encode cursor for id of type %T", id)
		}
	}

	jTok, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("cannot marshal cursor token: %w", err)
	}

	var buf bytes.Buffer
	if err = json.Compact(&buf, jTok); err != nil {
		return "", fmt.Errorf("cannot compact cursor token: %w", err)
	}

	return _encoder.EncodeToString(buf.Bytes()), nil
}

// DecodeCursor parses an opaque token back into the anchor id. An empty
// token decodes to nil (first page). Every malformation surfaces as
// ErrInvalidCursor.
func DecodeCursor(b64String string, codec IDCodec) (any, error) {
	if len(b64String) == 0 {
		return nil, nil
	}

	jsonData, err := _encoder.DecodeString(b64String)
	if err != nil {
		return nil, wrapErr(KindInvalidCursor, "invalid cursor", fmt.Errorf("decode base64: %w", err))
	}

	var token cursorToken
	if err = json.Unmarshal(jsonData, &token); err != nil {
		return nil, wrapErr(KindInvalidCursor, "invalid cursor", fmt.Errorf("unmarshal token: %w", err))
	}

	switch token.Kind {
	case tokenKindString:
		return token.Value, nil
	case tokenKindInt:
		id, err := strconv.ParseInt(token.Value, 10, 64)
		if err != nil {
			return nil, wrapErr(KindInvalidCursor, "invalid cursor", fmt.Errorf("parse int id: %w", err))
		}
		return id, nil
	case tokenKindFloat:
		id, err := strconv.ParseFloat(token.Value, 64)
		if err != nil {
			return nil, wrapErr(KindInvalidCursor, "invalid cursor", fmt.Errorf("parse float id: %w", err))
		}
		return id, nil
	case tokenKindCustom:
		if codec == nil {
			return nil, wrapErr(KindInvalidCursor, "invalid cursor", fmt.Errorf("no id codec configured"))
		}
		id, err := codec.DecodeID(token.Value)
		if err != nil {
			return nil, wrapErr(KindInvalidCursor, "invalid cursor", fmt.Errorf("decode custom id: %w", err))
		}
		return id, nil
	default:
		return nil, wrapErr(KindInvalidCursor, "invalid cursor", fmt.Errorf("unknown id kind '%s'", token.Kind))
	}
}
