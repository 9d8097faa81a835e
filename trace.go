package docukit

import (
	"time"

	"github.com/google/uuid"
)

// TraceEntry is one provenance record appended to a document on every write.
type TraceEntry struct {
	ID string    `json:"id"`
	Op string    `json:"op"`
	At time.Time `json:"at"`
}

const (
	traceOpCreate  = "create"
	traceOpUpdate  = "update"
	traceOpDelete  = "delete"
	traceOpRestore = "restore"
)

// document renders the entry in the string-keyed form stored on documents,
// which round-trips through any backend unchanged.
func (e TraceEntry) document() map[string]any {
	return map[string]any{
		"id": e.ID,
		"op": e.Op,
		"at": e.At,
	}
}

// ParseTrace decodes the trace value stored on a document into typed entries.
// Anything that does not have the stored shape is skipped.
func ParseTrace(v any) []TraceEntry {
	history, _ := v.([]any)

	ret := make([]TraceEntry, 0, len(history))
	for _, raw := range history {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		var entry TraceEntry
		entry.ID, _ = m["id"].(string)
		entry.Op, _ = m["op"].(string)
		entry.At, _ = m["at"].(time.Time)
		ret = append(ret, entry)
	}

	return ret
}

// appendTrace merges a new entry into an existing trace value and truncates
// the history to max entries, dropping the oldest.
func appendTrace(existing any, op string, at time.Time, max int) []any {
	history, _ := existing.([]any)

	entry := TraceEntry{
		ID: uuid.NewString(),
		Op: op,
		At: at,
	}

	history = append(history, entry.document())
	if len(history) > max {
		history = history[len(history)-max:]
	}

	return history
}
