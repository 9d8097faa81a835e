package docukit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the immutable per-repository configuration: it is constructed
// (or loaded) once, validated, and then threaded by value into every pager
// and repository call - never mutated afterwards.
type Config struct {
	// IDField names the unique identifier field. It doubles as the
	// pagination tiebreaker and must be present on every document.
	// MongoDB collections use "_id".
	IDField string `yaml:"id_field"`

	// SoftDeleteField marks deleted documents. Reads treat a missing or
	// false marker as visible.
	SoftDeleteField string `yaml:"soft_delete_field"`
	// DeletedAtField records when the soft delete happened.
	DeletedAtField string `yaml:"deleted_at_field"`

	// VersionField carries the optimistic-lock counter, starting at 1.
	VersionField string `yaml:"version_field"`

	CreatedAtField string `yaml:"created_at_field"`
	UpdatedAtField string `yaml:"updated_at_field"`

	// TraceField holds the bounded provenance history appended on writes.
	TraceField string `yaml:"trace_field"`
	// MaxTraceEntries bounds the history; oldest entries are dropped.
	MaxTraceEntries int `yaml:"max_trace_entries"`

	// Scope is a fixed set of field-value constraints ANDed into every
	// query and merged into every write, confining visibility (per-tenant
	// isolation and the like).
	Scope Filter `yaml:"scope"`

	// IDCodec handles store-native id types in cursor tokens. Optional when
	// ids are plain strings, integers or floats.
	IDCodec IDCodec `yaml:"-"`
}

// DefaultConfig returns the field names used when the caller leaves them
// blank.
func DefaultConfig() Config {
	return Config{
		IDField:         "id",
		SoftDeleteField: "deleted",
		DeletedAtField:  "deleted_at",
		VersionField:    "version",
		CreatedAtField:  "created_at",
		UpdatedAtField:  "updated_at",
		TraceField:      "trace",
		MaxTraceEntries: 20,
	}
}

// LoadConfig reads a Config from a YAML file and fills in defaults.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read config: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("cannot parse config: %w", err)
	}

	cfg = cfg.withDefaults()
	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()

	if c.IDField == "" {
		c.IDField = def.IDField
	}
	if c.SoftDeleteField == "" {
		c.SoftDeleteField = def.SoftDeleteField
	}
	if c.DeletedAtField == "" {
		c.DeletedAtField = def.DeletedAtField
	}
	if c.VersionField == "" {
		c.VersionField = def.VersionField
	}
	if c.CreatedAtField == "" {
		c.CreatedAtField = def.CreatedAtField
	}
	if c.UpdatedAtField == "" {
		c.UpdatedAtField = def.UpdatedAtField
	}
	if c.TraceField == "" {
		c.TraceField = def.TraceField
	}
	if c.MaxTraceEntries <= 0 {
		c.MaxTraceEntries = def.MaxTraceEntries
	}

	return c
}

// Validate rejects bookkeeping field-name collisions: every bookkeeping
// field must be distinct, none may shadow the id field, and scope keys may
// not collide with any of them.
func (c Config) Validate() error {
	seen := make(map[string]string, 8)
	for name, field := range map[string]string{
		"id_field":          c.IDField,
		"soft_delete_field": c.SoftDeleteField,
		"deleted_at_field":  c.DeletedAtField,
		"version_field":     c.VersionField,
		"created_at_field":  c.CreatedAtField,
		"updated_at_field":  c.UpdatedAtField,
		"trace_field":       c.TraceField,
	} {
		if field == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
		if other, ok := seen[field]; ok {
			return fmt.Errorf("field '%s' is used by both %s and %s", field, other, name)
		}
		seen[field] = name
	}

	for scopeKey := range c.Scope {
		if other, ok := seen[scopeKey]; ok {
			return fmt.Errorf("scope key '%s' collides with %s", scopeKey, other)
		}
	}

	return nil
}

// bookkeepingFields lists the fields the repository stamps itself; caller
// input may not set them.
func (c Config) bookkeepingFields() []string {
	return []string{
		c.SoftDeleteField,
		c.DeletedAtField,
		c.VersionField,
		c.CreatedAtField,
		c.UpdatedAtField,
		c.TraceField,
	}
}

// scopeCondition converts the configured scope into a query condition.
// Returns nil when no scope is configured.
func (c Config) scopeCondition() Condition {
	return c.Scope.Condition()
}

// visibilityCondition masks soft-deleted documents: the marker is either
// never set, set to null, or explicitly false.
func (c Config) visibilityCondition() Condition {
	return NewOr(
		IsNull{Field: c.SoftDeleteField},
		Compare{Field: c.SoftDeleteField, Op: OperatorEQ, Value: false},
	)
}

// deletedCondition is the complement used by Restore lookups.
func (c Config) deletedCondition() Condition {
	return Compare{Field: c.SoftDeleteField, Op: OperatorEQ, Value: true}
}
