package schema

import (
	"sort"

	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
)

// --------------------------------------------------------------------------
// Model Options
// --------------------------------------------------------------------------

// ModelOptions configures store-level behavior at declaration time.
type ModelOptions struct {
	// AutoIncrement generates out-of-line keys from a per-store sequence
	// when no key is supplied.
	AutoIncrement bool

	// Force makes the reconciler drop and recreate the store unconditionally
	// on the next version upgrade, discarding its data.
	Force bool
}

// --------------------------------------------------------------------------
// Model Metadata
// --------------------------------------------------------------------------

// ModelMeta is the immutable per-store declaration: name, value schema,
// primary-key configuration and index list. It is created at
// schema-declaration time and read-only thereafter.
type ModelMeta struct {
	Name           string
	Schema         Schema
	PrimaryKeyPath string // empty = out-of-line key
	AutoIncrement  bool
	IndexList      []IndexSpec
	Force          bool
}

// NewModel validates the field schema and derives the key configuration and
// index list from its flags. Definition conflicts (multiple in-line keys,
// unique without index, non-keyable key or index fields, unknown type tags)
// fail with a CodeDefinition error.
func NewModel(name string, s Schema, opts *ModelOptions) (*ModelMeta, error) {
	if name == "" {
		return nil, boxerr.Definitionf("store name must not be empty")
	}
	if opts == nil {
		opts = &ModelOptions{}
	}

	meta := &ModelMeta{
		Name:          name,
		Schema:        s,
		AutoIncrement: opts.AutoIncrement,
		Force:         opts.Force,
	}

	// Deterministic field order for validation and index derivation.
	fields := make([]string, 0, len(s))
	for f := range s {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, fname := range fields {
		f := s[fname]
		if !f.Type.valid() {
			return nil, boxerr.Definitionf("store %s: field %s has unknown type tag %q", name, fname, f.Type)
		}
		if f.Unique && !f.Index {
			return nil, boxerr.Definitionf("store %s: field %s is unique but not indexed", name, fname)
		}
		if (f.Key || f.Index) && !f.Type.Keyable() {
			return nil, boxerr.Definitionf("store %s: field %s of type %s cannot be a key or index", name, fname, f.Type)
		}
		if f.Key {
			if meta.PrimaryKeyPath != "" {
				return nil, boxerr.Definitionf("store %s: multiple in-line key fields (%s, %s)", name, meta.PrimaryKeyPath, fname)
			}
			meta.PrimaryKeyPath = fname
		}
		if f.Index {
			meta.IndexList = append(meta.IndexList, IndexSpec{KeyPath: fname, Unique: f.Unique})
		}
	}

	return meta, nil
}

// NewRecord produces a record with every declared field defaulted per its
// type tag, independent of any runtime type dispatch.
func (m *ModelMeta) NewRecord() engine.Record {
	rec := make(engine.Record, len(m.Schema))
	for fname, f := range m.Schema {
		rec[fname] = f.Type.Default()
	}
	return rec
}

// Index returns the index spec for keyPath. The boolean return value
// indicates whether such an index is declared.
func (m *ModelMeta) Index(keyPath string) (IndexSpec, bool) {
	for _, idx := range m.IndexList {
		if idx.KeyPath == keyPath {
			return idx, true
		}
	}
	return IndexSpec{}, false
}

// --------------------------------------------------------------------------
// Value Validation
// --------------------------------------------------------------------------

// Validate checks a full record against the schema: every declared field
// must be present with a conforming type, and unknown fields are rejected.
// Violations fail with a CodeValidation error, raised before any engine
// interaction.
func (m *ModelMeta) Validate(rec engine.Record) error {
	if rec == nil {
		return boxerr.Validationf("store %s: value is required", m.Name)
	}
	for fname := range rec {
		if _, ok := m.Schema[fname]; !ok {
			return boxerr.Validationf("store %s: unknown field %s", m.Name, fname)
		}
	}
	for fname, f := range m.Schema {
		v, ok := rec[fname]
		if !ok {
			// The generated in-line key may be absent on insert.
			if fname == m.PrimaryKeyPath && m.AutoIncrement {
				continue
			}
			return boxerr.Validationf("store %s: missing field %s", m.Name, fname)
		}
		if !f.Type.Matches(v) {
			return boxerr.Validationf("store %s: field %s does not match type %s", m.Name, fname, f.Type)
		}
	}
	return nil
}

// ValidatePartial checks an update value: every present field must be
// declared with a conforming type, the in-line key field must not appear,
// and unknown fields are rejected. Used for bulk update payloads, which
// merge over existing records.
func (m *ModelMeta) ValidatePartial(rec engine.Record) error {
	if len(rec) == 0 {
		return boxerr.Validationf("store %s: update value is required", m.Name)
	}
	for fname, v := range rec {
		f, ok := m.Schema[fname]
		if !ok {
			return boxerr.Validationf("store %s: unknown field %s", m.Name, fname)
		}
		if fname == m.PrimaryKeyPath {
			return boxerr.Validationf("store %s: update must not modify key field %s", m.Name, fname)
		}
		if !f.Type.Matches(v) {
			return boxerr.Validationf("store %s: field %s does not match type %s", m.Name, fname, f.Type)
		}
	}
	return nil
}
