// Package schema holds the per-store declarations that drive both task
// validation and structural migration: field schemas with type tags and
// key/index/unique markers, store options (auto-increment, force) and the
// per-version registry that the migration reconciler diffs against the
// engine's live structural state.
//
// Key Components:
//
//   - Field / Schema: the tagged field configuration. A field is either a
//     plain type tag or a type tag plus key/index/unique flags. Any field
//     marked unique must also be marked index; at most one field per store
//     may be the in-line key.
//
//   - ModelMeta: the immutable per-store declaration derived from a Schema
//     by NewModel. Once a store exists in the engine, its primary-key path
//     and auto-increment setting are immutable unless Force triggers a full
//     recreation on the next upgrade.
//
//   - Registry: all declared stores for one target version. Stores are
//     declared before open; open seals the registry and hands it to the
//     migration reconciler.
//
//   - Record factory and validation: ModelMeta.NewRecord produces a value
//     with every declared field defaulted per its type tag; Validate and
//     ValidatePartial perform the strict shape/type checks that raise
//     CodeValidation errors before any engine interaction. Unknown fields
//     are rejected for both inserts and updates.
package schema
