package engine

import "context"

// --------------------------------------------------------------------------
// Records
// --------------------------------------------------------------------------

// Record is a stored value: a flat map of field name to field value.
// The engine treats records as opaque except for in-line key extraction
// and index key extraction by field name.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// --------------------------------------------------------------------------
// Access Modes
// --------------------------------------------------------------------------

// AccessMode is the mode a transaction is opened with. Read-only
// transactions against the same database may interleave; read-write
// transactions serialize.
type AccessMode int

const (
	ReadOnly AccessMode = iota
	ReadWrite
)

func (m AccessMode) String() string {
	switch m {
	case ReadOnly:
		return "ReadOnly"
	case ReadWrite:
		return "ReadWrite"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Structural Snapshot Types
// --------------------------------------------------------------------------

// IndexInfo describes one live secondary index. Index identity is the
// keyPath it indexes, not an opaque handle.
type IndexInfo struct {
	KeyPath string
	Unique  bool
}

// StoreInfo describes one live store: its key configuration and index set.
type StoreInfo struct {
	Name          string
	KeyPath       string // empty = out-of-line key
	AutoIncrement bool
	Indexes       []IndexInfo
}

// --------------------------------------------------------------------------
// Connection Events
// --------------------------------------------------------------------------

// EventType identifies a connection lifecycle event forwarded opaquely
// from the engine.
type EventType string

const (
	EventVersionChange EventType = "versionchange"
	EventError         EventType = "error"
	EventAbort         EventType = "abort"
	EventClose         EventType = "close"
)

// Event carries one connection lifecycle notification.
type Event struct {
	Type       EventType
	Database   string
	OldVersion uint64
	NewVersion uint64
	Err        error
}

// EventHandler receives connection events. Handlers are invoked on the
// goroutine that triggered the event and must not block.
type EventHandler func(Event)

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// UpgradeFunc is invoked by the engine inside the exclusive version-upgrade
// transaction when Open requests a version higher than the stored one.
// Returning a non-nil error aborts the upgrade: the engine discards every
// structural and data edit made through tx and the database remains at
// oldVersion.
type UpgradeFunc func(tx UpgradeTx, oldVersion, newVersion uint64) error

// Engine is the storage-engine collaborator: a versioned, named collection
// of keyed object stores with secondary indexes.
type Engine interface {
	// Open opens a connection to the named database at the given version.
	//
	// Outcomes:
	//   - version equals the stored version: the connection opens directly.
	//   - version is higher: if another connection is live the open is
	//     rejected with a CodeConcurrency error (the live connections receive
	//     a versionchange event); otherwise upgrade runs inside the exclusive
	//     upgrade transaction and the connection opens on success.
	//   - version is lower than the stored version: CodeEngine error.
	Open(ctx context.Context, name string, version uint64, upgrade UpgradeFunc) (Connection, error)
}

// Connection is one live session against a database. A single connection
// handle is process-wide state for its owner: created by Open, destroyed by
// Close, and unusable afterwards.
type Connection interface {
	// Name returns the database name.
	Name() string

	// Version returns the database version this connection was opened at.
	Version() uint64

	// Begin opens a transaction over the given store scope. Passing a nil
	// scope grants access to every store. Read-write transactions hold the
	// database exclusively until Commit or Abort.
	Begin(mode AccessMode, scope []string) (Tx, error)

	// OnEvent registers a handler for connection lifecycle events.
	// Handlers registered after Close are never invoked.
	OnEvent(fn EventHandler)

	// Close tears the connection down, firing a close event first.
	// Closing an already-closed connection is a no-op.
	Close() error
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

// Tx is one atomic unit of work. All mutations are staged and become
// visible to other transactions only after Commit; Abort discards them.
type Tx interface {
	// Insert adds a record under the given key, failing with a CodeEngine
	// error if the key already exists. For stores with an in-line key path
	// the key argument must be nil (the key is extracted from the value);
	// for out-of-line stores with auto-increment a nil key is generated.
	Insert(store string, key Key, value Record) (Key, error)

	// Put upserts a record, replacing any existing record at the same key.
	// Key resolution rules match Insert.
	Put(store string, key Key, value Record) (Key, error)

	// Get fetches the record stored under key. The boolean return value
	// indicates whether a record was found.
	Get(store string, key Key) (Record, bool, error)

	// Delete removes the record stored under key. Deleting a missing key
	// is a no-op.
	Delete(store string, key Key) error

	// Clear removes every record in the store.
	Clear(store string) error

	// Count returns the number of records in the store.
	Count(store string) (uint64, error)

	// OpenCursor opens an ordered iterator over the store's records. If
	// index is non-empty, the cursor walks that index's keys; otherwise it
	// walks primary keys. rng may be nil for an unbounded walk. The cursor
	// observes this transaction's staged mutations and is finite: it is not
	// restartable once exhausted.
	OpenCursor(store, index string, rng *KeyRange, dir Direction) (Cursor, error)

	// Commit makes all staged mutations durable and releases the
	// transaction. The transaction is unusable afterwards.
	Commit() error

	// Abort discards all staged mutations and releases the transaction.
	Abort() error
}

// UpgradeTx extends Tx with the structural primitives that are permitted
// only inside the version-upgrade transaction. Commit and Abort must not
// be called on an UpgradeTx: the lifecycle of the upgrade transaction is
// owned by Open.
type UpgradeTx interface {
	Tx

	// Stores returns the live structural snapshot, sorted by store name.
	Stores() []StoreInfo

	// CreateStore creates a store with the given key configuration.
	CreateStore(name, keyPath string, autoIncrement bool) error

	// DeleteStore removes the store and all of its records and indexes.
	DeleteStore(name string) error

	// CreateIndex creates an index over keyPath, backfilling it from
	// existing records. Backfilling a unique index over data that contains
	// duplicate keys fails with a CodeEngine error.
	CreateIndex(store, keyPath string, unique bool) error

	// DeleteIndex removes the index identified by keyPath.
	DeleteIndex(store, keyPath string) error
}

// --------------------------------------------------------------------------
// Cursors
// --------------------------------------------------------------------------

// Cursor is an ordered iterator over a store's or index's records. Every
// Next call is one suspension point: the cursor is positioned on a record
// only after Next returns true.
type Cursor interface {
	// Next advances to the next record. It returns false once the cursor
	// is exhausted; an exhausted cursor stays exhausted.
	Next() (bool, error)

	// Key returns the key at the current position: the index key for index
	// cursors, the primary key otherwise.
	Key() Key

	// PrimaryKey returns the primary key of the current record.
	PrimaryKey() Key

	// Value returns the record at the current position.
	Value() (Record, error)

	// Update rewrites the current record in place. The record's primary key
	// must not change.
	Update(value Record) error

	// Delete removes the current record.
	Delete() error
}
