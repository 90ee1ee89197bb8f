package box

import (
	"context"
	"sync"

	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
	"github.com/leegeunhyeok/box-db/lib/migration"
	"github.com/leegeunhyeok/box-db/lib/schema"
	"github.com/leegeunhyeok/box-db/lib/task"
	"github.com/leegeunhyeok/box-db/lib/transaction"
)

// EngineFactory is a function type that creates the engine backing a DB.
// This is used to abstract the creation of the engine from the facade.
type EngineFactory func() engine.Engine

// --------------------------------------------------------------------------
// Database Facade
// --------------------------------------------------------------------------

// DB is one application-facing database session: declared models, the
// connection handle and the coordinator routing tasks through it. Models
// are declared before Open; operations are issued after.
type DB struct {
	eng      engine.Engine
	name     string
	registry *schema.Registry

	mu        sync.RWMutex
	conn      engine.Connection
	coord     *transaction.Coordinator
	listeners *listenerRegistry
}

// New creates a database session for the named database at the target
// version, backed by the factory's engine.
func New(factory EngineFactory, name string, version uint64) *DB {
	return &DB{
		eng:      factory(),
		name:     name,
		registry: schema.NewRegistry(version),
	}
}

// Create declares a store: its name, field schema and options. It returns
// the model handle used to build and run tasks once the database is open.
// Declaration conflicts fail with a CodeDefinition error; declaring after
// Open fails with a CodeConcurrency error.
func (db *DB) Create(name string, s schema.Schema, opts *schema.ModelOptions) (*Model, error) {
	meta, err := schema.NewModel(name, s, opts)
	if err != nil {
		return nil, err
	}
	if err := db.registry.Register(meta); err != nil {
		return nil, err
	}
	return &Model{db: db, meta: meta}, nil
}

// Open connects to the engine. If the engine reports that a version
// upgrade is needed, the migration reconciler runs inside that single
// upgrade transaction; a reconciliation failure aborts the upgrade, leaves
// the database at its prior structural version and rejects the open as a
// whole. Opening while another, older connection is live elsewhere is
// rejected with a CodeConcurrency error.
func (db *DB) Open(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.conn != nil {
		return boxerr.Concurrencyf("database %s is already open", db.name)
	}
	db.registry.Seal()

	conn, err := db.eng.Open(ctx, db.name, db.registry.Version(), func(tx engine.UpgradeTx, _, _ uint64) error {
		return migration.Reconcile(tx, db.registry)
	})
	if err != nil {
		return err
	}

	coord, err := transaction.NewCoordinator(conn, db.registry, nil)
	if err != nil {
		conn.Close()
		return err
	}

	// The listener registry lives exactly as long as the connection.
	db.listeners = newListenerRegistry()
	conn.OnEvent(db.listeners.dispatch)

	db.conn = conn
	db.coord = coord
	return nil
}

// Ready reports whether the database is open.
func (db *DB) Ready() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn != nil
}

// Close tears the session down: the coordinator stops accepting tasks, the
// connection closes (firing its close event) and the listener registry is
// cleared. Closing a database that is not open is a no-op.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.conn == nil {
		return nil
	}
	db.coord.Close()
	err := db.conn.Close()
	db.listeners.clear()
	db.listeners = nil
	db.conn = nil
	db.coord = nil
	return err
}

// coordinator returns the live coordinator, or a CodeConcurrency error when
// the database is not ready.
func (db *DB) coordinator() (*transaction.Coordinator, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.coord == nil {
		return nil, boxerr.Concurrencyf("database %s is not open", db.name)
	}
	return db.coord, nil
}

// --------------------------------------------------------------------------
// Task Routing
// --------------------------------------------------------------------------

// Run submits one task for immediate execution.
func (db *DB) Run(ctx context.Context, t *task.Task) (transaction.Result, error) {
	coord, err := db.coordinator()
	if err != nil {
		return transaction.Result{}, err
	}
	return coord.Run(ctx, t).Await(ctx)
}

// RunAll executes an ordered batch of deferred tasks atomically: either
// every task's effect commits or none do.
func (db *DB) RunAll(ctx context.Context, tasks ...*task.Task) error {
	coord, err := db.coordinator()
	if err != nil {
		return err
	}
	_, err = coord.RunAll(ctx, tasks).Await(ctx)
	return err
}

// Interrupt returns the cancellation task. Placed in a RunAll batch it
// aborts that batch; run standalone it aborts the currently open
// transaction scope.
func (db *DB) Interrupt() *task.Task {
	return task.Interrupt()
}
