package memdb

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// memEngine holds every database created through it in a process-wide
// registry. Databases are created on first open and live until the process
// exits.
type memEngine struct {
	dbs *xsync.MapOf[string, *database]
}

// New creates a new in-memory engine instance.
//
// Thread-safety: the returned engine and every connection derived from it
// are safe for concurrent use; conflicting read-write transactions
// serialize on a per-database lock.
func New() engine.Engine {
	return &memEngine{
		dbs: xsync.NewMapOf[string, *database](),
	}
}

// database is one named, versioned database: its structural state, its
// record data and the set of live connections.
type database struct {
	name    string
	mu      sync.RWMutex // read-write transactions exclusive, read-only shared
	version uint64
	stores  map[string]*storeData
	conns   *xsync.MapOf[string, *connection]
}

func (d *database) connCount() int {
	return d.conns.Size()
}

func (d *database) broadcast(ev engine.Event) {
	d.conns.Range(func(_ string, c *connection) bool {
		c.emit(ev)
		return true
	})
}

// Open implements engine.Engine.
func (e *memEngine) Open(ctx context.Context, name string, version uint64, upgrade engine.UpgradeFunc) (engine.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, boxerr.Abortf("open canceled: %v", err)
	}
	if name == "" {
		return nil, boxerr.Enginef("database name must not be empty")
	}
	if version == 0 {
		return nil, boxerr.Enginef("database version must be at least 1")
	}

	db, _ := e.dbs.LoadOrCompute(name, func() *database {
		return &database{
			name:   name,
			stores: make(map[string]*storeData),
			conns:  xsync.NewMapOf[string, *connection](),
		}
	})

	db.mu.Lock()
	defer db.mu.Unlock()

	switch {
	case version < db.version:
		return nil, boxerr.Enginef("database %s is at version %d, cannot open at older version %d", name, db.version, version)

	case version > db.version:
		// An open attempt that needs an upgrade while older connections are
		// still live is rejected before any upgrade logic runs. The live
		// connections are told to get out of the way.
		if db.connCount() > 0 {
			db.broadcast(engine.Event{
				Type:       engine.EventVersionChange,
				Database:   name,
				OldVersion: db.version,
				NewVersion: version,
			})
			return nil, boxerr.Concurrencyf("database %s: upgrade to version %d blocked by %d open connection(s)", name, version, db.connCount())
		}

		// The upgrade runs against a copy-on-write snapshot. A failed
		// upgrade discards the snapshot, leaving the prior structural state
		// and version intact.
		working := cloneStores(db.stores)
		if upgrade != nil {
			utx := newUpgradeTx(db, working)
			if err := upgrade(utx, db.version, version); err != nil {
				utx.done = true
				return nil, err
			}
			utx.done = true
		}
		db.stores = working
		db.version = version
	}

	conn := &connection{
		id:      uuid.NewString(),
		db:      db,
		version: db.version,
	}
	db.conns.Store(conn.id, conn)
	return conn, nil
}

// --------------------------------------------------------------------------
// Connection
// --------------------------------------------------------------------------

type connection struct {
	id      string
	db      *database
	version uint64
	closed  atomic.Bool

	hmu      sync.Mutex
	handlers []engine.EventHandler
}

func (c *connection) Name() string {
	return c.db.name
}

func (c *connection) Version() uint64 {
	return c.version
}

func (c *connection) OnEvent(fn engine.EventHandler) {
	if fn == nil || c.closed.Load() {
		return
	}
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.handlers = append(c.handlers, fn)
}

func (c *connection) emit(ev engine.Event) {
	c.hmu.Lock()
	handlers := make([]engine.EventHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.hmu.Unlock()
	for _, fn := range handlers {
		fn(ev)
	}
}

func (c *connection) Begin(mode engine.AccessMode, scope []string) (engine.Tx, error) {
	if c.closed.Load() {
		return nil, boxerr.Concurrencyf("database %s: connection is closed", c.db.name)
	}

	if mode == engine.ReadWrite {
		c.db.mu.Lock()
	} else {
		c.db.mu.RLock()
	}

	var scopeSet map[string]bool
	if scope != nil {
		scopeSet = make(map[string]bool, len(scope))
		for _, name := range scope {
			scopeSet[name] = true
		}
	}

	tx := &txImpl{
		db:    c.db,
		conn:  c,
		mode:  mode,
		scope: scopeSet,
	}
	if mode == engine.ReadWrite {
		tx.working = make(map[string]*storeData)
	}
	return tx, nil
}

func (c *connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.emit(engine.Event{Type: engine.EventClose, Database: c.db.name, OldVersion: c.version, NewVersion: c.version})
	c.db.conns.Delete(c.id)
	c.hmu.Lock()
	c.handlers = nil
	c.hmu.Unlock()
	return nil
}
