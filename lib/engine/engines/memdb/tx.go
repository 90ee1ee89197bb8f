package memdb

import (
	"sort"

	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
)

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

// txImpl is one transaction. Read-write transactions hold the database
// write lock and stage every touched store as a copy-on-write clone in
// working; Commit swaps the clones in, Abort discards them. Read-only
// transactions hold the read lock and read live stores directly.
//
// A transaction is owned by a single goroutine; none of its methods are
// safe for concurrent use.
type txImpl struct {
	db      *database
	conn    *connection // nil for the upgrade transaction
	mode    engine.AccessMode
	scope   map[string]bool // nil = every store
	working map[string]*storeData
	upgrade bool
	done    bool
}

// newUpgradeTx builds the exclusive upgrade transaction over a full working
// copy of the database's stores. Its lifecycle (lock, commit, rollback) is
// owned by Open.
func newUpgradeTx(db *database, working map[string]*storeData) *upgradeTxImpl {
	return &upgradeTxImpl{
		txImpl: txImpl{
			db:      db,
			mode:    engine.ReadWrite,
			working: working,
			upgrade: true,
		},
	}
}

// getStore resolves the target store for an operation, enforcing scope and
// lazily staging a clone for read-write transactions.
func (t *txImpl) getStore(name string) (*storeData, error) {
	if t.done {
		return nil, boxerr.Enginef("transaction is finished")
	}
	if t.scope != nil && !t.scope[name] {
		return nil, boxerr.Enginef("store %s is outside the transaction scope", name)
	}
	if t.working != nil {
		if sd, ok := t.working[name]; ok {
			return sd, nil
		}
		if t.upgrade {
			// The upgrade working set holds every store; a miss means the
			// store does not exist (or was deleted during this upgrade).
			return nil, boxerr.Enginef("no such store %s", name)
		}
		sd, ok := t.db.stores[name]
		if !ok {
			return nil, boxerr.Enginef("no such store %s", name)
		}
		clone := sd.clone()
		t.working[name] = clone
		return clone, nil
	}
	sd, ok := t.db.stores[name]
	if !ok {
		return nil, boxerr.Enginef("no such store %s", name)
	}
	return sd, nil
}

func (t *txImpl) requireWrite() error {
	if t.mode != engine.ReadWrite {
		return boxerr.Enginef("mutation inside a read-only transaction")
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see engine/interface.go)
// --------------------------------------------------------------------------

func (t *txImpl) Insert(store string, key engine.Key, value engine.Record) (engine.Key, error) {
	if err := t.requireWrite(); err != nil {
		return nil, err
	}
	sd, err := t.getStore(store)
	if err != nil {
		return nil, err
	}
	return sd.write(key, value, false)
}

func (t *txImpl) Put(store string, key engine.Key, value engine.Record) (engine.Key, error) {
	if err := t.requireWrite(); err != nil {
		return nil, err
	}
	sd, err := t.getStore(store)
	if err != nil {
		return nil, err
	}
	return sd.write(key, value, true)
}

func (t *txImpl) Get(store string, key engine.Key) (engine.Record, bool, error) {
	sd, err := t.getStore(store)
	if err != nil {
		return nil, false, err
	}
	k, ok := engine.NormalizeKey(key)
	if !ok {
		return nil, false, boxerr.Enginef("store %s: key of invalid type %T", store, key)
	}
	rec, found := sd.get(k)
	if !found {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

func (t *txImpl) Delete(store string, key engine.Key) error {
	if err := t.requireWrite(); err != nil {
		return err
	}
	sd, err := t.getStore(store)
	if err != nil {
		return err
	}
	k, ok := engine.NormalizeKey(key)
	if !ok {
		return boxerr.Enginef("store %s: key of invalid type %T", store, key)
	}
	return sd.delete(k)
}

func (t *txImpl) Clear(store string) error {
	if err := t.requireWrite(); err != nil {
		return err
	}
	sd, err := t.getStore(store)
	if err != nil {
		return err
	}
	sd.clear()
	return nil
}

func (t *txImpl) Count(store string) (uint64, error) {
	sd, err := t.getStore(store)
	if err != nil {
		return 0, err
	}
	return sd.count(), nil
}

func (t *txImpl) OpenCursor(store, index string, rng *engine.KeyRange, dir engine.Direction) (engine.Cursor, error) {
	sd, err := t.getStore(store)
	if err != nil {
		return nil, err
	}
	return newCursor(t, store, sd, index, rng, dir)
}

func (t *txImpl) Commit() error {
	if t.upgrade {
		return boxerr.Enginef("the upgrade transaction lifecycle is owned by open")
	}
	if t.done {
		return boxerr.Enginef("transaction is finished")
	}
	t.done = true
	if t.mode == engine.ReadWrite {
		for name, sd := range t.working {
			t.db.stores[name] = sd
		}
		t.db.mu.Unlock()
	} else {
		t.db.mu.RUnlock()
	}
	return nil
}

func (t *txImpl) Abort() error {
	if t.upgrade {
		return boxerr.Enginef("the upgrade transaction lifecycle is owned by open")
	}
	if t.done {
		return boxerr.Enginef("transaction is finished")
	}
	t.done = true
	if t.mode == engine.ReadWrite {
		t.db.mu.Unlock()
	} else {
		t.db.mu.RUnlock()
	}
	if t.conn != nil {
		t.conn.emit(engine.Event{
			Type:       engine.EventAbort,
			Database:   t.db.name,
			OldVersion: t.conn.version,
			NewVersion: t.conn.version,
		})
	}
	return nil
}

// --------------------------------------------------------------------------
// Upgrade Transaction
// --------------------------------------------------------------------------

// upgradeTxImpl adds the structural primitives to txImpl. All edits land in
// the working copy; Open swaps the copy in only if the upgrade function
// returns nil.
type upgradeTxImpl struct {
	txImpl
}

func (t *upgradeTxImpl) Stores() []engine.StoreInfo {
	names := make([]string, 0, len(t.working))
	for name := range t.working {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]engine.StoreInfo, 0, len(names))
	for _, name := range names {
		sd := t.working[name]
		info := engine.StoreInfo{
			Name:          sd.name,
			KeyPath:       sd.keyPath,
			AutoIncrement: sd.autoIncrement,
		}
		keyPaths := make([]string, 0, len(sd.indexes))
		for keyPath := range sd.indexes {
			keyPaths = append(keyPaths, keyPath)
		}
		sort.Strings(keyPaths)
		for _, keyPath := range keyPaths {
			idx := sd.indexes[keyPath]
			info.Indexes = append(info.Indexes, engine.IndexInfo{KeyPath: idx.keyPath, Unique: idx.unique})
		}
		out = append(out, info)
	}
	return out
}

func (t *upgradeTxImpl) CreateStore(name, keyPath string, autoIncrement bool) error {
	if t.done {
		return boxerr.Enginef("transaction is finished")
	}
	if name == "" {
		return boxerr.Enginef("store name must not be empty")
	}
	if _, exists := t.working[name]; exists {
		return boxerr.Enginef("store %s already exists", name)
	}
	t.working[name] = newStoreData(name, keyPath, autoIncrement)
	return nil
}

func (t *upgradeTxImpl) DeleteStore(name string) error {
	if t.done {
		return boxerr.Enginef("transaction is finished")
	}
	if _, exists := t.working[name]; !exists {
		return boxerr.Enginef("no such store %s", name)
	}
	delete(t.working, name)
	return nil
}

func (t *upgradeTxImpl) CreateIndex(store, keyPath string, unique bool) error {
	if keyPath == "" {
		return boxerr.Enginef("index key path must not be empty")
	}
	sd, err := t.getStore(store)
	if err != nil {
		return err
	}
	return sd.createIndex(keyPath, unique)
}

func (t *upgradeTxImpl) DeleteIndex(store, keyPath string) error {
	sd, err := t.getStore(store)
	if err != nil {
		return err
	}
	return sd.deleteIndex(keyPath)
}
