package memdb

import (
	"github.com/google/btree"
	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
)

// btree degree for record and index trees
const treeDegree = 16

// --------------------------------------------------------------------------
// Record and Index Trees
// --------------------------------------------------------------------------

// recordItem is one stored record keyed by its normalized primary key.
type recordItem struct {
	key   engine.Key
	value engine.Record
}

func lessRecord(a, b recordItem) bool {
	return engine.CompareKeys(a.key, b.key) < 0
}

// indexItem is one index entry: the index key pointing at the primary key
// of the record that contributed it. Entries order by index key, then by
// primary key; a nil primary sorts first so it can serve as a seek pivot.
type indexItem struct {
	key     engine.Key
	primary engine.Key
}

func lessIndex(a, b indexItem) bool {
	if c := engine.CompareKeys(a.key, b.key); c != 0 {
		return c < 0
	}
	if a.primary == nil {
		return b.primary != nil
	}
	if b.primary == nil {
		return false
	}
	return engine.CompareKeys(a.primary, b.primary) < 0
}

type indexData struct {
	keyPath string
	unique  bool
	entries *btree.BTreeG[indexItem]
}

func newIndexData(keyPath string, unique bool) *indexData {
	return &indexData{
		keyPath: keyPath,
		unique:  unique,
		entries: btree.NewG(treeDegree, lessIndex),
	}
}

// owner returns the primary key of the record holding the given index key.
// The boolean return value indicates whether any record holds it.
func (i *indexData) owner(ik engine.Key) (engine.Key, bool) {
	var primary engine.Key
	found := false
	i.entries.AscendGreaterOrEqual(indexItem{key: ik}, func(it indexItem) bool {
		if engine.CompareKeys(it.key, ik) == 0 {
			primary = it.primary
			found = true
		}
		return false
	})
	return primary, found
}

// --------------------------------------------------------------------------
// Store Data
// --------------------------------------------------------------------------

// storeData is one object store: its key configuration, record tree,
// auto-increment sequence and secondary indexes. Clone produces a cheap
// copy-on-write snapshot, which is how transactions stage their mutations
// and how a failed upgrade rolls back.
type storeData struct {
	name          string
	keyPath       string // empty = out-of-line key
	autoIncrement bool
	seq           float64
	records       *btree.BTreeG[recordItem]
	indexes       map[string]*indexData
}

func newStoreData(name, keyPath string, autoIncrement bool) *storeData {
	return &storeData{
		name:          name,
		keyPath:       keyPath,
		autoIncrement: autoIncrement,
		records:       btree.NewG(treeDegree, lessRecord),
		indexes:       make(map[string]*indexData),
	}
}

func (s *storeData) clone() *storeData {
	c := &storeData{
		name:          s.name,
		keyPath:       s.keyPath,
		autoIncrement: s.autoIncrement,
		seq:           s.seq,
		records:       s.records.Clone(),
		indexes:       make(map[string]*indexData, len(s.indexes)),
	}
	for keyPath, idx := range s.indexes {
		c.indexes[keyPath] = &indexData{
			keyPath: idx.keyPath,
			unique:  idx.unique,
			entries: idx.entries.Clone(),
		}
	}
	return c
}

func cloneStores(stores map[string]*storeData) map[string]*storeData {
	out := make(map[string]*storeData, len(stores))
	for name, sd := range stores {
		out[name] = sd.clone()
	}
	return out
}

// --------------------------------------------------------------------------
// Key Resolution
// --------------------------------------------------------------------------

// resolveKey derives the effective primary key for a write, honoring the
// store's in-line/out-of-line key configuration and the auto-increment
// sequence. For in-line auto-increment stores the generated key is injected
// into a copy of the value.
func (s *storeData) resolveKey(key engine.Key, value engine.Record) (engine.Key, engine.Record, error) {
	if s.keyPath != "" {
		if key != nil {
			return nil, nil, boxerr.Enginef("store %s: explicit key conflicts with in-line key path %s", s.name, s.keyPath)
		}
		kv, ok := value[s.keyPath]
		if !ok || kv == nil {
			if !s.autoIncrement {
				return nil, nil, boxerr.Enginef("store %s: value is missing in-line key field %s", s.name, s.keyPath)
			}
			s.seq++
			value = value.Clone()
			value[s.keyPath] = s.seq
			return s.seq, value, nil
		}
		k, ok := engine.NormalizeKey(kv)
		if !ok {
			return nil, nil, boxerr.Enginef("store %s: in-line key of invalid type %T", s.name, kv)
		}
		s.bumpSeq(k)
		return k, value, nil
	}

	if key == nil {
		if !s.autoIncrement {
			return nil, nil, boxerr.Enginef("store %s: out-of-line key is required", s.name)
		}
		s.seq++
		return s.seq, value, nil
	}
	k, ok := engine.NormalizeKey(key)
	if !ok {
		return nil, nil, boxerr.Enginef("store %s: key of invalid type %T", s.name, key)
	}
	s.bumpSeq(k)
	return k, value, nil
}

// bumpSeq keeps the auto-increment sequence ahead of explicitly written
// numeric keys.
func (s *storeData) bumpSeq(k engine.Key) {
	if f, ok := k.(float64); ok && f > s.seq {
		s.seq = f
	}
}

// --------------------------------------------------------------------------
// Record Operations
// --------------------------------------------------------------------------

func (s *storeData) get(key engine.Key) (engine.Record, bool) {
	item, found := s.records.Get(recordItem{key: key})
	if !found {
		return nil, false
	}
	return item.value, true
}

// write inserts or upserts a record. With upsert=false an existing key is
// a constraint error. Unique index constraints are checked before any tree
// is touched so a failed write leaves the store unchanged.
func (s *storeData) write(key engine.Key, value engine.Record, upsert bool) (engine.Key, error) {
	k, v, err := s.resolveKey(key, value)
	if err != nil {
		return nil, err
	}

	existing, found := s.records.Get(recordItem{key: k})
	if found && !upsert {
		return nil, boxerr.Enginef("store %s: key already exists", s.name)
	}

	for _, idx := range s.indexes {
		if !idx.unique {
			continue
		}
		ik, ok, err := indexKeyOf(s.name, v, idx.keyPath)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if owner, exists := idx.owner(ik); exists && engine.CompareKeys(owner, k) != 0 {
			return nil, boxerr.Enginef("store %s: unique constraint violated on index %s", s.name, idx.keyPath)
		}
	}

	if found {
		if err := s.removeIndexEntries(existing.key, existing.value); err != nil {
			return nil, err
		}
	}
	s.records.ReplaceOrInsert(recordItem{key: k, value: v.Clone()})
	if err := s.addIndexEntries(k, v); err != nil {
		return nil, err
	}
	return k, nil
}

func (s *storeData) delete(key engine.Key) error {
	item, found := s.records.Get(recordItem{key: key})
	if !found {
		return nil
	}
	if err := s.removeIndexEntries(item.key, item.value); err != nil {
		return err
	}
	s.records.Delete(recordItem{key: key})
	return nil
}

// clear drops every record and index entry. The auto-increment sequence is
// deliberately preserved.
func (s *storeData) clear() {
	s.records = btree.NewG(treeDegree, lessRecord)
	for keyPath, idx := range s.indexes {
		s.indexes[keyPath] = newIndexData(idx.keyPath, idx.unique)
	}
}

func (s *storeData) count() uint64 {
	return uint64(s.records.Len())
}

// --------------------------------------------------------------------------
// Index Maintenance
// --------------------------------------------------------------------------

// indexKeyOf extracts and normalizes the index key contributed by a record.
// A missing or nil field contributes no entry.
func indexKeyOf(store string, value engine.Record, keyPath string) (engine.Key, bool, error) {
	v, ok := value[keyPath]
	if !ok || v == nil {
		return nil, false, nil
	}
	ik, ok := engine.NormalizeKey(v)
	if !ok {
		return nil, false, boxerr.Enginef("store %s: field %s of type %T is not indexable", store, keyPath, v)
	}
	return ik, true, nil
}

func (s *storeData) addIndexEntries(primary engine.Key, value engine.Record) error {
	for _, idx := range s.indexes {
		ik, ok, err := indexKeyOf(s.name, value, idx.keyPath)
		if err != nil {
			return err
		}
		if ok {
			idx.entries.ReplaceOrInsert(indexItem{key: ik, primary: primary})
		}
	}
	return nil
}

func (s *storeData) removeIndexEntries(primary engine.Key, value engine.Record) error {
	for _, idx := range s.indexes {
		ik, ok, err := indexKeyOf(s.name, value, idx.keyPath)
		if err != nil {
			return err
		}
		if ok {
			idx.entries.Delete(indexItem{key: ik, primary: primary})
		}
	}
	return nil
}

// createIndex registers a new index and backfills it from existing records.
// Backfilling a unique index over duplicate keys is a constraint error and
// leaves the store without the index.
func (s *storeData) createIndex(keyPath string, unique bool) error {
	if _, exists := s.indexes[keyPath]; exists {
		return boxerr.Enginef("store %s: index %s already exists", s.name, keyPath)
	}
	idx := newIndexData(keyPath, unique)
	var backfillErr error
	s.records.Ascend(func(it recordItem) bool {
		ik, ok, err := indexKeyOf(s.name, it.value, keyPath)
		if err != nil {
			backfillErr = err
			return false
		}
		if !ok {
			return true
		}
		if unique {
			if _, exists := idx.owner(ik); exists {
				backfillErr = boxerr.Enginef("store %s: unique constraint violated backfilling index %s", s.name, keyPath)
				return false
			}
		}
		idx.entries.ReplaceOrInsert(indexItem{key: ik, primary: it.key})
		return true
	})
	if backfillErr != nil {
		return backfillErr
	}
	s.indexes[keyPath] = idx
	return nil
}

func (s *storeData) deleteIndex(keyPath string) error {
	if _, exists := s.indexes[keyPath]; !exists {
		return boxerr.Enginef("store %s: no such index %s", s.name, keyPath)
	}
	delete(s.indexes, keyPath)
	return nil
}
