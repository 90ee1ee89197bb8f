package memdb

import (
	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
)

// --------------------------------------------------------------------------
// Cursors
// --------------------------------------------------------------------------

// cursorEntry is one traversal position: the key the cursor reports and the
// primary key it resolves to. For primary cursors the two are identical.
type cursorEntry struct {
	key     engine.Key
	primary engine.Key
}

// memCursor walks a position list materialized at open time, resolving the
// current record from the store at each step so it observes the
// transaction's staged mutations. It is finite and not restartable: a fresh
// bulk call opens a fresh cursor.
type memCursor struct {
	tx      *txImpl
	store   *storeData
	entries []cursorEntry
	pos     int
	current engine.Record
}

func newCursor(tx *txImpl, storeName string, sd *storeData, index string, rng *engine.KeyRange, dir engine.Direction) (engine.Cursor, error) {
	if rng != nil {
		if err := rng.Validate(); err != nil {
			return nil, boxerr.Enginef("store %s: %v", storeName, err)
		}
	}

	var entries []cursorEntry
	if index != "" {
		idx, ok := sd.indexes[index]
		if !ok {
			return nil, boxerr.Enginef("store %s: no such index %s", storeName, index)
		}
		entries = collectIndexEntries(idx, rng)
	} else {
		entries = collectPrimaryEntries(sd, rng)
	}

	if dir.Reverse() {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
	if dir.Unique() {
		entries = dedupeKeys(entries)
	}

	return &memCursor{
		tx:      tx,
		store:   sd,
		entries: entries,
		pos:     -1,
	}, nil
}

// collectPrimaryEntries walks the record tree in ascending key order,
// keeping keys inside the range and stopping early past the upper bound.
func collectPrimaryEntries(sd *storeData, rng *engine.KeyRange) []cursorEntry {
	var entries []cursorEntry
	sd.records.Ascend(func(it recordItem) bool {
		if stop, skip := rangeStep(rng, it.key); stop {
			return false
		} else if skip {
			return true
		}
		entries = append(entries, cursorEntry{key: it.key, primary: it.key})
		return true
	})
	return entries
}

// collectIndexEntries walks the index tree in ascending (index key, primary
// key) order.
func collectIndexEntries(idx *indexData, rng *engine.KeyRange) []cursorEntry {
	var entries []cursorEntry
	idx.entries.Ascend(func(it indexItem) bool {
		if stop, skip := rangeStep(rng, it.key); stop {
			return false
		} else if skip {
			return true
		}
		entries = append(entries, cursorEntry{key: it.key, primary: it.primary})
		return true
	})
	return entries
}

// rangeStep classifies a key during an ascending walk: stop once the upper
// bound is passed, skip keys below the lower bound.
func rangeStep(rng *engine.KeyRange, key engine.Key) (stop, skip bool) {
	if rng == nil {
		return false, false
	}
	if rng.Upper != nil {
		c := engine.CompareKeys(key, rng.Upper)
		if c > 0 || (c == 0 && rng.UpperOpen) {
			return true, false
		}
	}
	return false, !rng.Contains(key)
}

// dedupeKeys keeps the first entry of every run of duplicate keys, in the
// already-applied traversal order.
func dedupeKeys(entries []cursorEntry) []cursorEntry {
	out := entries[:0]
	for i, e := range entries {
		if i > 0 && engine.CompareKeys(entries[i-1].key, e.key) == 0 {
			continue
		}
		out = append(out, e)
	}
	return out
}

// --------------------------------------------------------------------------
// Interface Methods (docu see engine/interface.go)
// --------------------------------------------------------------------------

func (c *memCursor) Next() (bool, error) {
	if c.tx.done {
		return false, boxerr.Enginef("transaction is finished")
	}
	for c.pos+1 < len(c.entries) {
		c.pos++
		// Records removed by this transaction after the position list was
		// materialized are skipped.
		rec, found := c.store.get(c.entries[c.pos].primary)
		if found {
			c.current = rec
			return true, nil
		}
	}
	c.pos = len(c.entries)
	c.current = nil
	return false, nil
}

func (c *memCursor) positioned() bool {
	return c.pos >= 0 && c.pos < len(c.entries) && c.current != nil
}

func (c *memCursor) Key() engine.Key {
	if !c.positioned() {
		return nil
	}
	return c.entries[c.pos].key
}

func (c *memCursor) PrimaryKey() engine.Key {
	if !c.positioned() {
		return nil
	}
	return c.entries[c.pos].primary
}

func (c *memCursor) Value() (engine.Record, error) {
	if !c.positioned() {
		return nil, boxerr.Enginef("cursor is not positioned on a record")
	}
	return c.current.Clone(), nil
}

func (c *memCursor) Update(value engine.Record) error {
	if !c.positioned() {
		return boxerr.Enginef("cursor is not positioned on a record")
	}
	if err := c.tx.requireWrite(); err != nil {
		return err
	}
	primary := c.entries[c.pos].primary

	if c.store.keyPath != "" {
		kv, ok := value[c.store.keyPath]
		if !ok || kv == nil {
			return boxerr.Enginef("store %s: update is missing in-line key field %s", c.store.name, c.store.keyPath)
		}
		k, ok := engine.NormalizeKey(kv)
		if !ok || engine.CompareKeys(k, primary) != 0 {
			return boxerr.Enginef("store %s: cursor update must not change the primary key", c.store.name)
		}
		_, err := c.store.write(nil, value, true)
		if err != nil {
			return err
		}
	} else {
		if _, err := c.store.write(primary, value, true); err != nil {
			return err
		}
	}
	c.current = value.Clone()
	return nil
}

func (c *memCursor) Delete() error {
	if !c.positioned() {
		return boxerr.Enginef("cursor is not positioned on a record")
	}
	if err := c.tx.requireWrite(); err != nil {
		return err
	}
	if err := c.store.delete(c.entries[c.pos].primary); err != nil {
		return err
	}
	c.current = nil
	return nil
}
