package migration

import (
	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
	"github.com/leegeunhyeok/box-db/lib/schema"
)

// --------------------------------------------------------------------------
// Migration Reconciler
// --------------------------------------------------------------------------

// Reconcile diffs the schema registry against the engine's live structural
// snapshot and applies the minimal set of structural edits: create/delete
// store, create/delete/alter index. It is called exactly once per version
// upgrade, inside the engine's exclusive upgrade transaction.
//
// The procedure is single-pass and fails fast: the first illegal transition
// returns an error before any further engine call, and the engine's native
// upgrade rollback restores the prior structural state in full. Reconciling
// an unchanged registry against matching live structure performs zero
// structural edits.
func Reconcile(tx engine.UpgradeTx, reg *schema.Registry) error {
	live := tx.Stores()
	liveByName := make(map[string]engine.StoreInfo, len(live))
	for _, info := range live {
		liveByName[info.Name] = info
	}

	// Live stores with no registry entry were removed by the application.
	for _, info := range live {
		if _, declared := reg.Get(info.Name); !declared {
			if err := tx.DeleteStore(info.Name); err != nil {
				return err
			}
		}
	}

	for _, meta := range reg.Models() {
		info, exists := liveByName[meta.Name]

		if exists && meta.Force {
			// Forced stores are dropped here and recreated below as if new.
			if err := tx.DeleteStore(meta.Name); err != nil {
				return err
			}
			exists = false
		}

		if exists {
			if err := reconcileStore(tx, meta, info); err != nil {
				return err
			}
			continue
		}

		if err := createStore(tx, meta); err != nil {
			return err
		}
	}

	return nil
}

// reconcileStore brings one existing store into agreement with its
// declaration without touching its data.
func reconcileStore(tx engine.UpgradeTx, meta *schema.ModelMeta, info engine.StoreInfo) error {
	// Key configuration is immutable once the store exists; changing it
	// requires the force flag and a full recreation.
	if info.KeyPath != meta.PrimaryKeyPath || info.AutoIncrement != meta.AutoIncrement {
		return boxerr.Definitionf(
			"store %s: key configuration (keyPath=%q autoIncrement=%t) cannot change to (keyPath=%q autoIncrement=%t) without force",
			meta.Name, info.KeyPath, info.AutoIncrement, meta.PrimaryKeyPath, meta.AutoIncrement,
		)
	}

	declared := make(map[string]schema.IndexSpec, len(meta.IndexList))
	for _, idx := range meta.IndexList {
		declared[idx.KeyPath] = idx
	}

	// Index identity is the keyPath it indexes, so the diff is keyPath-set
	// based rather than full-index-object based.
	for _, liveIdx := range info.Indexes {
		want, ok := declared[liveIdx.KeyPath]
		if !ok {
			if err := tx.DeleteIndex(meta.Name, liveIdx.KeyPath); err != nil {
				return err
			}
			continue
		}
		delete(declared, liveIdx.KeyPath)

		if liveIdx.Unique == want.Unique {
			continue
		}
		if want.Unique {
			// Existing duplicate values may violate the new constraint and
			// cannot be validated without a destructive rescan.
			return boxerr.Definitionf("store %s: index %s cannot be promoted from non-unique to unique without force", meta.Name, liveIdx.KeyPath)
		}
		// unique -> non-unique relaxes the constraint: recreate in place
		if err := tx.DeleteIndex(meta.Name, liveIdx.KeyPath); err != nil {
			return err
		}
		if err := tx.CreateIndex(meta.Name, liveIdx.KeyPath, false); err != nil {
			return err
		}
	}

	// Declared indexes with no live counterpart, in declaration order.
	for _, idx := range meta.IndexList {
		if _, missing := declared[idx.KeyPath]; missing {
			if err := tx.CreateIndex(meta.Name, idx.KeyPath, idx.Unique); err != nil {
				return err
			}
		}
	}

	return nil
}

// createStore materializes a new (or force-recreated) store with its
// declared key configuration and every declared index.
func createStore(tx engine.UpgradeTx, meta *schema.ModelMeta) error {
	if err := tx.CreateStore(meta.Name, meta.PrimaryKeyPath, meta.AutoIncrement); err != nil {
		return err
	}
	for _, idx := range meta.IndexList {
		if err := tx.CreateIndex(meta.Name, idx.KeyPath, idx.Unique); err != nil {
			return err
		}
	}
	return nil
}
