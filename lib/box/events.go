package box

import (
	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Event Listeners
// --------------------------------------------------------------------------

// Listener receives connection lifecycle events (versionchange, error,
// abort, close) forwarded opaquely from the engine.
type Listener func(engine.Event)

// listenerRegistry is per-connection state: created when the connection
// opens, cleared when it closes. There is no ambient global registry.
type listenerRegistry struct {
	byType *xsync.MapOf[engine.EventType, []Listener]
}

func newListenerRegistry() *listenerRegistry {
	return &listenerRegistry{
		byType: xsync.NewMapOf[engine.EventType, []Listener](),
	}
}

func (r *listenerRegistry) add(t engine.EventType, fn Listener) {
	r.byType.Compute(t, func(old []Listener, _ bool) ([]Listener, bool) {
		return append(old, fn), false
	})
}

func (r *listenerRegistry) dispatch(ev engine.Event) {
	listeners, ok := r.byType.Load(ev.Type)
	if !ok {
		return
	}
	for _, fn := range listeners {
		fn(ev)
	}
}

func (r *listenerRegistry) clear() {
	r.byType.Clear()
}

// On registers a listener for one connection event type. Listeners can only
// be registered while the database is open and are discarded at Close.
func (db *DB) On(t engine.EventType, fn Listener) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.listeners == nil {
		return boxerr.Concurrencyf("database %s is not open", db.name)
	}
	if fn != nil {
		db.listeners.add(t, fn)
	}
	return nil
}
