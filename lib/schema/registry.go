package schema

import (
	"github.com/leegeunhyeok/box-db/lib/boxerr"
)

// --------------------------------------------------------------------------
// Schema Registry
// --------------------------------------------------------------------------

// Registry holds every declared store for one target database version.
// Models are registered before the connection opens; the registry is sealed
// by the open procedure and read-only afterwards until close.
type Registry struct {
	version uint64
	models  map[string]*ModelMeta
	order   []string
	sealed  bool
}

// NewRegistry creates an empty registry for the given target version.
func NewRegistry(version uint64) *Registry {
	return &Registry{
		version: version,
		models:  make(map[string]*ModelMeta),
	}
}

// Version returns the target database version.
func (r *Registry) Version() uint64 {
	return r.version
}

// Register adds a model declaration. Registering a duplicate store name or
// registering after the registry is sealed fails with a CodeDefinition or
// CodeConcurrency error respectively.
func (r *Registry) Register(meta *ModelMeta) error {
	if r.sealed {
		return boxerr.Concurrencyf("registry for version %d is sealed: declare stores before open", r.version)
	}
	if meta == nil {
		return boxerr.Definitionf("model metadata is required")
	}
	if _, exists := r.models[meta.Name]; exists {
		return boxerr.Definitionf("store %s is already registered", meta.Name)
	}
	r.models[meta.Name] = meta
	r.order = append(r.order, meta.Name)
	return nil
}

// Seal freezes the registry. Called once by the open procedure.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether the registry has been frozen by open.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Get returns the model registered under name. The boolean return value
// indicates whether the store is declared.
func (r *Registry) Get(name string) (*ModelMeta, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Models returns every registered model in declaration order.
func (r *Registry) Models() []*ModelMeta {
	out := make([]*ModelMeta, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.models[name])
	}
	return out
}
