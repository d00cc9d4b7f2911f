package core

import (
	"log"
	"sync"

	"github.com/TheBitDrifter/mask"
)

// A TypeID is the stable identifier of an object or event type. IDs are
// unique within a process run.
type TypeID string

// A Factory creates one instance of a registered type. The store owns
// the returned instance; nothing outside the store holds it directly.
type Factory func(args any) (any, error)

// A TypeDescriptor ties a type ID to its factory and the capabilities
// its instances hold.
type TypeDescriptor struct {
	ID           TypeID
	Factory      Factory
	Capabilities mask.Mask
}

// HasCapability reports whether the descriptor carries the capability.
func (d TypeDescriptor) HasCapability(c Capability) bool {
	return d.Capabilities.Contains(uint32(c))
}

// A Registry is the process catalog of object types. Registration is
// append-only and happens during a well-defined startup phase; the
// scheduler seals the registry before the first frame, after which it is
// immutable and safe to read from any thread.
//
// Tests construct independent registries rather than sharing a global.
type Registry struct {
	mu          sync.RWMutex
	sealed      bool
	descriptors map[TypeID]TypeDescriptor
	order       []TypeID
}

// NewRegistry creates an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[TypeID]TypeDescriptor),
	}
}

// Register adds a descriptor to the registry. It fails with
// DuplicateTypeError if the ID is taken and RegistryClosedError after
// Seal.
func (r *Registry) Register(desc TypeDescriptor) error {
	if desc.ID == "" {
		log.Panic("cannot register a type with an empty ID")
	}

	if desc.Factory == nil {
		log.Panicf("type %q has no factory", desc.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return RegistryClosedError{ID: desc.ID}
	}

	if _, taken := r.descriptors[desc.ID]; taken {
		return DuplicateTypeError{ID: desc.ID}
	}

	r.descriptors[desc.ID] = desc
	r.order = append(r.order, desc.ID)

	return nil
}

// MustRegister registers a descriptor and panics on failure. Startup
// bootstrap code uses it; a failed registration there is always a
// programming error.
func (r *Registry) MustRegister(desc TypeDescriptor) {
	if err := r.Register(desc); err != nil {
		log.Panic(err)
	}
}

// Lookup returns the descriptor for the given ID, or UnknownTypeError.
func (r *Registry) Lookup(id TypeID) (TypeDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, found := r.descriptors[id]
	if !found {
		return TypeDescriptor{}, UnknownTypeError{ID: id}
	}

	return desc, nil
}

// Seal closes the registry to further registration. Sealing twice is a
// no-op.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether the registry has been sealed.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sealed
}

// Types returns the registered IDs in registration order.
func (r *Registry) Types() []TypeID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]TypeID, len(r.order))
	copy(ids, r.order)

	return ids
}
