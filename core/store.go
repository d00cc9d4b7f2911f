package core

import (
	"iter"
	"log"
	"math"
)

type slot struct {
	generation uint32
	typeID     TypeID
	desc       TypeDescriptor
	instance   any

	live           bool
	pendingDestroy bool
	updateFinished bool
}

// A Store owns all live game-object instances. Instances live in a
// generation-checked slot arena; everything outside the store refers to
// them through handles. Destruction is deferred: a destroyed object's
// slot is not recycled until end-of-frame compaction, so handles
// captured earlier in the frame stay readable for that frame's remaining
// work.
//
// The store is mutated only from the scheduler thread.
type Store struct {
	registry *Registry

	slots          []slot
	free           []uint32
	pendingDestroy []uint32
	liveCount      int
	closed         bool

	onSpawn   []func(h Handle, desc TypeDescriptor, instance any)
	onDestroy []func(h Handle)
}

// NewStore creates a store backed by the given registry.
func NewStore(registry *Registry) *Store {
	return &Store{registry: registry}
}

// OnSpawn registers a callback fired for every spawned object.
func (s *Store) OnSpawn(f func(h Handle, desc TypeDescriptor, instance any)) {
	s.onSpawn = append(s.onSpawn, f)
}

// OnDestroy registers a callback fired when a destroyed object's slot is
// compacted, right before the handle becomes invalid.
func (s *Store) OnDestroy(f func(h Handle)) {
	s.onDestroy = append(s.onDestroy, f)
}

// Spawn instantiates a registered type and inserts the instance into a
// free slot. The returned handle is valid immediately.
func (s *Store) Spawn(id TypeID, args any) (Handle, error) {
	if s.closed {
		return NilHandle, StoreClosedError{Type: id}
	}

	desc, err := s.registry.Lookup(id)
	if err != nil {
		return NilHandle, err
	}

	instance, err := desc.Factory(args)
	if err != nil {
		return NilHandle, err
	}

	index := s.takeSlot()
	sl := &s.slots[index]
	sl.typeID = id
	sl.desc = desc
	sl.instance = instance
	sl.live = true
	sl.pendingDestroy = false
	sl.updateFinished = false
	s.liveCount++

	h := Handle{Index: index, Generation: sl.generation}
	for _, f := range s.onSpawn {
		f(h, desc, instance)
	}

	return h, nil
}

func (s *Store) takeSlot() uint32 {
	if n := len(s.free); n > 0 {
		index := s.free[n-1]
		s.free = s.free[:n-1]
		return index
	}

	s.slots = append(s.slots, slot{generation: 1})
	return uint32(len(s.slots) - 1)
}

// Destroy marks the object for deferred removal. The slot is recycled at
// the next Compact. Destroying an already-invalid handle returns
// InvalidHandleError, which callers observe but treat as non-fatal.
func (s *Store) Destroy(h Handle) error {
	sl := s.resolve(h)
	if sl == nil {
		return InvalidHandleError{Handle: h}
	}

	if sl.pendingDestroy {
		return nil
	}

	sl.pendingDestroy = true
	s.pendingDestroy = append(s.pendingDestroy, h.Index)

	return nil
}

// Get returns the instance the handle refers to. The instance stays
// readable after Destroy until the next Compact.
func (s *Store) Get(h Handle) (any, error) {
	sl := s.resolve(h)
	if sl == nil {
		return nil, InvalidHandleError{Handle: h}
	}

	return sl.instance, nil
}

// TypeOf returns the type ID of the object the handle refers to.
func (s *Store) TypeOf(h Handle) (TypeID, error) {
	sl := s.resolve(h)
	if sl == nil {
		return "", InvalidHandleError{Handle: h}
	}

	return sl.typeID, nil
}

// Alive reports whether the handle refers to a live object that is not
// marked for destruction. Update routines use it as their cancellation
// flag.
func (s *Store) Alive(h Handle) bool {
	sl := s.resolve(h)
	return sl != nil && !sl.pendingDestroy
}

func (s *Store) resolve(h Handle) *slot {
	if int(h.Index) >= len(s.slots) {
		return nil
	}

	sl := &s.slots[h.Index]
	if !sl.live || sl.generation != h.Generation {
		return nil
	}

	return sl
}

// Len returns the number of live objects, including those marked for
// destruction but not yet compacted.
func (s *Store) Len() int {
	return s.liveCount
}

// EachWithCapability returns a lazy, restartable sequence of the handles
// currently holding the capability. Objects marked for destruction are
// excluded; per-frame passes must not visit them.
func (s *Store) EachWithCapability(c Capability) iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		for i := range s.slots {
			sl := &s.slots[i]
			if !sl.live || sl.pendingDestroy {
				continue
			}

			if !sl.desc.HasCapability(c) {
				continue
			}

			h := Handle{Index: uint32(i), Generation: sl.generation}
			if !yield(h) {
				return
			}
		}
	}
}

// Compact frees the slots marked for destruction this frame. Each freed
// slot's generation increases so the old handles fail with
// InvalidHandleError even after the index is reused. Returns the number
// of freed slots.
func (s *Store) Compact() int {
	freed := 0

	for _, index := range s.pendingDestroy {
		sl := &s.slots[index]
		if !sl.live || !sl.pendingDestroy {
			continue
		}

		h := Handle{Index: index, Generation: sl.generation}
		for _, f := range s.onDestroy {
			f(h)
		}

		if sl.generation == math.MaxUint32 {
			log.Panicf("slot %d exhausted its generations", index)
		}

		sl.generation++
		sl.live = false
		sl.pendingDestroy = false
		sl.instance = nil
		sl.desc = TypeDescriptor{}
		sl.typeID = ""
		s.liveCount--
		s.free = append(s.free, index)
		freed++
	}

	s.pendingDestroy = s.pendingDestroy[:0]

	return freed
}

// Close rejects further spawns. The scheduler closes the store when it
// enters the stopping state.
func (s *Store) Close() {
	s.closed = true
}

// Closed reports whether the store rejects spawns.
func (s *Store) Closed() bool {
	return s.closed
}

func (s *Store) markUpdateFinished(h Handle) {
	if sl := s.resolve(h); sl != nil {
		sl.updateFinished = true
	}
}

func (s *Store) updateFinished(h Handle) bool {
	sl := s.resolve(h)
	return sl == nil || sl.updateFinished
}
