package omp

import "sync"

// Handle is a process-wide object handle id: server-issued, zero meaning
// "no handle". Internally it packs a slot index and a generation counter
// (see HandleTable) so that a stale handle into a reused slot is rejected
// rather than silently resolving to the wrong object.
type Handle uint32

// NoHandle is the reserved "no handle" value; slot zero of every
// HandleTable is permanently unused so a real handle is never equal to it.
const NoHandle Handle = 0

const (
	handleSlotBits = 24
	handleSlotMask = (1 << handleSlotBits) - 1
)

func packHandle(slot uint32, gen uint8) Handle {
	return Handle((uint32(gen) << handleSlotBits) | (slot & handleSlotMask))
}

func unpackHandle(h Handle) (slot uint32, gen uint8) {
	v := uint32(h)
	return v & handleSlotMask, uint8(v >> handleSlotBits)
}

type handleSlot struct {
	gen    uint8
	object Object
	live   bool
}

// HandleTable maps Handle ids to objects. Ids are assigned monotonically
// within a slot's lifetime and never resolve to a different object while
// live; once removed, the slot is recycled but its generation counter has
// advanced, so any handle minted before the removal fails lookup instead of
// aliasing onto whatever got the recycled slot.
type HandleTable struct {
	mu       sync.RWMutex
	slots    []handleSlot
	free     []uint32
	byObject map[Object]Handle
}

// NewHandleTable returns an empty table.
func NewHandleTable() *HandleTable {
	return &HandleTable{slots: make([]handleSlot, 1), byObject: map[Object]Handle{}}
}

// Register returns the existing handle for obj if one is already live,
// otherwise mints a new one. Repeating the same lookup against an
// already-registered object must keep resolving to the same handle rather
// than leaking a fresh slot every time, so identity (not value equality) is
// what byObject keys on: obj's underlying type is always a pointer, so the
// same logical object always arrives here as the same map key.
func (t *HandleTable) Register(obj Object) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h, ok := t.byObject[obj]; ok {
		return h
	}

	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, handleSlot{})
	}

	s := &t.slots[idx]
	s.gen++
	s.object = obj
	s.live = true
	h := packHandle(idx, s.gen)
	t.byObject[obj] = h
	return h
}

// Lookup resolves h to its object, or ErrNotFound if h is stale, zero, or
// out of range.
func (t *HandleTable) Lookup(h Handle) (Object, error) {
	if h == NoHandle {
		return nil, ErrNotFound
	}
	idx, gen := unpackHandle(h)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(idx) >= len(t.slots) {
		return nil, ErrNotFound
	}
	s := &t.slots[idx]
	if !s.live || s.gen != gen {
		return nil, ErrNotFound
	}
	return s.object, nil
}

// LiveCount reports the number of handles currently registered, for
// registry-browse style admin API endpoints.
func (t *HandleTable) LiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for i := range t.slots {
		if t.slots[i].live {
			n++
		}
	}
	return n
}

// Remove invalidates h and recycles its slot for future Register calls.
func (t *HandleTable) Remove(h Handle) error {
	if h == NoHandle {
		return ErrNotFound
	}
	idx, gen := unpackHandle(h)

	t.mu.Lock()
	defer t.mu.Unlock()
	if int(idx) >= len(t.slots) {
		return ErrNotFound
	}
	s := &t.slots[idx]
	if !s.live || s.gen != gen {
		return ErrNotFound
	}
	obj := s.object
	s.live = false
	s.object = nil
	delete(t.byObject, obj)
	t.free = append(t.free, idx)
	return nil
}

// Lookuper, Creator, and Remover are the optional type-level vtable hooks
// an ObjectType may implement. Any of them may be absent; the processor
// treats a missing hook as NOTIMPLEMENTED.
type Lookuper interface {
	// Lookup finds an existing object from a bag of identifying values.
	// ErrNotFound and ErrNoKeys are expected, non-fatal outcomes.
	Lookup(spec *Bag) (Object, error)
}

type Creator interface {
	Create() (Object, error)
}

type Remover interface {
	Remove(obj Object) error
}

// ObjectType is registered once per type name (case-sensitive) and supplies
// whichever of Lookuper/Creator/Remover it implements.
type ObjectType interface {
	Name() string
}

// TypeRegistry is the process-wide type-name → ObjectType table.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]ObjectType
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: map[string]ObjectType{}}
}

// Register adds or replaces the type entry for t.Name().
func (r *TypeRegistry) Register(t ObjectType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.Name()] = t
}

// Lookup resolves a registered type by name.
func (r *TypeRegistry) Lookup(name string) (ObjectType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Names returns every registered type name, for registry-browse style
// admin API endpoints.
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	return names
}

// Registry bundles the type registry and the handle table the processor
// needs to service requests.
type Registry struct {
	Types   *TypeRegistry
	Handles *HandleTable
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{Types: NewTypeRegistry(), Handles: NewHandleTable()}
}
