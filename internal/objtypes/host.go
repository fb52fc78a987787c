// Package objtypes supplies concrete omp.Object/omp.ObjectType
// implementations that exercise the registry: a host record keyed by
// name and a lease record keyed by IP address, the two object types
// cmd/netmgrd registers for the processor's OPEN/REFRESH/UPDATE/DELETE
// state machine to operate on.
package objtypes

import (
	"sync"

	"github.com/corvidnet/netmgrd/internal/omp"
)

// HostType is the "host" object type: a name/address/MAC record looked
// up by name, the same shape the OPEN-create-exclusive collision
// scenario exercises.
type HostType struct {
	mu     sync.Mutex
	byName map[string]*Host
}

// NewHostType returns an empty host type ready to register.
func NewHostType() *HostType {
	return &HostType{byName: map[string]*Host{}}
}

func (t *HostType) Name() string { return "host" }

// Lookup finds a host by its "name" field.
func (t *HostType) Lookup(spec *omp.Bag) (omp.Object, error) {
	v, ok := spec.Get("name")
	if !ok {
		return nil, omp.ErrNoKeys
	}
	name, err := v.AsString()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.byName[name]
	if !ok {
		return nil, omp.ErrNotFound
	}
	return h, nil
}

// Create returns a new, unnamed Host. It is not visible to Lookup until
// its "name" field is set via SetValue.
func (t *HostType) Create() (omp.Object, error) {
	return &Host{typ: t}, nil
}

// Remove drops h from the name index.
func (t *HostType) Remove(obj omp.Object) error {
	h, ok := obj.(*Host)
	if !ok {
		return omp.ErrInvalidArg
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if h.name == "" {
		return omp.ErrNotFound
	}
	delete(t.byName, h.name)
	return nil
}

// Host is a single host record: name, IPv4/IPv6 address, and MAC
// address, all set/get via the standard SetValue/GetValue vtable hooks.
type Host struct {
	omp.Base

	typ *HostType

	name string
	addr string
	mac  string
}

func (h *Host) TypeName() string { return "host" }

func (h *Host) SetValue(name string, v *omp.Value) error {
	switch name {
	case "name":
		s, err := v.AsString()
		if err != nil {
			return err
		}
		h.rename(s)
		return nil
	case "address":
		s, err := v.AsString()
		if err != nil {
			return err
		}
		h.addr = s
		return nil
	case "mac-address":
		s, err := v.AsString()
		if err != nil {
			return err
		}
		h.mac = s
		return nil
	}
	return omp.ErrNotFound
}

func (h *Host) GetValue(name string) (*omp.Value, error) {
	switch name {
	case "name":
		return omp.String(h.name), nil
	case "address":
		return omp.String(h.addr), nil
	case "mac-address":
		return omp.String(h.mac), nil
	}
	return nil, omp.ErrNotFound
}

// Destroy is a no-op: lifetime is owned by the handle table, not by the
// object itself.
func (h *Host) Destroy() error { return nil }

func (h *Host) Signal(name string, args ...any) error {
	return omp.ErrNotImplemented
}

// StuffValues publishes every settable field, matching what OPEN's
// create path accepts so a REFRESH round-trips the same bag OPEN
// installed.
func (h *Host) StuffValues(b *omp.Bag) error {
	b.Set("name", omp.String(h.name))
	b.Set("address", omp.String(h.addr))
	b.Set("mac-address", omp.String(h.mac))
	return nil
}

func (h *Host) rename(name string) {
	h.typ.mu.Lock()
	defer h.typ.mu.Unlock()
	if h.name != "" {
		delete(h.typ.byName, h.name)
	}
	h.name = name
	h.typ.byName[name] = h
}
