package objtypes

import (
	"sync"

	"github.com/corvidnet/netmgrd/internal/omp"
)

// LeaseType is the "lease" object type: an IP-address-keyed binding
// record, looked up by "ip-address" rather than by name the way a host
// is, to exercise a second independent key shape through the same
// registry machinery.
type LeaseType struct {
	mu     sync.Mutex
	byAddr map[string]*Lease
}

// NewLeaseType returns an empty lease type ready to register.
func NewLeaseType() *LeaseType {
	return &LeaseType{byAddr: map[string]*Lease{}}
}

func (t *LeaseType) Name() string { return "lease" }

func (t *LeaseType) Lookup(spec *omp.Bag) (omp.Object, error) {
	v, ok := spec.Get("ip-address")
	if !ok {
		return nil, omp.ErrNoKeys
	}
	addr, err := v.AsString()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.byAddr[addr]
	if !ok {
		return nil, omp.ErrNotFound
	}
	return l, nil
}

func (t *LeaseType) Create() (omp.Object, error) {
	return &Lease{typ: t}, nil
}

func (t *LeaseType) Remove(obj omp.Object) error {
	l, ok := obj.(*Lease)
	if !ok {
		return omp.ErrInvalidArg
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if l.ipAddress == "" {
		return omp.ErrNotFound
	}
	delete(t.byAddr, l.ipAddress)
	return nil
}

// Lease binds an IP address to a client identifier for a bounded time,
// expressed as an opaque "expires" value left to the caller's own clock
// representation rather than a parsed time.Time - this object type has
// no notion of wall-clock time itself, only of the fields a client sets.
type Lease struct {
	omp.Base

	typ *LeaseType

	ipAddress string
	clientID  string
	expires   uint64
}

func (l *Lease) TypeName() string { return "lease" }

func (l *Lease) SetValue(name string, v *omp.Value) error {
	switch name {
	case "ip-address":
		s, err := v.AsString()
		if err != nil {
			return err
		}
		l.rebind(s)
		return nil
	case "client-id":
		s, err := v.AsString()
		if err != nil {
			return err
		}
		l.clientID = s
		return nil
	case "expires":
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		l.expires = n
		return nil
	}
	return omp.ErrNotFound
}

func (l *Lease) GetValue(name string) (*omp.Value, error) {
	switch name {
	case "ip-address":
		return omp.String(l.ipAddress), nil
	case "client-id":
		return omp.String(l.clientID), nil
	case "expires":
		return omp.Int(l.expires), nil
	}
	return nil, omp.ErrNotFound
}

func (l *Lease) Destroy() error { return nil }

func (l *Lease) Signal(name string, args ...any) error {
	return omp.ErrNotImplemented
}

func (l *Lease) StuffValues(b *omp.Bag) error {
	b.Set("ip-address", omp.String(l.ipAddress))
	b.Set("client-id", omp.String(l.clientID))
	b.Set("expires", omp.Int(l.expires))
	return nil
}

func (l *Lease) rebind(addr string) {
	l.typ.mu.Lock()
	defer l.typ.mu.Unlock()
	if l.ipAddress != "" {
		delete(l.typ.byAddr, l.ipAddress)
	}
	l.ipAddress = addr
	l.typ.byAddr[addr] = l
}
