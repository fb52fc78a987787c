package omp

import (
	"fmt"
	"sync/atomic"

	"github.com/corvidnet/netmgrd/internal/netio"
)

// Processor implements the OPEN/REFRESH/UPDATE/NOTIFY/STATUS/DELETE state
// machine: it consults the object registry through the typed value model
// and produces outbound messages via the protocol glue (SendStatus /
// SendUpdate).
type Processor struct {
	Registry  *Registry
	Registrar *Registrar

	// OnMutate, if set, is called after every OPEN-create, OPEN-update, and
	// DELETE attempt, successful or not - the hook point an admin-operation
	// audit ledger hangs off of without the processor needing to know
	// anything about persistence.
	OnMutate func(verb string, typeName string, handle Handle, err error)

	idCounter atomic.Uint32
}

// NewProcessor builds a Processor bound to reg.
func NewProcessor(reg *Registry) *Processor {
	return &Processor{Registry: reg, Registrar: NewRegistrar()}
}

func (p *Processor) reportMutate(verb, typeName string, handle Handle, err error) {
	if p.OnMutate != nil {
		p.OnMutate(verb, typeName, handle, err)
	}
}

func (p *Processor) nextID() uint32 {
	return p.idCounter.Add(1)
}

// Process handles one fully-parsed inbound message on conn. Protocol-level
// problems are serialized into a STATUS reply whenever a request id is
// available; Process itself returns an error only when no response can be
// constructed at all (a dangling rid with nothing registered to match it).
func (p *Processor) Process(msg *Message, conn Connection) error {
	var matched *Message
	if msg.RID != 0 {
		m, ok := p.Registrar.Find(msg.RID)
		if !ok {
			return ErrNotFound
		}
		matched = m
	}

	switch msg.Op {
	case OpOpen:
		return p.processOpen(msg, conn)
	case OpRefresh:
		return p.processRefresh(msg, conn)
	case OpUpdate:
		return p.processUpdate(msg, conn, matched)
	case OpNotify:
		return SendStatus(conn, p.nextID(), ErrNotImplemented, msg.ID, "notify not implemented")
	case OpStatus:
		return p.processStatus(msg, matched)
	case OpDelete:
		return p.processDelete(msg, conn)
	default:
		return SendStatus(conn, p.nextID(), ErrInvalidArg, msg.ID, "unknown op")
	}
}

func (p *Processor) processOpen(msg *Message, conn Connection) error {
	if msg.RID != 0 {
		return SendStatus(conn, p.nextID(), ErrInvalidArg, msg.ID, "OPEN cannot be a response")
	}

	typeName, hasType := optString(msg.Object, "type")
	create := optBool(msg.Object, "create")
	update := optBool(msg.Object, "update")
	exclusive := optBool(msg.Object, "exclusive")

	if !hasType {
		if create {
			return SendStatus(conn, p.nextID(), ErrInvalidArg, msg.ID, "create requires a type")
		}
		return p.processRefresh(msg, conn)
	}

	ot, ok := p.Registry.Types.Lookup(typeName)
	if !ok {
		return SendStatus(conn, p.nextID(), ErrNotImplemented, msg.ID, fmt.Sprintf("unknown type %q", typeName))
	}
	lookuper, ok := ot.(Lookuper)
	if !ok {
		return SendStatus(conn, p.nextID(), ErrNotImplemented, msg.ID, "type has no lookup")
	}
	if msg.Object == nil || msg.Object.Len() == 0 {
		return SendStatus(conn, p.nextID(), ErrNotFound, msg.ID, "no lookup key specified")
	}

	obj, lookupErr := lookuper.Lookup(msg.Object)
	found := lookupErr == nil
	if lookupErr != nil && !isNotFound(lookupErr) && !errorIsNoKeys(lookupErr) {
		return SendStatus(conn, p.nextID(), lookupErr, msg.ID, statusText(lookupErr))
	}

	if !found && !create {
		return SendStatus(conn, p.nextID(), ErrNotFound, msg.ID, "not found")
	}
	if found && create && exclusive {
		return SendStatus(conn, p.nextID(), ErrExists, msg.ID, "object exists")
	}

	if !found {
		creator, ok := ot.(Creator)
		if !ok {
			return SendStatus(conn, p.nextID(), ErrNotImplemented, msg.ID, "type has no create")
		}
		newObj, err := creator.Create()
		if err != nil {
			return SendStatus(conn, p.nextID(), err, msg.ID, statusText(err))
		}
		obj = newObj
	}

	if create || update {
		err := UpdateObject(obj, msg.Object)
		verb := "update"
		if create {
			verb = "create"
		}
		p.reportMutate(verb, typeName, NoHandle, err)
		if err != nil {
			return SendStatus(conn, p.nextID(), err, msg.ID, statusText(err))
		}
	}

	h := p.Registry.Handles.Register(obj)
	return SendUpdate(conn, p.nextID(), msg.ID, h, obj)
}

func (p *Processor) processRefresh(msg *Message, conn Connection) error {
	obj, err := p.Registry.Handles.Lookup(msg.HandleField)
	if err != nil {
		return SendStatus(conn, p.nextID(), err, msg.ID, "no matching handle")
	}
	return SendUpdate(conn, p.nextID(), msg.ID, msg.HandleField, obj)
}

func (p *Processor) processUpdate(msg *Message, conn Connection, matched *Message) error {
	var obj Object
	var err error

	if matched != nil && matched.ResolvedObject != nil {
		obj = matched.ResolvedObject
	} else {
		obj, err = p.Registry.Handles.Lookup(msg.HandleField)
	}

	if err == nil {
		err = UpdateObject(obj, msg.Object)
		typeName := ""
		if obj != nil {
			typeName = obj.TypeName()
		}
		p.reportMutate("update", typeName, msg.HandleField, err)
	}

	if msg.RID == 0 {
		if sErr := SendStatus(conn, p.nextID(), err, msg.ID, statusText(err)); sErr != nil {
			return sErr
		}
	}
	if matched != nil {
		matched.signal("status", ResultOf(err), statusText(err))
	}
	return nil
}

// processStatus delivers a STATUS reply's result/message to the matched
// outstanding request's signal handler. Must have a matched message; the
// nil check happens before any field of it is touched, resolving the
// STATUS-before-rid-check hazard by construction. Returns Success
// regardless of what the carried result was - a well-formed STATUS is
// always itself successfully processed.
func (p *Processor) processStatus(msg *Message, matched *Message) error {
	if matched == nil {
		return ErrNotFound
	}

	result := netio.Unexpected
	if v, ok := msg.Object.Get("result"); ok {
		if n, err := v.AsInt(); err == nil {
			result = netio.Result(n)
		}
	}
	text, _ := optString(msg.Object, "message")

	matched.signal("status", result, text)
	return nil
}

func (p *Processor) processDelete(msg *Message, conn Connection) error {
	obj, err := p.Registry.Handles.Lookup(msg.HandleField)
	if err != nil {
		return SendStatus(conn, p.nextID(), err, msg.ID, "no matching handle")
	}

	ot, ok := p.Registry.Types.Lookup(obj.TypeName())
	if !ok {
		return SendStatus(conn, p.nextID(), ErrNotImplemented, msg.ID, "unknown type")
	}
	remover, ok := ot.(Remover)
	if !ok {
		return SendStatus(conn, p.nextID(), ErrNotImplemented, msg.ID, "type has no remove")
	}

	rErr := remover.Remove(obj)
	if rErr == nil {
		_ = p.Registry.Handles.Remove(msg.HandleField)
	}
	p.reportMutate("delete", obj.TypeName(), msg.HandleField, rErr)
	return SendStatus(conn, p.nextID(), rErr, msg.ID, statusText(rErr))
}

func optString(b *Bag, name string) (string, bool) {
	v, ok := b.Get(name)
	if !ok {
		return "", false
	}
	s, err := v.AsString()
	if err != nil {
		return "", false
	}
	return s, true
}

func optBool(b *Bag, name string) bool {
	v, ok := b.Get(name)
	if !ok {
		return false
	}
	n, err := v.AsInt()
	if err != nil {
		return false
	}
	return n != 0
}

func errorIsNoKeys(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Result == netio.NoKeys
}
