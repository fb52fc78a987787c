package omp

import "errors"

// Object is one node in a layered inner/outer object stack (§3/§9 of the
// design this package implements): a concrete type owns its own fields and
// defers anything it doesn't recognize to Inner. Outer is a weak
// back-reference used only for upward notification and must never be
// treated as an ownership edge — Inner is the only strong link, so a cycle
// between the two can never keep the stack alive.
//
// SetValue/GetValue/Signal attempt to handle a request against the
// receiver's own fields only; returning ErrNotFound tells the package-level
// SetValueChain/GetValueChain/SignalChain helpers to retry against Inner.
type Object interface {
	TypeName() string

	Inner() Object
	Outer() Object
	SetInner(Object)
	SetOuter(Object)

	SetValue(name string, v *Value) error
	GetValue(name string) (*Value, error)
	Destroy() error
	Signal(name string, args ...any) error
	StuffValues(b *Bag) error
}

// Base supplies the inner/outer plumbing so concrete object types only need
// to implement the hooks they actually care about.
type Base struct {
	inner Object
	outer Object
}

func (b *Base) Inner() Object      { return b.inner }
func (b *Base) Outer() Object      { return b.outer }
func (b *Base) SetInner(o Object)  { b.inner = o }
func (b *Base) SetOuter(o Object)  { b.outer = o }

// Link wraps inner with outer, establishing both sides of the relationship
// in one call so the a.Inner()==b ⇒ b.Outer()==a invariant can't be left
// half-set.
func Link(outer, inner Object) {
	outer.SetInner(inner)
	inner.SetOuter(outer)
}

// SetValueChain walks from o toward Inner, stopping at the first layer that
// handles name. Returns ErrNotFound if no layer does.
func SetValueChain(o Object, name string, v *Value) error {
	for cur := o; cur != nil; cur = cur.Inner() {
		err := cur.SetValue(name, v)
		if err == nil {
			return nil
		}
		if !isNotFound(err) {
			return err
		}
	}
	return ErrNotFound
}

// GetValueChain is the Get analog of SetValueChain.
func GetValueChain(o Object, name string) (*Value, error) {
	for cur := o; cur != nil; cur = cur.Inner() {
		v, err := cur.GetValue(name)
		if err == nil {
			return v, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// SignalChain delivers name to o, falling through to Inner if unrecognized.
func SignalChain(o Object, name string, args ...any) error {
	for cur := o; cur != nil; cur = cur.Inner() {
		err := cur.Signal(name, args...)
		if err == nil {
			return nil
		}
		if !isNotFound(err) && !errors.Is(err, ErrNotImplemented) {
			return err
		}
	}
	return ErrNotImplemented
}

// StuffValuesChain writes every layer's published values into b, starting
// from the innermost layer so outer layers can overwrite a name the inner
// layer also publishes.
func StuffValuesChain(o Object, b *Bag) error {
	if o == nil {
		return nil
	}
	if err := StuffValuesChain(o.Inner(), b); err != nil {
		return err
	}
	return o.StuffValues(b)
}

// UpdateObject applies every name/value pair in spec to obj via
// SetValueChain, matching object.update(spec, handle) from the processor's
// OPEN/UPDATE handling. The full OPEN/UPDATE value bag is passed through
// unfiltered, including protocol control fields like type/create/exclusive
// that no object layer claims; a field no layer recognizes (ErrNotFound)
// is therefore skipped rather than treated as a failure, since the bag is
// never guaranteed to contain only fields the object stack understands.
// Any other error aborts immediately and is returned.
func UpdateObject(obj Object, spec *Bag) error {
	if spec == nil {
		return nil
	}
	for _, nv := range spec.All() {
		if err := SetValueChain(obj, nv.Name, nv.Value); err != nil && !isNotFound(err) {
			return err
		}
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
