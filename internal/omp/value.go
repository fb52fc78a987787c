package omp

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindString
	KindData
	KindObject
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindData:
		return "data"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a tagged variant over the typed-value model's closed set of
// shapes: int, string, opaque bytes, a handle reference to another
// registered object, or a list of further values.
type Value struct {
	Kind      ValueKind
	IntVal    uint64
	StrVal    string
	DataVal   []byte
	ObjectVal Handle
	ListVal   []*Value
}

func Int(v uint64) *Value    { return &Value{Kind: KindInt, IntVal: v} }
func String(s string) *Value { return &Value{Kind: KindString, StrVal: s} }

func Data(b []byte) *Value {
	cp := append([]byte(nil), b...)
	return &Value{Kind: KindData, DataVal: cp}
}

func ObjectRef(h Handle) *Value   { return &Value{Kind: KindObject, ObjectVal: h} }
func List(vs []*Value) *Value     { return &Value{Kind: KindList, ListVal: vs} }

// AsInt returns the underlying int, or ErrWrongType if this value isn't one.
func (v *Value) AsInt() (uint64, error) {
	if v == nil || v.Kind != KindInt {
		return 0, ErrWrongType
	}
	return v.IntVal, nil
}

// AsString returns the value as a string. Both string and data values are
// accepted, since the wire table lists several fields as "string/data"
// interchangeably (e.g. OPEN's "type").
func (v *Value) AsString() (string, error) {
	if v == nil {
		return "", ErrWrongType
	}
	switch v.Kind {
	case KindString:
		return v.StrVal, nil
	case KindData:
		return string(v.DataVal), nil
	default:
		return "", ErrWrongType
	}
}

// AsData returns the value as raw bytes.
func (v *Value) AsData() ([]byte, error) {
	if v == nil {
		return nil, ErrWrongType
	}
	switch v.Kind {
	case KindData:
		return v.DataVal, nil
	case KindString:
		return []byte(v.StrVal), nil
	default:
		return nil, ErrWrongType
	}
}

// AsHandle returns the value as an object handle reference.
func (v *Value) AsHandle() (Handle, error) {
	if v == nil || v.Kind != KindObject {
		return NoHandle, ErrWrongType
	}
	return v.ObjectVal, nil
}

// NamedValue is one (name, value) pair in a Bag. Name comparison throughout
// this package is the plain byte-exact Go string comparison: Go strings
// already carry their own length and are never NUL-terminated, so there is
// no analog of the original's "NUL is not a terminator" caveat to encode.
type NamedValue struct {
	Name  string
	Value *Value
}

// Bag is an ordered sequence of named values with no duplicate names: Set
// overwrites any existing entry for the same name rather than appending a
// second one, which is what makes the no-duplicates invariant hold by
// construction instead of needing to be checked.
type Bag struct {
	values []NamedValue
}

// NewBag returns an empty bag.
func NewBag() *Bag { return &Bag{} }

// Set inserts or overwrites the value for name.
func (b *Bag) Set(name string, v *Value) {
	if b == nil {
		return
	}
	for i := range b.values {
		if b.values[i].Name == name {
			b.values[i].Value = v
			return
		}
	}
	b.values = append(b.values, NamedValue{Name: name, Value: v})
}

// Get looks up name, reporting whether it was present.
func (b *Bag) Get(name string) (*Value, bool) {
	if b == nil {
		return nil, false
	}
	for _, nv := range b.values {
		if nv.Name == name {
			return nv.Value, true
		}
	}
	return nil, false
}

// Delete removes name if present.
func (b *Bag) Delete(name string) {
	if b == nil {
		return
	}
	for i := range b.values {
		if b.values[i].Name == name {
			b.values = append(b.values[:i], b.values[i+1:]...)
			return
		}
	}
}

// Len reports the number of entries.
func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.values)
}

// All returns a copy of the bag's entries in insertion order.
func (b *Bag) All() []NamedValue {
	if b == nil {
		return nil
	}
	out := make([]NamedValue, len(b.values))
	copy(out, b.values)
	return out
}
