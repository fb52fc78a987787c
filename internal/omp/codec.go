package omp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// tag identifies a Value's kind on the wire, distinct from ValueKind so the
// wire format doesn't break if the in-memory enum is ever reordered.
type tag byte

const (
	tagInt tag = iota
	tagString
	tagData
	tagObject
	tagList
)

func kindToTag(k ValueKind) tag {
	switch k {
	case KindInt:
		return tagInt
	case KindString:
		return tagString
	case KindData:
		return tagData
	case KindObject:
		return tagObject
	default:
		return tagList
	}
}

func writeValue(buf *bytes.Buffer, v *Value) {
	buf.WriteByte(byte(kindToTag(v.Kind)))
	switch v.Kind {
	case KindInt:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], v.IntVal)
		buf.Write(tmp[:])
	case KindString:
		writeLenPrefixed(buf, []byte(v.StrVal))
	case KindData:
		writeLenPrefixed(buf, v.DataVal)
	case KindObject:
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(v.ObjectVal))
		buf.Write(tmp[:])
	case KindList:
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(len(v.ListVal)))
		buf.Write(tmp[:])
		for _, sub := range v.ListVal {
			writeValue(buf, sub)
		}
	}
}

func readValue(r *bytes.Reader) (*Value, error) {
	tb, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("omp: read value tag: %w", err)
	}
	switch tag(tb) {
	case tagInt:
		var tmp [8]byte
		if _, err := io.ReadFull(r, tmp[:]); err != nil {
			return nil, fmt.Errorf("omp: read int value: %w", err)
		}
		return Int(binary.BigEndian.Uint64(tmp[:])), nil
	case tagString:
		b, err := readLenPrefixed(r)
		if err != nil {
			return nil, fmt.Errorf("omp: read string value: %w", err)
		}
		return String(string(b)), nil
	case tagData:
		b, err := readLenPrefixed(r)
		if err != nil {
			return nil, fmt.Errorf("omp: read data value: %w", err)
		}
		return Data(b), nil
	case tagObject:
		var tmp [4]byte
		if _, err := io.ReadFull(r, tmp[:]); err != nil {
			return nil, fmt.Errorf("omp: read object value: %w", err)
		}
		return ObjectRef(Handle(binary.BigEndian.Uint32(tmp[:]))), nil
	case tagList:
		var tmp [4]byte
		if _, err := io.ReadFull(r, tmp[:]); err != nil {
			return nil, fmt.Errorf("omp: read list length: %w", err)
		}
		n := binary.BigEndian.Uint32(tmp[:])
		vals := make([]*Value, 0, n)
		for i := uint32(0); i < n; i++ {
			sub, err := readValue(r)
			if err != nil {
				return nil, err
			}
			vals = append(vals, sub)
		}
		return List(vals), nil
	default:
		return nil, fmt.Errorf("omp: unknown value tag %d", tb)
	}
}

func writeLenPrefixed(buf *bytes.Buffer, b []byte) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(len(b)))
	buf.Write(tmp[:])
	buf.Write(b)
}

func readLenPrefixed(r *bytes.Reader) ([]byte, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(tmp[:])
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func writeBag(buf *bytes.Buffer, b *Bag) {
	entries := b.All()
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(len(entries)))
	buf.Write(tmp[:])
	for _, nv := range entries {
		writeLenPrefixed(buf, []byte(nv.Name))
		writeValue(buf, nv.Value)
	}
}

func readBag(r *bytes.Reader) (*Bag, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return nil, fmt.Errorf("omp: read bag length: %w", err)
	}
	n := binary.BigEndian.Uint32(tmp[:])
	bag := NewBag()
	for i := uint32(0); i < n; i++ {
		nameBytes, err := readLenPrefixed(r)
		if err != nil {
			return nil, fmt.Errorf("omp: read bag entry name: %w", err)
		}
		v, err := readValue(r)
		if err != nil {
			return nil, err
		}
		bag.Set(string(nameBytes), v)
	}
	return bag, nil
}

// Encode serializes m into its wire representation.
func Encode(m *Message) []byte {
	buf := &bytes.Buffer{}

	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], uint32(m.AuthLen))
	buf.Write(tmp4[:])

	if m.Authenticator != nil {
		buf.WriteByte(1)
		writeValue(buf, m.Authenticator)
	} else {
		buf.WriteByte(0)
	}

	var tmp8 [8]byte
	binary.BigEndian.PutUint64(tmp8[:], m.AuthID)
	buf.Write(tmp8[:])

	binary.BigEndian.PutUint32(tmp4[:], uint32(m.Op))
	buf.Write(tmp4[:])
	binary.BigEndian.PutUint32(tmp4[:], uint32(m.HandleField))
	buf.Write(tmp4[:])
	binary.BigEndian.PutUint32(tmp4[:], m.ID)
	buf.Write(tmp4[:])
	binary.BigEndian.PutUint32(tmp4[:], m.RID)
	buf.Write(tmp4[:])

	writeBag(buf, m.Object)
	writeBag(buf, m.NotifyObject)

	return buf.Bytes()
}

// Decode parses a wire-format message.
func Decode(data []byte) (*Message, error) {
	r := bytes.NewReader(data)
	m := &Message{}

	var tmp4 [4]byte
	if _, err := io.ReadFull(r, tmp4[:]); err != nil {
		return nil, fmt.Errorf("omp: decode authlen: %w", err)
	}
	m.AuthLen = int(binary.BigEndian.Uint32(tmp4[:]))

	hasAuth, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("omp: decode authenticator presence: %w", err)
	}
	if hasAuth == 1 {
		v, err := readValue(r)
		if err != nil {
			return nil, fmt.Errorf("omp: decode authenticator: %w", err)
		}
		m.Authenticator = v
	}

	var tmp8 [8]byte
	if _, err := io.ReadFull(r, tmp8[:]); err != nil {
		return nil, fmt.Errorf("omp: decode authid: %w", err)
	}
	m.AuthID = binary.BigEndian.Uint64(tmp8[:])

	if _, err := io.ReadFull(r, tmp4[:]); err != nil {
		return nil, fmt.Errorf("omp: decode op: %w", err)
	}
	m.Op = Op(binary.BigEndian.Uint32(tmp4[:]))

	if _, err := io.ReadFull(r, tmp4[:]); err != nil {
		return nil, fmt.Errorf("omp: decode handle: %w", err)
	}
	m.HandleField = Handle(binary.BigEndian.Uint32(tmp4[:]))

	if _, err := io.ReadFull(r, tmp4[:]); err != nil {
		return nil, fmt.Errorf("omp: decode id: %w", err)
	}
	m.ID = binary.BigEndian.Uint32(tmp4[:])

	if _, err := io.ReadFull(r, tmp4[:]); err != nil {
		return nil, fmt.Errorf("omp: decode rid: %w", err)
	}
	m.RID = binary.BigEndian.Uint32(tmp4[:])

	obj, err := readBag(r)
	if err != nil {
		return nil, fmt.Errorf("omp: decode object bag: %w", err)
	}
	m.Object = obj

	notify, err := readBag(r)
	if err != nil {
		return nil, fmt.Errorf("omp: decode notify_object bag: %w", err)
	}
	m.NotifyObject = notify

	return m, nil
}
