package omp

// Connection is the minimal outbound surface the protocol glue needs: write
// one encoded message frame. The framed, stateful transport itself (TCP,
// TLS, whatever carries OMP bytes) is out of scope for this package.
type Connection interface {
	WriteFrame(data []byte) error
}

// SendStatus builds and writes a STATUS message replying to rid, carrying
// result (taken from the shared netio.Result taxonomy via ResultOf) and an
// optional human-readable message.
func SendStatus(conn Connection, id uint32, resultErr error, rid uint32, text string) error {
	m := &Message{Op: OpStatus, ID: id, RID: rid, Object: NewBag()}
	m.Object.Set("result", Int(uint64(ResultOf(resultErr))))
	if text != "" {
		m.Object.Set("message", String(text))
	}
	return conn.WriteFrame(Encode(m))
}

// SendUpdate builds and writes an UPDATE message carrying obj's published
// attributes (via the object stack's StuffValuesChain) back to the peer.
func SendUpdate(conn Connection, id uint32, rid uint32, handle Handle, obj Object) error {
	m := &Message{Op: OpUpdate, ID: id, RID: rid, HandleField: handle, Object: NewBag()}
	if obj != nil {
		if err := StuffValuesChain(obj, m.Object); err != nil {
			return err
		}
	}
	return conn.WriteFrame(Encode(m))
}
