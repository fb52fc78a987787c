package netio

import (
	"net"
	"sync/atomic"
)

// Handle is the per-datagram handle passed to a receive callback: a
// lightweight, reference-counted binding of a peer address to the child
// socket that received it. Callbacks that need to hold onto a handle past
// their own return (to answer asynchronously) must Clone it first; the
// dispatch loop drops its own reference when the callback returns.
type Handle struct {
	sock  *udpChildSocket
	peer  *net.UDPAddr
	local *net.UDPAddr
	extra []byte
	refs  atomic.Int32
}

func newHandle(sock *udpChildSocket, peer, local *net.UDPAddr, extraSize int) *Handle {
	h := &Handle{sock: sock, peer: peer, local: local}
	h.refs.Store(1)
	if extraSize > 0 {
		h.extra = make([]byte, extraSize)
	}
	return h
}

// Clone takes an additional reference on the handle. Safe to call from any
// goroutine.
func (h *Handle) Clone() *Handle {
	h.refs.Add(1)
	return h
}

// Release drops a reference. Once the count reaches zero the handle no
// longer pins anything and must not be used again.
func (h *Handle) Release() {
	h.refs.Add(-1)
}

// RefCount reports the current reference count, mostly useful for tests
// asserting that a handle's count returns to its pre-send value.
func (h *Handle) RefCount() int32 {
	return h.refs.Load()
}

// Peer is the remote address the datagram arrived from (or will be sent to).
func (h *Handle) Peer() *net.UDPAddr { return h.peer }

// Local is the local address of the socket that owns this handle.
func (h *Handle) Local() *net.UDPAddr { return h.local }

// Extra is an opaque, caller-sized scratch region carried alongside the
// handle, analogous to extrahandlesize in the listener-level API.
func (h *Handle) Extra() []byte { return h.extra }

// DetachSock clears the handle's socket binding. Used when a socket is torn
// down out from under handles that are still referenced elsewhere; after
// this call the handle retains its addresses. Send routes by worker rather
// than by the handle's socket, so a detached handle can still be sent on.
func (h *Handle) DetachSock() {
	h.sock = nil
}
