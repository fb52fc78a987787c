// Package netio implements the UDP listener fan-out core: a fixed pool of
// workers, each owning one SO_REUSEPORT kernel socket per listener, so the
// OS load-balances inbound datagrams across workers without any locking on
// the hot path. Everything above the socket (receive dispatch, outbound
// sends, graceful teardown) is modeled as commands flowing through a single
// per-worker channel, giving per-worker FIFO ordering without a shared lock.
package netio

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/corvidnet/netmgrd/internal/pool"
)

func randIntn(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.Intn(n)
}

const defaultBufferBytes = 16 * 1024 * 1024

var bufferPool = pool.New(func() *[]byte {
	b := make([]byte, 65535)
	return &b
})

// RecvCallback is invoked once per received datagram, on the worker that
// owns the socket it arrived on. handle is valid only for the duration of
// the call unless Clone()'d.
type RecvCallback func(cctx *CallCtx, handle *Handle, data []byte, cbarg any)

// udpChildSocket is one worker's kernel socket for a listener: the Go analog
// of a single SO_REUSEPORT child in the fan-out.
type udpChildSocket struct {
	tid       int
	parent    *UDPListener
	conn      *net.UDPConn
	localAddr *net.UDPAddr
	active    atomic.Bool
	closed    atomic.Bool
}

// UDPListener is one bound address, fanned out across every worker in a
// Manager. Constructed with ListenUDP.
type UDPListener struct {
	mgr      *Manager
	iface    *net.UDPAddr
	network  string
	children []*udpChildSocket

	recvCB          RecvCallback
	cbArg           any
	extraHandleSize int

	sendBufferBytes int
	recvBufferBytes int

	// firstBindExclusive controls whether the first child binds without
	// SO_REUSEPORT so that a genuinely-in-use port surfaces as a bind
	// failure immediately instead of silently fanning out to nowhere.
	firstBindExclusive bool

	mu        sync.Mutex
	cond      *sync.Cond
	remaining int
	stopping  atomic.Bool
	closed    atomic.Bool

	stats ListenerStats
}

// ListenUDPOptions configures a new listener.
type ListenUDPOptions struct {
	ExtraHandleSize    int
	SendBufferBytes    int
	RecvBufferBytes    int
	FirstBindExclusive bool
}

// ListenUDP creates one child socket per worker in mgr and asynchronously
// binds each of them. It returns as soon as the per-worker bind commands are
// queued: a child that fails to bind is counted in stats rather than failing
// the whole listener, matching the fan-out's bind-best-effort contract.
func ListenUDP(mgr *Manager, addr string, cb RecvCallback, cbarg any, opts ListenUDPOptions) (*UDPListener, error) {
	if mgr == nil {
		return nil, errors.New("netio: nil manager")
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("netio: resolve %q: %w", addr, err)
	}

	network := "udp4"
	if udpAddr.IP == nil || udpAddr.IP.To4() == nil {
		network = "udp6"
	}

	l := &UDPListener{
		mgr:                mgr,
		iface:              udpAddr,
		network:            network,
		recvCB:             cb,
		cbArg:              cbarg,
		extraHandleSize:    opts.ExtraHandleSize,
		sendBufferBytes:    opts.SendBufferBytes,
		recvBufferBytes:    opts.RecvBufferBytes,
		firstBindExclusive: opts.FirstBindExclusive,
	}
	l.cond = sync.NewCond(&l.mu)

	n := mgr.NumWorkers()
	l.children = make([]*udpChildSocket, n)
	l.remaining = n

	for i := 0; i < n; i++ {
		sock := &udpChildSocket{tid: i, parent: l}
		l.children[i] = sock
		mgr.Worker(i).enqueue(command{kind: cmdUDPListen, sock: sock})
	}

	return l, nil
}

// Stats returns a snapshot of this listener's lifetime counters.
func (l *UDPListener) Stats() ListenerStatsSnapshot {
	return l.stats.Snapshot()
}

// Addr returns the address this listener was asked to bind.
func (l *UDPListener) Addr() *net.UDPAddr { return l.iface }

func (l *UDPListener) childFailed() {
	l.childStopped()
}

func (l *UDPListener) childStopped() {
	l.mu.Lock()
	l.remaining--
	done := l.remaining <= 0
	l.mu.Unlock()
	if done {
		l.cond.Broadcast()
	}
}

func (l *UDPListener) waitForDrain() {
	l.mu.Lock()
	for l.remaining > 0 {
		l.cond.Wait()
	}
	l.mu.Unlock()
}

// Send queues data for delivery to the peer a handle was derived from. cctx
// identifies the caller: when called from within a worker's dispatch (a recv
// callback answering inline, or another send completion chaining a reply),
// the send targets that same worker. When called from outside any worker
// (the common case: application code reacting to something other than a
// datagram), the target worker is chosen uniformly at random across the
// listener's children, regardless of which socket the handle happens to
// carry - this is what makes the routing contract's statistical-uniformity
// property hold.
func (l *UDPListener) Send(cctx *CallCtx, h *Handle, data []byte, cb SendCallback, cbarg any) {
	maxudp := l.mgr.MaxUDP()
	if maxudp != 0 && len(data) > int(maxudp) {
		if cb != nil {
			cb(cctx, Success, nil, cbarg)
		}
		return
	}

	var targetTID int
	if cctx.InWorker() {
		targetTID = cctx.TID()
	} else {
		targetTID = randIntn(l.mgr.NumWorkers())
	}

	if targetTID < 0 || targetTID >= len(l.children) {
		if cb != nil {
			cb(cctx, InvalidArg, nil, cbarg)
		}
		return
	}

	sock := l.children[targetTID]
	req := acquireSendRequest(h, data, cb, cbarg)

	if cctx.InWorker() && cctx.TID() == targetTID {
		l.mgr.Worker(targetTID).sendDirect(sock, req)
		return
	}
	l.mgr.Worker(targetTID).enqueue(command{kind: cmdUDPSend, sock: sock, req: req})
}

// StopListening tears the listener down: every child socket is closed on
// its owning worker and the call blocks until all of them have confirmed.
// Must not be called from within a worker (there would be nobody left to
// service the rendezvous); violating that is a programming error and panics,
// the same way the rest of this package treats contract violations.
func StopListening(cctx *CallCtx, l *UDPListener) {
	if cctx.InWorker() {
		panic("netio: StopListening called from within a worker")
	}
	if !l.stopping.CompareAndSwap(false, true) {
		return
	}
	if l.mgr.TryAcquireInterlock() {
		doStopListening(l)
		l.mgr.ReleaseInterlock()
	} else {
		// Another teardown holds the interlock; hand our stop off to worker
		// 0 to retry once it's free instead of blocking here.
		l.mgr.Worker(0).enqueue(command{kind: cmdListenerStop, listener: l})
	}
	l.waitForDrain()
	l.closed.Store(true)
}

func retryStopListening(l *UDPListener) {
	if !l.mgr.TryAcquireInterlock() {
		l.mgr.Worker(0).enqueue(command{kind: cmdListenerStop, listener: l})
		return
	}
	defer l.mgr.ReleaseInterlock()
	doStopListening(l)
}

func doStopListening(l *UDPListener) {
	for i, child := range l.children {
		l.mgr.Worker(i).enqueue(command{kind: cmdUDPStop, sock: child})
	}
}

// bindReusePort opens a UDP socket bound to addr with SO_REUSEPORT (and
// SO_REUSEADDR) set before bind, so every worker's child socket can share the
// port and let the kernel fan datagrams out across them. When exclusive is
// true, SO_REUSEPORT is omitted so a genuinely-conflicting bind fails loudly
// instead of quietly joining an unrelated listener on the same port.
func bindReusePort(network string, addr *net.UDPAddr, exclusive bool) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(fdNetwork, fdAddr string, c syscall.RawConn) error {
			var ctrlErr error
			err := c.Control(func(fd uintptr) {
				if !exclusive {
					if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
						ctrlErr = fmt.Errorf("SO_REUSEPORT: %w", err)
						return
					}
				}
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
					ctrlErr = fmt.Errorf("SO_REUSEADDR: %w", err)
					return
				}
				if fdNetwork == "udp6" {
					if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1); err != nil {
						ctrlErr = fmt.Errorf("IPV6_V6ONLY: %w", err)
						return
					}
				}
			})
			if err != nil {
				return err
			}
			return ctrlErr
		},
	}

	pc, err := lc.ListenPacket(context.Background(), network, addr.String())
	if err != nil {
		return nil, err
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("netio: unexpected packet conn type %T", pc)
	}
	return conn, nil
}
