package netio

import (
	"log/slog"
	"net"
)

// Worker owns a disjoint slice of the listener fan-out: a set of child
// sockets and the single goroutine that is the only thing allowed to touch
// their conns. Everything that must happen "on" a worker — binding a child
// socket, delivering a received datagram, writing a reply, tearing a child
// down — is funneled through cmds so that per-worker ordering is FIFO and a
// socket is never mutated from two goroutines at once.
//
// Packet reads happen on a dedicated per-socket goroutine (runRecvLoop)
// rather than in this loop, since a single goroutine cannot simultaneously
// block in ReadFromUDP and select on cmds. That feeder goroutine never
// touches the conn for anything but Read, and never invokes the recv
// callback itself: it hands the datagram back to this loop as a cmdUDPRecv
// so the callback still runs with this worker's CallCtx.
type Worker struct {
	tid    int
	mgr    *Manager
	cmds   chan command
	done   chan struct{}
	logger *slog.Logger
}

func newWorker(tid int, mgr *Manager, queueLen int) *Worker {
	return &Worker{
		tid:    tid,
		mgr:    mgr,
		cmds:   make(chan command, queueLen),
		done:   make(chan struct{}),
		logger: mgr.logger.With("component", "netio.worker", "tid", tid),
	}
}

func (w *Worker) run() {
	for {
		select {
		case <-w.done:
			w.drainOnShutdown()
			return
		case cmd := <-w.cmds:
			w.dispatch(cmd)
		}
	}
}

// drainOnShutdown finishes dispatching anything already queued so that
// outstanding sends still get a completion (sent, or CANCELED if their
// socket is no longer active) instead of silently vanishing.
func (w *Worker) drainOnShutdown() {
	for {
		select {
		case cmd := <-w.cmds:
			w.dispatch(cmd)
		default:
			return
		}
	}
}

func (w *Worker) enqueue(cmd command) {
	select {
	case w.cmds <- cmd:
	case <-w.done:
		w.cancelCommand(cmd)
	}
}

func (w *Worker) cancelCommand(cmd command) {
	switch cmd.kind {
	case cmdUDPSend:
		cmd.req.complete(workerCtx(w.tid), Canceled, nil)
	case cmdUDPRecv:
		bufferPool.Put(cmd.recvBuf)
	}
}

func (w *Worker) dispatch(cmd command) {
	switch cmd.kind {
	case cmdUDPListen:
		w.startUDPChild(cmd.sock)
	case cmdUDPStop:
		w.stopUDPChild(cmd.sock)
	case cmdUDPSend:
		w.sendDirect(cmd.sock, cmd.req)
	case cmdUDPRecv:
		w.handleRecv(cmd.sock, cmd.recvBuf, cmd.recvN, cmd.recvPeer)
	case cmdListenerStop:
		retryStopListening(cmd.listener)
	case cmdFunc:
		cmd.fn()
	}
}

func (w *Worker) startUDPChild(sock *udpChildSocket) {
	l := sock.parent
	conn, err := bindReusePort(l.network, l.iface, sock.tid == 0 && l.firstBindExclusive)
	if err != nil {
		l.stats.bindFail.Add(1)
		l.stats.openFail.Add(1)
		w.logger.Warn("udp child bind failed", "listen", l.iface.String(), "child", sock.tid, "err", err)
		l.childFailed()
		return
	}

	sendBuf := l.sendBufferBytes
	if sendBuf <= 0 {
		sendBuf = defaultBufferBytes
	}
	recvBuf := l.recvBufferBytes
	if recvBuf <= 0 {
		recvBuf = defaultBufferBytes
	}
	_ = conn.SetWriteBuffer(sendBuf)
	_ = conn.SetReadBuffer(recvBuf)

	sock.conn = conn
	sock.localAddr, _ = conn.LocalAddr().(*net.UDPAddr)
	sock.active.Store(true)
	l.stats.open.Add(1)

	go w.runRecvLoop(sock)
}

func (w *Worker) runRecvLoop(sock *udpChildSocket) {
	for {
		buf := bufferPool.Get()
		n, peer, err := sock.conn.ReadFromUDP(*buf)
		if err != nil {
			bufferPool.Put(buf)
			return
		}
		cmd := command{kind: cmdUDPRecv, sock: sock, recvBuf: buf, recvN: n, recvPeer: peer}
		select {
		case w.cmds <- cmd:
		case <-w.done:
			bufferPool.Put(buf)
			return
		}
	}
}

func (w *Worker) handleRecv(sock *udpChildSocket, buf *[]byte, n int, peer *net.UDPAddr) {
	defer bufferPool.Put(buf)

	if !sock.active.Load() {
		return
	}

	maxudp := sock.parent.mgr.MaxUDP()
	if maxudp != 0 && n > int(maxudp) {
		sock.parent.stats.recvDrop.Add(1)
		return
	}

	cb := sock.parent.recvCB
	if cb == nil {
		return
	}

	handle := newHandle(sock, cloneUDPAddr(peer), sock.localAddr, sock.parent.extraHandleSize)
	cctx := workerCtx(w.tid)
	cb(cctx, handle, (*buf)[:n], sock.parent.cbArg)
	handle.Release()
}

func (w *Worker) sendDirect(sock *udpChildSocket, req *sendRequest) {
	cctx := workerCtx(w.tid)

	if !sock.active.Load() {
		sock.parent.stats.sendFail.Add(1)
		req.complete(cctx, Canceled, nil)
		return
	}

	peer := req.handle.Peer()
	_, err := sock.conn.WriteToUDP(req.data, peer)
	if err != nil {
		sock.parent.stats.sendFail.Add(1)
		result, wrapped := MapOSError(err)
		req.complete(cctx, result, wrapped)
		return
	}
	req.complete(cctx, Success, nil)
}

func (w *Worker) stopUDPChild(sock *udpChildSocket) {
	if sock.closed.Load() {
		return
	}
	sock.active.Store(false)
	if sock.conn != nil {
		_ = sock.conn.Close()
	}
	sock.closed.Store(true)
	sock.parent.stats.closeCnt.Add(1)
	sock.parent.childStopped()
}

func cloneUDPAddr(a *net.UDPAddr) *net.UDPAddr {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
