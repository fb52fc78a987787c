package netio

import "net"

// commandKind enumerates the messages a worker's dispatch loop understands.
// All of them travel through the same per-worker channel, so a worker always
// processes recvs, sends, and stops for its own sockets in submission order.
type commandKind int

const (
	cmdUDPListen commandKind = iota
	cmdUDPStop
	cmdUDPSend
	cmdUDPRecv
	cmdListenerStop
	cmdFunc
)

type command struct {
	kind commandKind

	sock *udpChildSocket
	req  *sendRequest

	recvBuf  *[]byte
	recvN    int
	recvPeer *net.UDPAddr

	listener *UDPListener

	fn func()
}
