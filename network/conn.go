package network

import (
	"net"
)

// Conn is a framed connection as seen by agents. TCP, KCP, and WebSocket
// transports all satisfy it.
type Conn interface {
	// ReadMsg reads one framed message from the connection.
	ReadMsg() ([]byte, error)

	// WriteMsg frames the message parts and queues them on the connection.
	WriteMsg(args ...[]byte) error

	// LocalAddr returns the local network address of the connection.
	LocalAddr() net.Addr

	// RemoteAddr returns the remote network address of the connection.
	RemoteAddr() net.Addr

	// Close closes the connection gracefully. Queued writes are flushed
	// before the socket is released.
	Close()

	// Destroy forcefully closes the connection and releases resources.
	Destroy()
}
