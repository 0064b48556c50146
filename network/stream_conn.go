package network

import (
	"net"
	"sync"

	"github.com/yinyihanbing/gutils/logs"
)

// ConnSet represents a set of connections.
type ConnSet map[net.Conn]struct{}

// StreamConn wraps a stream-oriented net.Conn with write buffering and
// message framing. TCP and KCP sessions both run through it. A graceful
// close drains the write channel, then the pump releases the socket through
// the same one-shot shutdown-then-close teardown stream pairs use.
type StreamConn struct {
	sync.Mutex
	conn      net.Conn
	closer    *closer
	writeChan chan []byte
	closeFlag bool
	msgParser *MsgParser
}

// newStreamConn creates a new StreamConn instance.
func newStreamConn(conn net.Conn, pendingWriteNum int, msgParser *MsgParser) *StreamConn {
	streamConn := new(StreamConn)
	streamConn.conn = conn
	streamConn.closer = &closer{conn: conn}
	streamConn.writeChan = make(chan []byte, pendingWriteNum)
	streamConn.msgParser = msgParser

	// goroutine to handle writing to the connection
	go func() {
		for b := range streamConn.writeChan {
			if b == nil {
				break
			}

			_, err := conn.Write(b)
			if err != nil {
				logs.Debug("error writing to connection: ", err)
				break
			}
		}

		streamConn.closer.Close()
		streamConn.Lock()
		streamConn.closeFlag = true
		streamConn.Unlock()
	}()

	return streamConn
}

// doDestroy forcibly closes the connection and cleans up resources.
func (streamConn *StreamConn) doDestroy() {
	if tc, ok := streamConn.conn.(*net.TCPConn); ok {
		tc.SetLinger(0)
	}
	streamConn.conn.Close()

	if !streamConn.closeFlag {
		close(streamConn.writeChan)
		streamConn.closeFlag = true
	}
}

// Destroy closes the connection and releases resources.
func (streamConn *StreamConn) Destroy() {
	streamConn.Lock()
	defer streamConn.Unlock()

	streamConn.doDestroy()
}

// Close signals the connection to close gracefully.
func (streamConn *StreamConn) Close() {
	streamConn.Lock()
	defer streamConn.Unlock()
	if streamConn.closeFlag {
		return
	}

	streamConn.doWrite(nil) // signal to close
	streamConn.closeFlag = true
}

// doWrite writes data to the write channel or destroys the connection if the channel is full.
func (streamConn *StreamConn) doWrite(b []byte) {
	if len(streamConn.writeChan) == cap(streamConn.writeChan) {
		logs.Debug("close connection: write channel full")
		streamConn.doDestroy()
		return
	}

	streamConn.writeChan <- b
}

// Write sends data to the connection. The data must not be modified by other goroutines.
func (streamConn *StreamConn) Write(b []byte) {
	streamConn.Lock()
	defer streamConn.Unlock()
	if streamConn.closeFlag || b == nil {
		logs.Debug("write failed: connection closed or nil data")
		return
	}

	streamConn.doWrite(b)
}

// Read reads data from the connection into the provided buffer.
func (streamConn *StreamConn) Read(b []byte) (int, error) {
	return streamConn.conn.Read(b)
}

// LocalAddr returns the local network address of the connection.
func (streamConn *StreamConn) LocalAddr() net.Addr {
	return streamConn.conn.LocalAddr()
}

// RemoteAddr returns the remote network address of the connection.
func (streamConn *StreamConn) RemoteAddr() net.Addr {
	return streamConn.conn.RemoteAddr()
}

// ReadMsg reads a complete message from the connection using the message parser.
func (streamConn *StreamConn) ReadMsg() ([]byte, error) {
	return streamConn.msgParser.Read(streamConn)
}

// WriteMsg writes one or more messages to the connection using the message parser.
func (streamConn *StreamConn) WriteMsg(args ...[]byte) error {
	return streamConn.msgParser.Write(streamConn, args...)
}
