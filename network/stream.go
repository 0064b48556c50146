package network

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"syscall"
)

// defaultBufSize is the buffer size used by stream pairs when the caller
// does not pick one.
const defaultBufSize = 4096

// closer tears a socket down exactly once: shut down both directions, then
// release the descriptor. The first call records the outcome; later calls
// replay it without touching the socket again.
type closer struct {
	conn net.Conn
	once sync.Once
	err  error
}

// Close runs the teardown on first use and returns the recorded outcome on
// every call.
func (c *closer) Close() error {
	c.once.Do(func() {
		c.err = c.teardown()
	})
	return c.err
}

// teardown shuts the connection down and closes it. The descriptor is
// released even when shutdown fails; a shutdown failure other than the peer
// having already disconnected surfaces as *ShutdownError.
func (c *closer) teardown() (err error) {
	defer func() {
		cerr := c.conn.Close()
		if err == nil && cerr != nil {
			err = cerr
		}
	}()

	if serr := shutdownConn(c.conn); serr != nil {
		return &ShutdownError{Err: serr}
	}
	return nil
}

// halfCloser is the shutdown surface of duplex connections. *net.TCPConn
// implements it.
type halfCloser interface {
	CloseWrite() error
	CloseRead() error
}

// shutdownConn closes both halves of a duplex connection. A "not connected"
// failure means the peer beat us to it and is treated as success. Connections
// without half-close support have no shutdown step.
func shutdownConn(conn net.Conn) error {
	hc, ok := conn.(halfCloser)
	if !ok {
		return nil
	}
	if err := hc.CloseWrite(); err != nil && !errors.Is(err, syscall.ENOTCONN) {
		return err
	}
	if err := hc.CloseRead(); err != nil && !errors.Is(err, syscall.ENOTCONN) {
		return err
	}
	return nil
}

// ReadStream is the buffered read half of a managed connection.
type ReadStream struct {
	r *bufio.Reader
	c *closer
}

// Read reads into p from the connection buffer.
func (s *ReadStream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// ReadLine reads up to the next newline and returns the line without its
// trailing "\n" or "\r\n".
func (s *ReadStream) ReadLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		return line, err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// Close tears down the connection shared with the paired WriteStream.
// Closing both halves still closes the socket only once.
func (s *ReadStream) Close() error {
	return s.c.Close()
}

// WriteStream is the buffered write half of a managed connection.
type WriteStream struct {
	w *bufio.Writer
	c *closer
}

// Write buffers p for the connection.
func (s *WriteStream) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// WriteString buffers str for the connection.
func (s *WriteStream) WriteString(str string) (int, error) {
	return s.w.WriteString(str)
}

// Printf buffers formatted text for the connection. Call Flush to push it
// onto the wire.
func (s *WriteStream) Printf(format string, args ...any) error {
	_, err := fmt.Fprintf(s.w, format, args...)
	return err
}

// Flush writes any buffered data to the connection.
func (s *WriteStream) Flush() error {
	return s.w.Flush()
}

// Close flushes buffered data, then tears down the connection shared with
// the paired ReadStream.
func (s *WriteStream) Close() error {
	ferr := s.w.Flush()
	cerr := s.c.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}

// NewStreamPair wraps an established connection in buffered read and write
// streams that share a single close action: releasing either stream (or
// both) shuts down and closes the socket at most once. Buffer sizes of zero
// or less fall back to the default.
func NewStreamPair(conn net.Conn, readBufSize int, writeBufSize int) (*ReadStream, *WriteStream) {
	if readBufSize <= 0 {
		readBufSize = defaultBufSize
	}
	if writeBufSize <= 0 {
		writeBufSize = defaultBufSize
	}

	c := &closer{conn: conn}
	r := &ReadStream{r: bufio.NewReaderSize(conn, readBufSize), c: c}
	w := &WriteStream{w: bufio.NewWriterSize(conn, writeBufSize), c: c}
	return r, w
}
