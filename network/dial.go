package network

import (
	"net"
	"time"
)

// Dialer establishes outbound TCP connections: resolve the host and
// service, connect to the first candidate address, and wrap the socket in a
// buffered stream pair. There is no retry and no timeout; a failed attempt
// reports a typed error and leaves nothing open.
type Dialer struct {
	// Resolver maps host and service names to candidate addresses.
	// Nil means DefaultResolver.
	Resolver Resolver

	// KeepAlivePeriod enables TCP keep-alive probes on established
	// connections when positive.
	KeepAlivePeriod time.Duration

	// ReadBufSize and WriteBufSize size the stream pair buffers.
	// Zero means the package default.
	ReadBufSize  int
	WriteBufSize int

	// dial performs the transport connect. A transport may return a
	// partially established connection alongside an error; Dial closes
	// it before propagating. Nil means dialTCP.
	dial func(addr *net.TCPAddr) (net.Conn, error)
}

// Dial connects to host:service and returns the buffered stream pair
// wrapping the new connection. The two streams share one close action, so
// releasing either suffices. Resolution failures, including a resolver that
// yields no candidates, surface as *ResolveError; connect failures surface
// as *ConnectError with the underlying socket already closed.
func (d *Dialer) Dial(host string, service string) (*ReadStream, *WriteStream, error) {
	conn, err := d.DialConn(host, service)
	if err != nil {
		return nil, nil, err
	}
	r, w := NewStreamPair(conn, d.ReadBufSize, d.WriteBufSize)
	return r, w, nil
}

// DialConn connects to host:service and returns the raw connection. The
// caller owns the connection and must close it.
func (d *Dialer) DialConn(host string, service string) (net.Conn, error) {
	resolver := d.Resolver
	if resolver == nil {
		resolver = DefaultResolver
	}

	addrs, err := resolver.Resolve(host, service)
	if err != nil {
		return nil, &ResolveError{Host: host, Service: service, Err: err}
	}
	if len(addrs) == 0 {
		return nil, &ResolveError{Host: host, Service: service, Err: ErrNoAddress}
	}

	addr := addrs[0]
	dial := d.dial
	if dial == nil {
		dial = dialTCP
	}

	conn, err := dial(addr)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, &ConnectError{Addr: addr.String(), Err: err}
	}

	d.tuneConn(conn)
	return conn, nil
}

// dialTCP connects over the network matching the candidate's address
// family.
func dialTCP(addr *net.TCPAddr) (net.Conn, error) {
	network := "tcp4"
	if addr.IP.To4() == nil {
		network = "tcp6"
	}
	return net.DialTCP(network, nil, addr)
}

// tuneConn applies socket options to an established connection. Failures
// here do not fail the dial.
func (d *Dialer) tuneConn(conn net.Conn) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	tc.SetNoDelay(true)
	if d.KeepAlivePeriod > 0 {
		tc.SetKeepAlive(true)
		tc.SetKeepAlivePeriod(d.KeepAlivePeriod)
	}
}
