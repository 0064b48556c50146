package network

import (
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver returns a fixed candidate list or error.
type stubResolver struct {
	addrs []*net.TCPAddr
	err   error
}

func (r *stubResolver) Resolve(host string, service string) ([]*net.TCPAddr, error) {
	return r.addrs, r.err
}

func TestDialNoCandidates(t *testing.T) {
	t.Parallel()

	var dialCalls atomic.Int32
	d := &Dialer{
		Resolver: &stubResolver{},
		dial: func(addr *net.TCPAddr) (net.Conn, error) {
			dialCalls.Add(1)
			return new(fakeConn), nil
		},
	}

	r, w, err := d.Dial("nowhere.example", "9999")
	require.Error(t, err, "an empty candidate list must fail the dial")
	assert.Nil(t, r)
	assert.Nil(t, w)

	var resolveErr *ResolveError
	require.ErrorAs(t, err, &resolveErr, "failure is typed as a resolution error")
	assert.Equal(t, "nowhere.example", resolveErr.Host)
	assert.Equal(t, "9999", resolveErr.Service)
	assert.ErrorIs(t, err, ErrNoAddress, "the no-candidates case is distinguishable")

	assert.Equal(t, int32(0), dialCalls.Load(), "no connect attempt is made without candidates")
}

func TestDialResolverError(t *testing.T) {
	t.Parallel()

	boom := errors.New("resolver down")
	d := &Dialer{Resolver: &stubResolver{err: boom}}

	_, _, err := d.Dial("db.internal", "5432")
	require.Error(t, err)

	var resolveErr *ResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.ErrorIs(t, err, boom, "the resolver's error stays reachable")
	assert.NotErrorIs(t, err, ErrNoAddress)
}

func TestDialConnectFailureClosesConn(t *testing.T) {
	t.Parallel()

	partial := new(fakeConn)
	boom := errors.New("handshake refused")
	d := &Dialer{
		Resolver: &stubResolver{addrs: []*net.TCPAddr{
			{IP: net.IPv4(127, 0, 0, 1), Port: 9},
		}},
		dial: func(addr *net.TCPAddr) (net.Conn, error) {
			return partial, boom
		},
	}

	_, _, err := d.Dial("localhost", "discard")
	require.Error(t, err)

	var connectErr *ConnectError
	require.ErrorAs(t, err, &connectErr, "failure is typed as a connect error")
	assert.Equal(t, "127.0.0.1:9", connectErr.Addr)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, int32(1), partial.closeCount.Load(), "a partially established conn is closed before the error surfaces")
}

func TestDialUsesFirstCandidate(t *testing.T) {
	t.Parallel()

	first := &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 7000}
	second := &net.TCPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 7000}

	var dialed []*net.TCPAddr
	d := &Dialer{
		Resolver: &stubResolver{addrs: []*net.TCPAddr{first, second}},
		dial: func(addr *net.TCPAddr) (net.Conn, error) {
			dialed = append(dialed, addr)
			return new(fakeConn), nil
		},
	}

	r, w, err := d.Dial("multi.example", "7000")
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	require.Len(t, dialed, 1, "exactly one connect attempt")
	assert.Same(t, first, dialed[0], "the first candidate wins")
}

func TestDialLoopback(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		r, w := NewStreamPair(conn, 0, 0)
		line, err := r.ReadLine()
		if err != nil {
			return
		}
		w.Printf("pong %v\n", line)
		w.Close()
	}()

	_, service, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	d := &Dialer{}
	r, w, err := d.Dial("127.0.0.1", service)
	require.NoError(t, err, "loopback dial through the resolver pipeline")

	require.NoError(t, w.Printf("ping\n"))
	require.NoError(t, w.Flush())

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "pong ping", line)

	require.NoError(t, w.Close())
	require.NoError(t, r.Close())
}

func TestIPResolverResolve(t *testing.T) {
	t.Parallel()

	r := &IPResolver{}

	addrs, err := r.Resolve("127.0.0.1", "80")
	require.NoError(t, err)
	require.NotEmpty(t, addrs)
	assert.Equal(t, "127.0.0.1:80", addrs[0].String())

	addrs, err = r.Resolve("127.0.0.1", "http")
	require.NoError(t, err)
	require.NotEmpty(t, addrs)
	assert.Equal(t, 80, addrs[0].Port, "service names resolve through the port lookup")
}

func TestIPResolverRejectsBadService(t *testing.T) {
	t.Parallel()

	r := &IPResolver{}
	_, err := r.Resolve("127.0.0.1", "no-such-service-zzz")
	assert.Error(t, err)
}

func TestIPResolverIPv4Only(t *testing.T) {
	t.Parallel()

	r := &IPResolver{}
	_, err := r.Resolve("::1", "80")
	assert.Error(t, err, "v6 literals do not resolve while the v4-only network is selected")
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"resolve chat.example:5222: no address candidates",
		(&ResolveError{Host: "chat.example", Service: "5222", Err: ErrNoAddress}).Error())
	assert.Equal(t,
		"connect 10.0.0.1:7000: connection refused",
		(&ConnectError{Addr: "10.0.0.1:7000", Err: errors.New("connection refused")}).Error())
	assert.Equal(t,
		"shutdown: broken pipe",
		(&ShutdownError{Err: errors.New("broken pipe")}).Error())
}
