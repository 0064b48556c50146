package network

import (
	"errors"
	"fmt"
)

// ErrNoAddress reports that resolution completed but produced no candidate
// addresses for the requested host and service.
var ErrNoAddress = errors.New("no address candidates")

// ResolveError is returned when a host/service pair cannot be turned into a
// usable address. It is terminal for the dial attempt; retry policy belongs
// to the caller.
type ResolveError struct {
	Host    string
	Service string
	Err     error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %v:%v: %v", e.Host, e.Service, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// ConnectError is returned when the transport handshake to a resolved
// address fails. The partially-created socket has already been closed when
// this error surfaces.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %v: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ShutdownError is returned when shutting down a connection fails for a
// reason other than the peer having already disconnected. The descriptor is
// closed regardless.
type ShutdownError struct {
	Err error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("shutdown: %v", e.Err)
}

func (e *ShutdownError) Unwrap() error {
	return e.Err
}
