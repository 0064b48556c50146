package network

import (
	"context"
	"net"

	"github.com/pkg/errors"
)

// Resolver turns a host name and a service name (or port number) into an
// ordered list of candidate TCP addresses.
type Resolver interface {
	Resolve(host string, service string) ([]*net.TCPAddr, error)
}

// DefaultResolver resolves over the system resolver, IPv4 only.
var DefaultResolver Resolver = &IPResolver{}

// IPResolver resolves hosts through the system resolver, restricted to a
// single address family. The zero value resolves IPv4 stream addresses.
type IPResolver struct {
	// Network selects the address family: "ip4", "ip6", or "ip" for
	// both. Empty means "ip4"; the IPv6 path is wired but off by default.
	Network string
}

var _ Resolver = (*IPResolver)(nil)

// Resolve looks up the service port and every address of host in the
// configured family. The returned slice may be empty.
func (r *IPResolver) Resolve(host string, service string) ([]*net.TCPAddr, error) {
	network := r.Network
	if network == "" {
		network = "ip4"
	}

	port, err := net.LookupPort("tcp", service)
	if err != nil {
		return nil, errors.Wrap(err, "lookup service port")
	}

	ips, err := net.DefaultResolver.LookupIP(context.Background(), network, host)
	if err != nil {
		return nil, errors.Wrap(err, "lookup host")
	}

	addrs := make([]*net.TCPAddr, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, &net.TCPAddr{IP: ip, Port: port})
	}
	return addrs, nil
}
