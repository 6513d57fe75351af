package service

import (
	"fmt"
	"net"
)

// IfIndexResolver maps an interface name to its kernel index.
type IfIndexResolver interface {
	IfIndex(name string) (uint32, error)
}

// IfIndexFunc adapts a function to IfIndexResolver.
type IfIndexFunc func(name string) (uint32, error)

// IfIndex calls f(name).
func (f IfIndexFunc) IfIndex(name string) (uint32, error) { return f(name) }

// StaticIfIndex resolves every name to the same index.
type StaticIfIndex uint32

// IfIndex returns s.
func (s StaticIfIndex) IfIndex(string) (uint32, error) { return uint32(s), nil }

// NetResolver resolves names through the host's network interfaces.
type NetResolver struct{}

// IfIndex looks up name with net.InterfaceByName.
func (NetResolver) IfIndex(name string) (uint32, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrNoInterface, name, err)
	}
	return uint32(iface.Index), nil
}

// Compile-time interface satisfaction checks.
var (
	_ IfIndexResolver = IfIndexFunc(nil)
	_ IfIndexResolver = StaticIfIndex(0)
	_ IfIndexResolver = NetResolver{}
)
