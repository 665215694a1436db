package model

import (
	"context"
	"net"
)

// SecurityLayer opens listeners, either plain or TLS-wrapped.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a network server managed by main.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
