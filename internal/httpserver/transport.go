package httpserver

import (
	"crypto/tls"
	"net"
)

// transport is the capability set a session needs from its connection:
// read/write/close plus an explicit handshake step, so TLS and plain
// connections drive the same session state machine (spec's "parametric
// over a stream type" session, rendered here as an interface instead of
// a template parameter).
type transport interface {
	net.Conn
	Handshake() error
}

// plainTransport is a no-op-handshake net.Conn, used for HTTP listeners.
type plainTransport struct {
	net.Conn
}

func (plainTransport) Handshake() error { return nil }

// tlsTransport performs the TLS server handshake on first use.
type tlsTransport struct {
	*tls.Conn
}

func (t tlsTransport) Handshake() error {
	return t.Conn.Handshake()
}

func newTransport(conn net.Conn, tlsConfig *tls.Config) transport {
	if tlsConfig == nil {
		return plainTransport{conn}
	}
	return tlsTransport{tls.Server(conn, tlsConfig)}
}
