package httpserver

import (
	"net"
	"time"
)

// listener wraps a *net.TCPListener to enable TCP keep-alive on every
// accepted connection.
type listener struct {
	*net.TCPListener
}

func listen(address string) (*listener, error) {
	nl, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	return &listener{TCPListener: nl.(*net.TCPListener)}, nil
}

func (l *listener) Accept() (net.Conn, error) {
	tc, err := l.AcceptTCP()
	if err != nil {
		return nil, err
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}
