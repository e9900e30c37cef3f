package httpserver

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nginxgod/nginxgod/internal/analytics"
	"github.com/nginxgod/nginxgod/internal/handlers"
	"github.com/nginxgod/nginxgod/internal/nginxconf"
	"github.com/nginxgod/nginxgod/internal/serverlog"
)

func TestTLSConfigForPlainServerIsNil(t *testing.T) {
	cfg := &nginxconf.ServerConfig{Type: nginxconf.HTTPServer}
	tlsConfig, err := tlsConfigFor(cfg)
	require.NoError(t, err)
	assert.Nil(t, tlsConfig)
}

func TestTLSConfigForHTTPSMissingFilesErrors(t *testing.T) {
	cfg := &nginxconf.ServerConfig{
		Type:        nginxconf.HTTPSServer,
		Certificate: "/nonexistent/cert.pem",
		PrivateKey:  "/nonexistent/key.pem",
	}
	_, err := tlsConfigFor(cfg)
	assert.Error(t, err)
}

// TestServerEndToEndGET exercises a real TCP accept loop against a
// loopback listener: a GET is dispatched through a session to the stubbed
// file handler and its 200 response is read back over the socket.
func TestServerEndToEndGET(t *testing.T) {
	port := freePort(t)
	cfg := &nginxconf.ServerConfig{Type: nginxconf.HTTPServer, Port: port}

	reg := prometheus.NewRegistry()
	hset := HandlerSet{
		File:     stubHandler{status: 200, body: "<html>spa shell</html>"},
		Redirect: stubHandler{status: 302, body: ""},
		Post:     stubHandler{status: 200, body: "{}"},
		Health:   stubHandler{status: 200, body: "ok"},
	}
	srv := New([]*nginxconf.ServerConfig{cfg}, hset, analytics.New(reg), serverlog.New(nil, ""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.Serve(ctx)
	waitForListener(t, port)

	conn, err := net.Dial("tcp", addrFor(port))
	require.NoError(t, err)
	defer conn.Close()

	conn.Write([]byte("GET /dashboard/settings HTTP/1.1\r\nHost: example.com\r\nConnection: close\r\n\r\n"))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func addrFor(port int) string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
}

func waitForListener(t *testing.T, port int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", addrFor(port))
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("listener on port %d never came up", port)
}

var _ handlers.Handler = stubHandler{}
