package httpserver

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/nginxgod/nginxgod/internal/analytics"
	"github.com/nginxgod/nginxgod/internal/handlers"
	"github.com/nginxgod/nginxgod/internal/httpmsg"
	"github.com/nginxgod/nginxgod/internal/nginxconf"
	"github.com/nginxgod/nginxgod/internal/serverlog"
)

// MaxChunk is the fixed read-buffer size a session reads into on each
// socket read.
const MaxChunk = 1024

// MaxRequest is the absolute size ceiling for one accumulated request.
const MaxRequest = 4 * MaxChunk

// HandlerSet bundles the handler instances a session dispatches to. Each
// is constructed once (not per request) and shared across every session
// on a listener.
type HandlerSet struct {
	File     handlers.Handler
	Redirect handlers.Handler
	Post     handlers.Handler
	Health   handlers.Handler
}

// session runs the read/accumulate/parse/verify/dispatch/write loop for
// one accepted connection. Exactly one of those steps is ever in flight:
// the loop is entirely synchronous within the goroutine that owns it,
// which is this server's idiomatic-Go rendering of the design's "exactly
// one event in flight per session."
type session struct {
	conn   transport
	cfg    *nginxconf.ServerConfig
	hset   HandlerSet
	counts *analytics.Counters
	log    *serverlog.Logger
}

// Serve drives the session to completion: it returns once the connection
// is closed, either because the peer went away, a protocol violation
// forced a close, or the session chose not to keep the connection alive.
func (s *session) Serve() {
	defer s.conn.Close()

	if err := s.conn.Handshake(); err != nil {
		s.log.Error("tls handshake failed: %v", err)
		return
	}

	var accumulated []byte
	for {
		chunk := make([]byte, MaxChunk)
		n, readErr := s.conn.Read(chunk)
		if n > 0 {
			accumulated = append(accumulated, chunk[:n]...)
		}

		if len(accumulated) >= MaxRequest {
			s.writeAndMaybeClose(minimalResponse(413), false)
			s.log.Warn("request exceeded MAX_REQUEST, closing")
			return
		}

		if readErr != nil {
			if readErr == io.EOF {
				s.log.Info("connection closed by peer")
			} else {
				s.log.Error("read error: %v", readErr)
			}
			return
		}

		complete, tooLarge := requestComplete(accumulated, n)
		if tooLarge {
			s.writeAndMaybeClose(minimalResponse(413), false)
			s.log.Warn("declared Content-Length exceeded MAX_REQUEST, closing")
			return
		}
		if !complete {
			continue
		}

		req, status := parseAndVerify(accumulated)
		if status != 0 {
			s.counts.Invalid.Inc()
			keepAlive := req != nil && req.KeepAlive
			s.writeAndMaybeClose(minimalResponse(status), keepAlive)
			if !keepAlive {
				return
			}
			accumulated = nil
			continue
		}

		resp := s.dispatch(req)
		if !s.writeAndMaybeClose(resp, req.KeepAlive) {
			return
		}
		if resp.Status == 413 {
			return
		}
		if !req.KeepAlive {
			return
		}
		accumulated = nil
	}
}

// dispatch implements §4.5's dispatch table, with the server-level
// return directive taking priority once a request has actually parsed
// (extracting $request_uri needs a parsed request line, so the
// short-circuit cannot fire on raw unparsed bytes as the state diagram's
// literal wording suggests).
func (s *session) dispatch(req *httpmsg.Request) *httpmsg.Response {
	if s.cfg.Ret != 0 {
		return s.hset.Redirect.Handle(req, s.cfg)
	}

	switch {
	case req.Method == http.MethodGet && req.Target == "/health":
		return s.hset.Health.Handle(req, s.cfg)
	case req.Method == http.MethodGet:
		s.counts.Gets.Inc()
		return s.hset.File.Handle(req, s.cfg)
	case req.Method == http.MethodPost:
		return s.hset.Post.Handle(req, s.cfg)
	default:
		return minimalResponse(400)
	}
}

// writeAndMaybeClose writes resp and reports whether the session should
// keep reading afterward.
func (s *session) writeAndMaybeClose(resp *httpmsg.Response, keepAlive bool) bool {
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	if resp.Header.Get("Connection") == "" {
		if keepAlive {
			resp.Header.Set("Connection", "keep-alive")
		} else {
			resp.Header.Set("Connection", "close")
		}
	}

	if err := writeResponse(s.conn, resp); err != nil {
		s.log.Error("write error: %v", err)
		return false
	}
	return keepAlive && resp.Status != 413
}

func writeResponse(w io.Writer, resp *httpmsg.Response) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", resp.Status, http.StatusText(resp.Status))
	if resp.Header.Get("Content-Length") == "" && resp.Body != nil {
		resp.Header.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	}
	resp.Header.Write(bw)
	bw.WriteString("\r\n")
	bw.Write(resp.Body)
	return bw.Flush()
}

func minimalResponse(status int) *httpmsg.Response {
	return httpmsg.NewResponse(status)
}

// requestComplete implements the request-completeness rule: if the
// headers declare a Content-Length, completeness is payload size versus
// that length; otherwise it's governed by the short-read heuristic and
// the CRLFCRLF correctness guarantee.
func requestComplete(buf []byte, lastRead int) (complete bool, tooLarge bool) {
	idx := bytes.Index(buf, []byte("\r\n\r\n"))
	if idx == -1 {
		if lastRead < MaxChunk {
			return true, false
		}
		return false, false
	}

	header := buf[:idx]
	cl, hasCL := contentLength(header)
	if hasCL {
		if cl > MaxRequest {
			return false, true
		}
		bodySize := len(buf) - (idx + 4)
		return uint64(bodySize) >= cl, false
	}

	if lastRead < MaxChunk {
		return true, false
	}
	return bytes.HasSuffix(buf, []byte("\r\n\r\n")), false
}

func contentLength(header []byte) (uint64, bool) {
	for _, line := range strings.Split(string(header), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

var allowedVersions = map[string]bool{
	"HTTP/0.9": true, "HTTP/1.0": true, "HTTP/1.1": true,
	"HTTP/2.0": true, "HTTP/3.0": true,
}

// parseAndVerify parses a complete accumulated buffer with the standard
// library's request-line/header reader (no third-party HTTP/1.1 parser
// exists in the retrieved pack to build this from instead) and runs the
// request verifier from §4.5.
func parseAndVerify(buf []byte) (*httpmsg.Request, int) {
	httpReq, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(buf)))
	if err != nil {
		return nil, 400
	}

	target := httpReq.RequestURI
	req := &httpmsg.Request{
		Request:   httpReq,
		Target:    target,
		KeepAlive: isKeepAlive(httpReq),
	}

	switch httpReq.Method {
	case http.MethodGet, http.MethodPost:
	case http.MethodDelete, http.MethodHead, http.MethodPut,
		http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return req, 405
	default:
		return req, 400
	}

	if strings.Contains(target, "..") || strings.Contains(target, "%2e") || strings.Contains(target, "%%32%65") {
		return req, 403
	}

	if !allowedVersions[httpReq.Proto] {
		return req, 505
	}

	if httpReq.Method == http.MethodPost && httpReq.Header.Get("Content-Length") == "" {
		return req, 411
	}

	return req, 0
}

func isKeepAlive(req *http.Request) bool {
	conn := req.Header.Get("Connection")
	if conn != "" {
		return strings.EqualFold(conn, "keep-alive")
	}
	return req.ProtoAtLeast(1, 1)
}
