// Package httpmsg holds the request/response shapes shared between a
// session and the handlers it dispatches to, so neither package needs to
// import the other.
package httpmsg

import "net/http"

// Request is a fully-accumulated, parsed HTTP/1.1 request, plus the
// session-computed facts a handler needs but net/http's Request does not
// carry directly.
type Request struct {
	*http.Request

	// Target is the raw request-target as it appeared on the request
	// line, before net/http resolves it against a URL.
	Target string

	// KeepAlive reports whether the session should stay open after the
	// response for this request is written.
	KeepAlive bool
}

// Response is the handler-produced result the session writes back,
// independent of net/http.Response so handlers can build one without a
// live connection.
type Response struct {
	Status  int
	Header  http.Header
	Body    []byte
}

// NewResponse returns a Response with an initialized header map.
func NewResponse(status int) *Response {
	return &Response{Status: status, Header: make(http.Header)}
}
