package handlers

import (
	"strings"

	"github.com/nginxgod/nginxgod/internal/httpmsg"
	"github.com/nginxgod/nginxgod/internal/nginxconf"
)

// RedirectHandler builds the response for a server's `return` directive.
type RedirectHandler struct{}

// NewRedirectHandler builds a handlerregistry.Factory for RedirectHandler.
func NewRedirectHandler() func() interface{} {
	return func() interface{} { return &RedirectHandler{} }
}

func (h *RedirectHandler) Handle(req *httpmsg.Request, cfg *nginxconf.ServerConfig) *httpmsg.Response {
	resp := httpmsg.NewResponse(cfg.Ret)
	setConnectionHeader(resp, req)

	if cfg.Ret/100 != 3 {
		resp.Body = []byte(cfg.RetVal)
		return resp
	}

	scheme := "http"
	if cfg.Type == nginxconf.HTTPSServer {
		scheme = "https"
	}

	location := cfg.RetVal
	location = strings.ReplaceAll(location, "$scheme", scheme)
	location = strings.ReplaceAll(location, "$host", cfg.Host)
	location = strings.ReplaceAll(location, "$request_uri", req.Target)

	resp.Header.Set("Location", location)
	resp.Body = []byte("Redirecting to " + location)
	return resp
}
