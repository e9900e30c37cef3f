package handlers

import (
	"github.com/nginxgod/nginxgod/internal/httpmsg"
	"github.com/nginxgod/nginxgod/internal/nginxconf"
)

// Handler dispatches a single request against a server's config, which it
// borrows for the duration of the call. Handlers are constructed once and
// reused across requests; they must not retain the config reference.
type Handler interface {
	Handle(req *httpmsg.Request, cfg *nginxconf.ServerConfig) *httpmsg.Response
}
