package handlers

import (
	"github.com/nginxgod/nginxgod/internal/analytics"
	"github.com/nginxgod/nginxgod/internal/httpmsg"
	"github.com/nginxgod/nginxgod/internal/nginxconf"
)

// HealthHandler answers GET /health with an uptime/counters report and
// bumps the health counter.
type HealthHandler struct {
	Counters *analytics.Counters
}

// NewHealthHandler builds a handlerregistry.Factory for HealthHandler.
func NewHealthHandler(counters *analytics.Counters) func() interface{} {
	return func() interface{} { return &HealthHandler{Counters: counters} }
}

func (h *HealthHandler) Handle(req *httpmsg.Request, cfg *nginxconf.ServerConfig) *httpmsg.Response {
	h.Counters.Health.Inc()

	resp := httpmsg.NewResponse(200)
	resp.Header.Set("Content-Type", "text/html")
	resp.Header.Set("Connection", "close")
	resp.Body = []byte(h.Counters.Report())
	return resp
}
