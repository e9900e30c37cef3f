package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nginxgod/nginxgod/internal/httpmsg"
	"github.com/nginxgod/nginxgod/internal/nginxconf"
)

func newGETRequest(target string) *httpmsg.Request {
	r, _ := http.NewRequest(http.MethodGet, "http://example.com"+target, nil)
	return &httpmsg.Request{Request: r, Target: target, KeepAlive: true}
}

func TestRedirectHandlerSubstitution(t *testing.T) {
	cfg := &nginxconf.ServerConfig{
		Type:   nginxconf.HTTPSServer,
		Host:   "example.com",
		Ret:    301,
		RetVal: "$scheme://$host$request_uri",
	}
	h := &RedirectHandler{}
	resp := h.Handle(newGETRequest("/old-path"), cfg)

	assert.Equal(t, 301, resp.Status)
	assert.Equal(t, "https://example.com/old-path", resp.Header.Get("Location"))
}

func TestRedirectHandlerNonRedirectStatus(t *testing.T) {
	cfg := &nginxconf.ServerConfig{Ret: 410, RetVal: "gone"}
	h := &RedirectHandler{}
	resp := h.Handle(newGETRequest("/x"), cfg)

	assert.Equal(t, 410, resp.Status)
	assert.Equal(t, "gone", string(resp.Body))
	assert.Empty(t, resp.Header.Get("Location"))
}
