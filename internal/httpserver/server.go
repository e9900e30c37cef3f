// Package httpserver runs the accept loop and per-connection session state
// machine for a parsed set of server blocks.
package httpserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/nginxgod/nginxgod/internal/analytics"
	"github.com/nginxgod/nginxgod/internal/handlers"
	"github.com/nginxgod/nginxgod/internal/nginxconf"
	"github.com/nginxgod/nginxgod/internal/serverlog"
)

// Server owns one listener per parsed ServerConfig and fans accepted
// connections out to sessions.
type Server struct {
	// MinifierEnabled records whether the file handler in the HandlerSet
	// was built with a minifier. Serve does not read it; minification is
	// turned on by passing a non-nil minify.Minifier to
	// handlers.NewFileHandler. Default off.
	MinifierEnabled bool
	// MinifierMIMETypes records the MIME types that minifier was built
	// for (empty means every type it knows). Serve does not read it.
	MinifierMIMETypes []string
	// FileCacheEnabled records whether the file handler in the HandlerSet
	// was built with a file cache. Serve does not read it; caching is
	// turned on by passing a non-nil filecache.Cache to
	// handlers.NewFileHandler. Default off.
	FileCacheEnabled bool

	configs  []*nginxconf.ServerConfig
	handlers HandlerSet
	counts   *analytics.Counters
	log      *serverlog.Logger

	listeners []*listener
}

// New builds a Server for the given parsed configs. handlers, counts, and
// log are shared across every listener and every session. MinifierEnabled,
// MinifierMIMETypes, and FileCacheEnabled start at their zero values; they
// describe how hset was built and do not change what Serve does.
func New(configs []*nginxconf.ServerConfig, hset HandlerSet, counts *analytics.Counters, log *serverlog.Logger) *Server {
	return &Server{
		configs:  configs,
		handlers: hset,
		counts:   counts,
		log:      log,
	}
}

// Serve binds a listener for every config, then blocks accepting
// connections on all of them until ctx is canceled. It returns the first
// non-shutdown error from any listener, if any.
func (s *Server) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, cfg := range s.configs {
		cfg := cfg
		addr := fmt.Sprintf(":%d", cfg.Port)
		l, err := listen(addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		s.listeners = append(s.listeners, l)

		tlsConfig, err := tlsConfigFor(cfg)
		if err != nil {
			return fmt.Errorf("tls config for %s: %w", addr, err)
		}

		g.Go(func() error {
			return s.acceptLoop(gctx, l, cfg, tlsConfig)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.closeListeners()
		return nil
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return err
	}
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, l *listener, cfg *nginxconf.ServerConfig, tlsConfig *tls.Config) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error("accept on port %d: %v", cfg.Port, err)
			continue
		}

		sess := &session{
			conn:   newTransport(conn, tlsConfig),
			cfg:    cfg,
			hset:   s.handlers,
			counts: s.counts,
			log:    s.log,
		}
		go sess.Serve()
	}
}

func (s *Server) closeListeners() {
	for _, l := range s.listeners {
		l.Close()
	}
}

// tlsConfigFor builds a *tls.Config from a ServerConfig's certificate
// pair, or returns nil for a plain HTTP server. finishServer already
// enforces that HTTPSServer configs carry both Certificate and
// PrivateKey, so the only error path here is a bad keypair on disk.
func tlsConfigFor(cfg *nginxconf.ServerConfig) (*tls.Config, error) {
	if cfg.Type != nginxconf.HTTPSServer {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(cfg.Certificate, cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}}, nil
}

// NewHandlerSet is a convenience constructor wiring up the four built-in
// handlers this server dispatches to.
func NewHandlerSet(file, redirect, post, health handlers.Handler) HandlerSet {
	return HandlerSet{File: file, Redirect: redirect, Post: post, Health: health}
}

var _ net.Listener = (*listener)(nil)
