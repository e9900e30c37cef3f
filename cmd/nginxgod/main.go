// Command nginxgod runs an HTTP/1.1 and HTTPS static/dynamic web server
// driven by an nginx-grammar configuration file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nginxgod/nginxgod/internal/analytics"
	"github.com/nginxgod/nginxgod/internal/filecache"
	"github.com/nginxgod/nginxgod/internal/handlerregistry"
	"github.com/nginxgod/nginxgod/internal/handlers"
	"github.com/nginxgod/nginxgod/internal/httpserver"
	"github.com/nginxgod/nginxgod/internal/minify"
	"github.com/nginxgod/nginxgod/internal/nginxconf"
	"github.com/nginxgod/nginxgod/internal/serverlog"
)

const (
	handlerFile     = "file"
	handlerRedirect = "redirect"
	handlerPost     = "post"
	handlerHealth   = "health"
)

func main() {
	log := serverlog.New(os.Stderr, "")

	if len(os.Args) != 2 {
		log.Fatal("usage: %s <config-path>", os.Args[0])
	}
	configPath := os.Args[1]

	workingDir, err := deriveWorkingDirectory()
	if err != nil {
		log.Fatal("resolving working directory: %v", err)
	}

	f, err := os.Open(configPath)
	if err != nil {
		log.Fatal("opening config %s: %v", configPath, err)
	}
	defer f.Close()

	configs, err := nginxconf.Parse(f, workingDir)
	if err != nil {
		log.Fatal("parsing config: %v", err)
	}

	registry := handlerregistry.New()
	reg := prometheus.NewRegistry()
	counters := analytics.New(reg)

	const (
		fileCacheEnabled  = false
		minifierEnabled   = false
		fileCacheMaxBytes = 64 * 1024 * 1024
	)
	var minifierMIMETypes []string

	var cache *filecache.Cache
	if fileCacheEnabled {
		cache, err = filecache.New(fileCacheMaxBytes)
		if err != nil {
			log.Fatal("starting file cache: %v", err)
		}
		defer cache.Close()
	}

	var minifier *minify.Minifier
	if minifierEnabled {
		minifier = minify.New(minifierMIMETypes...)
	}

	registry.RegisterHandler(handlerFile, handlers.NewFileHandler(cache, minifier))
	registry.RegisterHandler(handlerRedirect, handlers.NewRedirectHandler())
	registry.RegisterHandler(handlerPost, handlers.NewPostHandler(handlers.ExecInvoker{}, counters))
	registry.RegisterHandler(handlerHealth, handlers.NewHealthHandler(counters))

	registerTryFilesMappings(registry, configs)
	logRegisteredMappings(registry, log)

	hset := buildHandlerSet(registry, log)

	srv := httpserver.New(configs, hset, counters, log)
	srv.FileCacheEnabled = fileCacheEnabled
	srv.MinifierEnabled = minifierEnabled
	srv.MinifierMIMETypes = minifierMIMETypes

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("serving %d configured server block(s)", len(configs))
	if err := srv.Serve(ctx); err != nil {
		log.Fatal("server exited with error: %v", err)
	}
	log.Info("shutdown complete")
}

// buildHandlerSet resolves the registry's factories into the concrete
// HandlerSet a session dispatches against, failing fast at startup if a
// required handler type was never registered.
func buildHandlerSet(registry *handlerregistry.Registry, log *serverlog.Logger) httpserver.HandlerSet {
	file := mustHandler(registry, handlerFile, log)
	redirect := mustHandler(registry, handlerRedirect, log)
	post := mustHandler(registry, handlerPost, log)
	health := mustHandler(registry, handlerHealth, log)
	return httpserver.NewHandlerSet(file, redirect, post, health)
}

func mustHandler(registry *handlerregistry.Registry, name string, log *serverlog.Logger) handlers.Handler {
	factory, ok := registry.GetFactory(name)
	if !ok {
		log.Fatal("no handler factory registered for %q", name)
	}
	h, ok := factory().(handlers.Handler)
	if !ok {
		log.Fatal("handler factory for %q did not produce a handlers.Handler", name)
	}
	return h
}

// registerTryFilesMappings records every location's try_files candidates
// into the registry's file-handler URI map, substituting $uri against the
// location's own URI the way request-time expansion does. The numeric
// "=<code>" fallback form is not a path and is skipped.
func registerTryFilesMappings(registry *handlerregistry.Registry, configs []*nginxconf.ServerConfig) {
	for _, cfg := range configs {
		for _, loc := range cfg.AllLocations() {
			for _, arg := range loc.TryFilesArgs {
				expanded := strings.ReplaceAll(arg, "$uri", loc.URI)
				registry.RegisterMapping(handlerFile, loc.URI, expanded)
			}
			if fb := loc.TryFilesFallback; fb != "" && !strings.HasPrefix(fb, "=") {
				registry.RegisterMapping(handlerFile, loc.URI, fb)
			}
		}
	}
}

// logRegisteredMappings prints every registered handler type's URI map at
// startup, one line per mapping.
func logRegisteredMappings(registry *handlerregistry.Registry, log *serverlog.Logger) {
	for _, typ := range registry.GetTypes() {
		for uri, paths := range registry.GetMap(typ) {
			log.Info("handler %q: %s -> %v", typ, uri, paths)
		}
	}
}

// deriveWorkingDirectory resolves the running binary's absolute path and
// climbs three directories, per the entry point's working-directory rule.
func deriveWorkingDirectory() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolving executable path: %w", err)
	}
	dir := filepath.Dir(exe)
	dir = filepath.Dir(dir)
	dir = filepath.Dir(dir)
	return dir, nil
}
