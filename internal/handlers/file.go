package handlers

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/nginxgod/nginxgod/internal/filecache"
	"github.com/nginxgod/nginxgod/internal/httpmsg"
	"github.com/nginxgod/nginxgod/internal/locmatch"
	"github.com/nginxgod/nginxgod/internal/minify"
	"github.com/nginxgod/nginxgod/internal/nginxconf"
)

const lastModifiedLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// FileHandler serves static files, resolving try_files fallbacks and
// honoring conditional GETs via Last-Modified/If-Modified-Since.
type FileHandler struct {
	// Cache is optional; when nil every request reads the file fresh.
	Cache *filecache.Cache
	// Minify is optional; when nil bodies are served unminified.
	Minify *minify.Minifier
}

// NewFileHandler builds a handlerregistry.Factory for a FileHandler
// sharing cache and minifier across every request it serves.
func NewFileHandler(cache *filecache.Cache, minifier *minify.Minifier) func() interface{} {
	return func() interface{} { return &FileHandler{Cache: cache, Minify: minifier} }
}

func (h *FileHandler) Handle(req *httpmsg.Request, cfg *nginxconf.ServerConfig) *httpmsg.Response {
	loc := locmatch.Match(req.Target, cfg)

	var candidate string
	status := 200

	switch {
	case loc != nil && loc.HasTryFiles():
		candidate, status = h.resolveTryFiles(req.Target, loc)
	case loc != nil:
		rest := strings.TrimPrefix(req.Target, loc.URI)
		candidate, status = resolveOrNotFound(joinClean(loc.Root, rest), loc.Index)
	default:
		candidate, status = resolveOrNotFound(joinClean(cfg.Root, req.Target), cfg.Index)
	}

	return h.serve(req, cfg, candidate, status)
}

// resolveOrNotFound resolves candidate the same way resolveExisting does
// for try_files: a directory resolves to its index file. Any other miss
// (missing file, directory without an index) is reported as 404 so serve
// falls back to the server's configured index.
func resolveOrNotFound(candidate, index string) (string, int) {
	if resolved, ok := resolveExisting(candidate, index); ok {
		return resolved, 200
	}
	return "", 404
}

// resolveTryFiles walks a location's try_files candidates in order,
// returning the first one that resolves to a real file (or its directory
// index), and a fallback candidate/status otherwise.
func (h *FileHandler) resolveTryFiles(target string, loc *nginxconf.LocationBlock) (string, int) {
	for _, arg := range loc.TryFilesArgs {
		expanded := strings.ReplaceAll(arg, "$uri", target)
		candidate := joinClean(loc.Root, expanded)
		if resolved, ok := resolveExisting(candidate, loc.Index); ok {
			return resolved, 200
		}
	}

	fb := loc.TryFilesFallback
	if strings.HasPrefix(fb, "=") && len(fb) >= 4 {
		if code, err := strconv.Atoi(fb[1:4]); err == nil {
			return "", code
		}
		return "", 0
	}
	if resolved, ok := resolveExisting(joinClean(loc.Root, fb), loc.Index); ok {
		return resolved, 200
	}
	return "", 404
}

// resolveExisting returns candidate itself if it is a readable file, or
// candidate/index if candidate is a directory containing index.
func resolveExisting(candidate, index string) (string, bool) {
	info, err := os.Stat(candidate)
	if err != nil {
		return "", false
	}
	if !info.IsDir() {
		return candidate, true
	}
	withIndex := joinClean(candidate, index)
	if _, err := os.Stat(withIndex); err == nil {
		return withIndex, true
	}
	return "", false
}

func (h *FileHandler) serve(req *httpmsg.Request, cfg *nginxconf.ServerConfig, candidate string, status int) *httpmsg.Response {
	resp := httpmsg.NewResponse(status)
	setConnectionHeader(resp, req)

	if status != 200 && status != 404 {
		resp.Body = []byte(fmt.Sprintf("<html><body>%d</body></html>", status))
		return resp
	}

	if status == 404 {
		candidate = joinClean(cfg.Root, cfg.Index)
	}

	data, modTime, err := h.read(candidate)
	if err != nil {
		if status == 404 || os.IsNotExist(err) {
			resp.Status = 404
			if status != 404 {
				return h.serve(req, cfg, "", 404)
			}
			return resp
		}
		resp.Status = 500
		resp.Header.Set("Content-Type", "text/html")
		resp.Body = []byte("<html><body>500 Internal Server Error</body></html>")
		return resp
	}

	lastMod := modTime.UTC().Format(lastModifiedLayout)
	if req.Header.Get("If-Modified-Since") == lastMod {
		resp.Status = 304
		resp.Header.Set("Cache-Control", "public, max-age=604800, immutable")
		return resp
	}

	contentType := contentTypeFor(candidate)
	if minified, err := h.Minify.Minify(contentType, data); err == nil {
		data = minified
	}

	resp.Header.Set("Cache-Control", "public, max-age=604800, immutable")
	resp.Header.Set("Last-Modified", lastMod)
	resp.Header.Set("Content-Type", contentType)
	resp.Body = data
	return resp
}

func (h *FileHandler) read(p string) ([]byte, time.Time, error) {
	if h.Cache != nil {
		return h.Cache.Read(p)
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, time.Time{}, err
	}
	return data, info.ModTime(), nil
}

func setConnectionHeader(resp *httpmsg.Response, req *httpmsg.Request) {
	if req.KeepAlive {
		resp.Header.Set("Connection", "keep-alive")
	} else {
		resp.Header.Set("Connection", "close")
	}
}

// joinClean joins root and rel with path.Join, which also collapses
// duplicate slashes and "." segments; request-time paths reaching here are
// already verified free of "..".
func joinClean(root, rel string) string {
	return path.Join(root, rel)
}
