package handlers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nginxgod/nginxgod/internal/nginxconf"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	return p
}

func TestFileHandlerTryFilesFallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.html", "<h1>fallback</h1>")

	cfg := &nginxconf.ServerConfig{Root: root, Index: "small.html"}
	loc := &nginxconf.LocationBlock{
		Modifier:         nginxconf.NoModifier,
		URI:              "/",
		Root:             root,
		Index:            "small.html",
		TryFilesArgs:     []string{"$uri"},
		TryFilesFallback: "/small.html",
	}
	cfg.ExactLocations = nil
	cfg.PlainLocations = []*nginxconf.LocationBlock{loc}

	h := &FileHandler{}
	resp := h.Handle(newGETRequest("/resume"), cfg)

	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	assert.Equal(t, "<h1>fallback</h1>", string(resp.Body))
}

func TestFileHandlerDirectMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.js", "console.log(1)")

	cfg := &nginxconf.ServerConfig{Root: root, Index: "index.html"}
	resp := (&FileHandler{}).Handle(newGETRequest("/app.js"), cfg)

	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "text/javascript", resp.Header.Get("Content-Type"))
}

func TestFileHandlerBareRootServesConfiguredIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "<h1>home</h1>")

	cfg := &nginxconf.ServerConfig{Root: root, Index: "index.html"}
	resp := (&FileHandler{}).Handle(newGETRequest("/"), cfg)

	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "<h1>home</h1>", string(resp.Body))
}

func TestFileHandlerConditionalGetReturns304(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.js", "console.log(1)")

	cfg := &nginxconf.ServerConfig{Root: root, Index: "index.html"}
	h := &FileHandler{}

	first := h.Handle(newGETRequest("/app.js"), cfg)
	lastMod := first.Header.Get("Last-Modified")

	req := newGETRequest("/app.js")
	req.Header.Set("If-Modified-Since", lastMod)
	second := h.Handle(req, cfg)

	assert.Equal(t, 304, second.Status)
	assert.Empty(t, second.Body)
	assert.Empty(t, second.Header.Get("Content-Type"))
}

func TestFileHandlerMissingFileServesConfiguredIndexAs404(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "<h1>home</h1>")

	cfg := &nginxconf.ServerConfig{Root: root, Index: "index.html"}
	resp := (&FileHandler{}).Handle(newGETRequest("/missing"), cfg)

	assert.Equal(t, 404, resp.Status)
	assert.Equal(t, "<h1>home</h1>", string(resp.Body))
}

func TestFileHandlerNumericFallbackStatus(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "<h1>home</h1>")

	cfg := &nginxconf.ServerConfig{Root: root, Index: "index.html"}
	loc := &nginxconf.LocationBlock{
		Modifier:         nginxconf.NoModifier,
		URI:              "/api/",
		Root:             root,
		Index:            "index.html",
		TryFilesArgs:     []string{"$uri"},
		TryFilesFallback: "=404",
	}
	cfg.PlainLocations = []*nginxconf.LocationBlock{loc}

	resp := (&FileHandler{}).Handle(newGETRequest("/api/missing"), cfg)
	assert.Equal(t, 404, resp.Status)
}

func TestResolveExistingWithDirectoryIndex(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "docs")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "index.html", "<h1>docs</h1>")

	resolved, ok := resolveExisting(sub, "index.html")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(sub, "index.html"), resolved)
}

func TestFileHandlerModTimeFormatIsRFC1123GMT(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")

	cfg := &nginxconf.ServerConfig{Root: root, Index: "a.txt"}
	resp := (&FileHandler{}).Handle(newGETRequest("/a.txt"), cfg)

	_, err := time.Parse(lastModifiedLayout, resp.Header.Get("Last-Modified"))
	assert.NoError(t, err)
}
