// Package handlers implements the dispatch targets a session can route a
// request to: static files, redirects, the dynamic POST executable
// bridge, and the health check.
package handlers

import "path"

var extensionMIME = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".json": "application/json",
	".gif":  "image/gif",
	".ico":  "image/vnd.microsoft.icon",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".txt":  "text/plain",
	".xml":  "application/xml",
	".zip":  "application/zip",
}

const defaultMIME = "application/octet-stream"

// contentTypeFor returns the MIME type for p's extension, falling back to
// application/octet-stream for anything not in the fixed extension map.
func contentTypeFor(p string) string {
	if ct, ok := extensionMIME[path.Ext(p)]; ok {
		return ct
	}
	return defaultMIME
}
