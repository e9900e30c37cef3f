// Package minify is an opt-in content minifier for the File Handler.
package minify

import (
	"bytes"
	"strings"

	minifylib "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/tdewolff/minify/v2/xml"
)

// Minifier minifies response bodies by MIME type. A nil *Minifier is
// valid and passes content through unchanged, so it can be left unset on
// FileHandler when minification is not enabled for a server.
type Minifier struct {
	m *minifylib.M
}

// allMIMETypes lists every MIME type New() registers by default.
var allMIMETypes = []string{
	"text/html",
	"text/css",
	"text/javascript",
	"application/json",
	"image/svg+xml",
	"application/xml",
}

// New returns a Minifier registered for mimeTypes, or for every MIME type
// the File Handler can usefully minify (HTML, CSS, JS, JSON, SVG, XML) if
// mimeTypes is empty.
func New(mimeTypes ...string) *Minifier {
	if len(mimeTypes) == 0 {
		mimeTypes = allMIMETypes
	}

	m := minifylib.New()
	for _, mimeType := range mimeTypes {
		switch mimeType {
		case "text/html":
			m.AddFunc(mimeType, html.Minify)
		case "text/css":
			m.AddFunc(mimeType, css.Minify)
		case "text/javascript":
			m.AddFunc(mimeType, js.Minify)
		case "application/json":
			m.AddFunc(mimeType, json.Minify)
		case "image/svg+xml":
			m.AddFunc(mimeType, svg.Minify)
		case "application/xml":
			m.AddFunc(mimeType, xml.Minify)
		}
	}
	return &Minifier{m: m}
}

// Minify returns b minified according to mimeType, or b unchanged if mn
// is nil or mimeType has no registered minifier.
func (mn *Minifier) Minify(mimeType string, b []byte) ([]byte, error) {
	if mn == nil {
		return b, nil
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}

	var buf bytes.Buffer
	if err := mn.m.Minify(mimeType, &buf, bytes.NewReader(b)); err != nil {
		if err == minifylib.ErrNotExist {
			return b, nil
		}
		return nil, err
	}
	return buf.Bytes(), nil
}
