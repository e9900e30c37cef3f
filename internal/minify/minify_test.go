package minify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinifyCSS(t *testing.T) {
	m := New()
	out, err := m.Minify("text/css", []byte("body {  color:   red;  }\n"))
	require.NoError(t, err)
	assert.Less(t, len(out), len("body {  color:   red;  }\n"))
}

func TestMinifyUnregisteredMIMEPassesThrough(t *testing.T) {
	m := New()
	in := []byte("binary-ish content")
	out, err := m.Minify("application/octet-stream", in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNilMinifierPassesThrough(t *testing.T) {
	var m *Minifier
	in := []byte("<html></html>")
	out, err := m.Minify("text/html", in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNewRestrictsToRequestedMIMETypes(t *testing.T) {
	m := New("text/css")
	css, err := m.Minify("text/css", []byte("body {  color:   red;  }\n"))
	require.NoError(t, err)
	assert.Less(t, len(css), len("body {  color:   red;  }\n"))

	html, err := m.Minify("text/html", []byte("<html>  </html>\n"))
	require.NoError(t, err)
	assert.Equal(t, "<html>  </html>\n", string(html))
}
