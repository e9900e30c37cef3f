package nginxconf

import "strings"

// PathKind distinguishes how a cleaned path will be used, which affects
// whether a trailing slash is enforced.
type PathKind uint8

const (
	// FileURI is a path that is never prefixed with the working
	// directory (e.g. a try_files candidate, which is always resolved
	// relative to a location's root at request time).
	FileURI PathKind = iota
	// DirOnly is a directory path (e.g. `root`) that must end in "/".
	DirOnly
	// DirFile is a path that names a file but may be relative to the
	// working directory (e.g. `ssl_certificate`).
	DirFile
)

// PathCleaner normalizes file/directory paths parsed from nginx directives.
type PathCleaner struct {
	// WorkingDirectory is prepended to relative paths (see Clean).
	WorkingDirectory string
}

// Clean normalizes path according to kind, applying the rules in order:
// unescape backslash/quote sequences, prepend the working directory to
// relative non-FileURI paths, enforce a trailing slash for DirOnly paths,
// collapse duplicate slashes, and strip meaningless "./" sequences.
func (c PathCleaner) Clean(path string, kind PathKind) string {
	path = unescapeLiteral(path)

	if kind != FileURI && !strings.HasPrefix(path, "/") {
		wd := strings.TrimSuffix(c.WorkingDirectory, "/")
		path = wd + "/" + path
	}

	if kind == DirOnly && !strings.HasSuffix(path, "/") {
		path += "/"
	}

	path = collapseSlashes(path)
	path = stripDotSlash(path)

	return path
}

// unescapeLiteral replaces \\, \", and \' with their literal character.
func unescapeLiteral(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	b := []byte(s)
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '\\' && i+1 < len(b) {
			switch b[i+1] {
			case '\\', '"', '\'':
				out = append(out, b[i+1])
				i++
				continue
			}
		}
		out = append(out, b[i])
	}
	return string(out)
}

// collapseSlashes reduces runs of '/' to a single '/'.
func collapseSlashes(s string) string {
	if !strings.Contains(s, "//") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	lastWasSlash := false
	for _, r := range s {
		if r == '/' {
			if lastWasSlash {
				continue
			}
			lastWasSlash = true
		} else {
			lastWasSlash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// stripDotSlash deletes any "./" sequence that is not immediately preceded
// by a '.', so a meaningless "/a/./b" collapses to "/a/b" while "/a/../b"
// (whose "./" is preceded by the first '.') is left alone for directive
// semantics to reject later, at request time.
func stripDotSlash(s string) string {
	rs := []rune(s)
	out := make([]rune, 0, len(rs))

	for i := 0; i < len(rs); i++ {
		if rs[i] == '.' && i+1 < len(rs) && rs[i+1] == '/' {
			var prev rune
			if len(out) > 0 {
				prev = out[len(out)-1]
			}
			if prev == '.' {
				out = append(out, rs[i], rs[i+1])
			}
			// else: meaningless "./", drop both runes
			i++
			continue
		}
		out = append(out, rs[i])
	}

	return string(out)
}
