package nginxconf

// ServerType distinguishes a plain HTTP server block from one carrying the
// "ssl" flag on its listen directive.
type ServerType uint8

const (
	HTTPServer ServerType = iota
	HTTPSServer
)

// Modifier is the nginx location-block match kind, derived from the token
// immediately preceding the location's URI.
type Modifier uint8

const (
	// NoModifier is the longest-prefix match, nginx's default.
	NoModifier Modifier = iota
	// ExactMatch is "location = /uri".
	ExactMatch
	// PrefixStop is "location ^~ /uri": longest prefix, but never loses to
	// a regex location (which this implementation does not evaluate).
	PrefixStop
	// RegexMatch is "location ~ /uri" or "location ~* /uri". Accepted at
	// parse time; never chosen at match time (§4.6 of the design).
	RegexMatch
)

// LocationBlock is one `location [modifier] <uri> { ... }` stanza nested
// inside a ServerConfig.
type LocationBlock struct {
	Modifier           Modifier
	RegexCaseSensitive bool
	URI                string

	Root  string
	Index string

	// TryFilesArgs holds every try_files candidate except the trailing
	// fallback argument, in declared order, with $uri left unexpanded
	// (substitution happens at request time against the matched target).
	TryFilesArgs []string
	// TryFilesFallback is the last try_files parameter: either "=<code>"
	// or a relative URI.
	TryFilesFallback string
}

// HasTryFiles reports whether a try_files directive was configured for this
// location.
func (l *LocationBlock) HasTryFiles() bool {
	return len(l.TryFilesArgs) > 0 || l.TryFilesFallback != ""
}

// ServerConfig is the parsed form of one `server { ... }` block.
type ServerConfig struct {
	Type ServerType
	Port int
	Host string

	Root  string
	Index string

	// Ret is 0 if no `return` directive was configured; otherwise the
	// configured HTTP status code.
	Ret int
	// RetVal is the value accompanying `return`: a redirect target for
	// 3xx statuses, or optional literal body text otherwise.
	RetVal string

	Certificate string
	PrivateKey  string

	// Locations are grouped by modifier kind, each group preserving
	// declaration order, matching the precedence rule in §4.6.
	ExactLocations      []*LocationBlock
	PrefixStopLocations []*LocationBlock
	RegexLocations      []*LocationBlock
	PlainLocations      []*LocationBlock
}

// AllLocations returns every LocationBlock declared in the server, grouped
// by modifier kind (exact, prefix-stop, regex, then no-modifier), each
// group in declaration order; intended for
// inheritance passes and tests, not for match-time lookups (which must
// consult the modifier-specific slices directly, per §4.6).
func (s *ServerConfig) AllLocations() []*LocationBlock {
	total := len(s.ExactLocations) + len(s.PrefixStopLocations) +
		len(s.RegexLocations) + len(s.PlainLocations)
	if total == 0 {
		return nil
	}
	out := make([]*LocationBlock, 0, total)
	out = append(out, s.ExactLocations...)
	out = append(out, s.PrefixStopLocations...)
	out = append(out, s.RegexLocations...)
	out = append(out, s.PlainLocations...)
	return out
}

func (s *ServerConfig) addLocation(l *LocationBlock) {
	switch l.Modifier {
	case ExactMatch:
		s.ExactLocations = append(s.ExactLocations, l)
	case PrefixStop:
		s.PrefixStopLocations = append(s.PrefixStopLocations, l)
	case RegexMatch:
		s.RegexLocations = append(s.RegexLocations, l)
	default:
		s.PlainLocations = append(s.PlainLocations, l)
	}
}
