// Package locmatch implements nginx-compatible location matching: exact
// match, then longest-prefix with a tie-break favoring a prefix-stop
// (`^~`) location over a no-modifier one.
package locmatch

import (
	"strings"

	"github.com/nginxgod/nginxgod/internal/nginxconf"
)

// Match returns the LocationBlock that applies to target under config, or
// nil if none does. RegexMatch locations are never considered: they are
// parsed and retained on ServerConfig but intentionally excluded from
// match evaluation.
func Match(target string, config *nginxconf.ServerConfig) *nginxconf.LocationBlock {
	for _, loc := range config.ExactLocations {
		if loc.URI == target {
			return loc
		}
	}

	stop := longestPrefix(target, config.PrefixStopLocations)
	plain := longestPrefix(target, config.PlainLocations)

	if stop != nil && (plain == nil || len(stop.URI) >= len(plain.URI)) {
		return stop
	}
	if plain != nil {
		return plain
	}
	return nil
}

func longestPrefix(target string, locs []*nginxconf.LocationBlock) *nginxconf.LocationBlock {
	var best *nginxconf.LocationBlock
	for _, loc := range locs {
		if !strings.HasPrefix(target, loc.URI) {
			continue
		}
		if best == nil || len(loc.URI) > len(best.URI) {
			best = loc
		}
	}
	return best
}
