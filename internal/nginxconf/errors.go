package nginxconf

import "fmt"

// ConfigError reports a lexical, syntactic, or semantic problem found while
// parsing a configuration file, tagged with the line it was found on.
type ConfigError struct {
	Line    int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func errf(line int, format string, args ...interface{}) error {
	return &ConfigError{Line: line, Message: fmt.Sprintf(format, args...)}
}
