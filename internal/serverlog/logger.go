// Package serverlog is the structured logger every other package writes
// through.
package serverlog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"text/template"
	"time"
)

// Level is a log severity. Debug/Info cover informational closes (EOF,
// clean shutdown), Warn covers forced closes (413), Error covers
// transport/resource failures, Fatal covers unrecoverable startup errors.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

const defaultFormat = `[{{.time}}] {{.level}} {{.message}}` + "\n"

// Logger writes leveled, templated log lines. The zero value is not
// usable; build one with New.
type Logger struct {
	Output io.Writer

	template   *template.Template
	bufferPool *sync.Pool
	mu         sync.Mutex
}

// New returns a Logger writing to output (os.Stdout if nil), rendering
// each line through format (defaultFormat if empty).
func New(output io.Writer, format string) *Logger {
	if output == nil {
		output = os.Stdout
	}
	if format == "" {
		format = defaultFormat
	}
	return &Logger{
		Output:   output,
		template: template.Must(template.New("serverlog").Parse(format)),
		bufferPool: &sync.Pool{
			New: func() interface{} { return new(bytes.Buffer) },
		},
	}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(LevelError, format, args...) }

// Fatal logs at Fatal and exits the process with status 1, matching the
// entry point's "configuration or startup failure" exit code.
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(LevelFatal, format, args...)
	os.Exit(1)
}

func (l *Logger) log(lvl Level, format string, args ...interface{}) {
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	buf := l.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer l.bufferPool.Put(buf)

	data := map[string]interface{}{
		"time":    time.Now().Format(time.RFC3339),
		"level":   lvl.String(),
		"message": message,
	}

	if err := l.template.Execute(buf, data); err != nil {
		fmt.Fprintf(l.Output, "[%s] %s %s\n", data["time"], lvl, message)
		return
	}
	l.Output.Write(buf.Bytes())
}
