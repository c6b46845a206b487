// Package log is a small structured event logger for the session runtime,
// reporting the handful of fields a WAMP client needs: method/procedure/
// topic, request id, direction, and error.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Direction labels an event as inbound (from the router) or outbound (to
// the router).
type Direction string

const (
	Inbound  Direction = "in"
	Outbound Direction = "out"
)

// Field is one key=value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

func Method(v string) Field    { return Field{"method", v} }
func RequestID(v uint64) Field { return Field{"id", v} }
func Dir(v Direction) Field    { return Field{"direction", string(v)} }
func Err(err error) Field {
	if err == nil {
		return Field{"err", nil}
	}
	return Field{"err", err.Error()}
}

// Logger writes formatted event lines and, when an Exporter is installed,
// forwards each event to it as well. The zero value logs to os.Stderr
// with no exporter, so a Session is usable without any setup.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	exporter Exporter
	instance string
}

// New returns a Logger writing to w. Passing a nil w defaults to
// os.Stderr. Each Logger gets a random instance id (via google/uuid),
// attached to every line it writes, so log output from multiple Sessions
// sharing one process/writer can still be told apart.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{out: w, instance: uuid.NewString()}
}

// Exporter receives every event a Logger logs, in addition to the textual
// line. Installed via SetExporter; nil (the default) disables export.
type Exporter interface {
	Export(msg string, fields []Field)
}

// SetExporter installs (or, with nil, removes) an Exporter, e.g. the
// OpenTelemetry-backed one in otel.go.
func (l *Logger) SetExporter(e Exporter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.exporter = e
}

// Event writes msg with the supplied fields in a
// "time message\n\tkey=value" layout, and forwards to the installed
// Exporter, if any.
func (l *Logger) Event(msg string, fields ...Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		l.out = os.Stderr
	}
	fmt.Fprint(l.out, time.Now().Format("2006/01/02 15:04:05 "))
	io.WriteString(l.out, msg)
	fmt.Fprintf(l.out, "\n\tinstance=%s", l.instance)
	for _, f := range fields {
		if f.Value == nil {
			continue
		}
		fmt.Fprintf(l.out, "\n\t%s=%v", f.Key, f.Value)
	}
	io.WriteString(l.out, "\n")

	if l.exporter != nil {
		l.exporter.Export(msg, fields)
	}
}

// nop is the Logger used when a caller does not configure one.
var nop = New(io.Discard)

// Nop returns a Logger that discards everything, for tests and as the
// default Logger that xconn.NewConfig installs.
func Nop() *Logger { return nop }
