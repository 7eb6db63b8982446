// Package xlog is a small structured, leveled logger in the manner of
// the teacher's ingest/log package: RFC5424-formatted output with
// explicit Logger values passed to callers instead of a process-wide
// singleton. Grounded on ingest/log/logging.go.
package xlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

// Level is a logging severity threshold, ordered low-to-high.
type Level int

const (
	OFF Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
)

func (l Level) priority() rfc5424.Priority {
	switch l {
	case DEBUG:
		return rfc5424.User | rfc5424.Debug
	case INFO:
		return rfc5424.User | rfc5424.Info
	case WARN:
		return rfc5424.User | rfc5424.Warning
	case ERROR:
		return rfc5424.User | rfc5424.Error
	case CRITICAL:
		return rfc5424.User | rfc5424.Crit
	}
	return rfc5424.User | rfc5424.Debug
}

// callDepth is the runtime.Caller depth from inside callLoc to the
// application call site: callLoc, output, then one of the five
// Debug/Info/.../Critical wrappers.
const callDepth = 3

// Logger writes RFC5424-formatted structured log lines to an io.Writer,
// filtering by Level. The zero value is not usable; construct via New or
// Discard.
type Logger struct {
	mtx      sync.Mutex
	w        io.Writer
	lvl      Level
	hostname string
	appname  string
}

// New returns a Logger that writes to w at the given level, tagged with
// appname in the RFC5424 APP-NAME field.
func New(w io.Writer, lvl Level, appname string) *Logger {
	host, _ := runtimeHostname()
	return &Logger{w: w, lvl: lvl, hostname: host, appname: appname}
}

// Discard returns a Logger that drops everything, for components that
// require a non-nil *Logger but whose caller has no log sink configured
// — the explicit-value equivalent of the teacher's NULLREP singleton.
func Discard() *Logger {
	return New(io.Discard, OFF, "")
}

// SetLevel changes the filtering threshold.
func (l *Logger) SetLevel(lvl Level) {
	l.mtx.Lock()
	l.lvl = lvl
	l.mtx.Unlock()
}

func (l *Logger) Debug(msg string, sds ...rfc5424.SDParam) error {
	return l.output(DEBUG, msg, sds...)
}

func (l *Logger) Info(msg string, sds ...rfc5424.SDParam) error {
	return l.output(INFO, msg, sds...)
}

func (l *Logger) Warn(msg string, sds ...rfc5424.SDParam) error {
	return l.output(WARN, msg, sds...)
}

func (l *Logger) Error(msg string, sds ...rfc5424.SDParam) error {
	return l.output(ERROR, msg, sds...)
}

func (l *Logger) Critical(msg string, sds ...rfc5424.SDParam) error {
	return l.output(CRITICAL, msg, sds...)
}

func (l *Logger) output(lvl Level, msg string, sds ...rfc5424.SDParam) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.lvl == OFF || lvl < l.lvl {
		return nil
	}
	ts := time.Now()
	m := rfc5424.Message{
		Priority:  lvl.priority(),
		Timestamp: ts,
		Hostname:  trimLength(255, l.hostname),
		AppName:   trimLength(48, l.appname),
		MessageID: trimLength(32, callLoc(callDepth)),
		Message:   []byte(msg),
	}
	if len(sds) > 0 {
		m.StructuredData = []rfc5424.StructuredData{{ID: "xlog@1", Parameters: sds}}
	}
	b, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = l.w.Write(append(b, '\n'))
	return err
}

func callLoc(depth int) string {
	if _, file, line, ok := runtime.Caller(depth); ok {
		dir, file := filepath.Split(file)
		file = filepath.Join(filepath.Base(dir), file)
		return fmt.Sprintf("%s:%d", file, line)
	}
	return ""
}

func trimLength(n int, s string) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func runtimeHostname() (string, error) {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "localhost", err
	}
	if len(h) > 255 {
		h = h[:255]
	}
	return strings.TrimSpace(h), nil
}
