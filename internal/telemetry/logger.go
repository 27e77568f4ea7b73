package telemetry

import (
	"io"
	"os"
	"sort"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"
)

// Logger writes structured JSON lines. Every entry carries an event name and
// an optional field map, e.g. logger.Info("progress.loaded", map[string]any{"coins": 20}).
type Logger struct {
	l *clog.Logger
	w io.WriteCloser
}

// NewLogger opens path for appending and logs at the given
// level. An empty path logs to stderr.
func NewLogger(path string, level string) (*Logger, error) {
	var w io.WriteCloser = nopCloser{Writer: os.Stderr}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		w = f
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	return newLogger(w, lvl), nil
}

// New builds a logger on top of an arbitrary writer. The caller keeps
// ownership of w.
func New(w io.Writer, level clog.Level) *Logger {
	return newLogger(nopCloser{Writer: w}, level)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return newLogger(nopCloser{Writer: io.Discard}, clog.FatalLevel)
}

func newLogger(w io.WriteCloser, level clog.Level) *Logger {
	l := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Formatter:       clog.JSONFormatter,
		Level:           level,
	})
	return &Logger{l: l, w: w}
}

// ParseLevel accepts debug, info, warn and error. Empty means warn.
func ParseLevel(level string) (clog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return clog.WarnLevel, nil
	}
	return clog.ParseLevel(level)
}

func (l *Logger) Debug(msg string, fields map[string]any) {
	if l == nil {
		return
	}
	l.l.Debug(msg, keyvals(fields)...)
}

func (l *Logger) Info(msg string, fields map[string]any) {
	if l == nil {
		return
	}
	l.l.Info(msg, keyvals(fields)...)
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	if l == nil {
		return
	}
	l.l.Warn(msg, keyvals(fields)...)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	if l == nil {
		return
	}
	l.l.Error(msg, keyvals(fields)...)
}

func (l *Logger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

// keyvals flattens fields in key order so lines are stable across runs.
func keyvals(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
