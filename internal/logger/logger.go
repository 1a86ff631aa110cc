package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

var once sync.Once

// Options configures the global logger.
type Options struct {
	Out   io.Writer  // Out is the destination, stdout when nil
	Level slog.Level // Level is the minimum level written
}

// Init installs the line handler as the default slog logger.
// Only the first call has an effect.
func Init(opts Options) {
	once.Do(func() {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}

		slog.SetDefault(slog.New(NewHandler(out, opts.Level)))
	})
}

// Handler writes one line per record with millisecond timestamps:
//
//	2024-01-15 14:30:45.123 [INF] message module=quorum key=value
type Handler struct {
	out   *lockedWriter
	level slog.Level
	attrs []slog.Attr
	group string
}

// lockedWriter serializes writes from handlers sharing one destination.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewHandler creates a handler writing records at or above level to out.
func NewHandler(out io.Writer, level slog.Level) *Handler {
	return &Handler{out: &lockedWriter{w: out}, level: level}
}

// Enabled reports whether records of the given level are written.
func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level
}

// Handle formats and writes a log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.Format("2006-01-02 15:04:05.000")

	h.out.mu.Lock()
	defer h.out.mu.Unlock()

	fmt.Fprintf(h.out.w, "%s [%s] %s", ts, levelString(r.Level), r.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(h.out.w, " %s=%v", a.Key, a.Value.Resolve())
	}

	r.Attrs(func(a slog.Attr) bool {
		a.Key = h.qualify(a.Key)
		fmt.Fprintf(h.out.w, " %s=%v", a.Key, a.Value.Resolve())
		return true
	})

	fmt.Fprintln(h.out.w)

	return nil
}

// qualify prefixes key with the open group, if any.
func (h *Handler) qualify(key string) string {
	if h.group == "" {
		return key
	}

	return h.group + "." + key
}

// WithAttrs returns a handler that appends attrs to every record.
// Keys are qualified with the group open at the time of the call.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)

	for _, a := range attrs {
		a.Key = h.qualify(a.Key)
		next.attrs = append(next.attrs, a)
	}

	return &next
}

// WithGroup returns a handler that prefixes later keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	next := *h
	if next.group != "" {
		next.group += "." + name
	} else {
		next.group = name
	}

	return &next
}

// levelString returns a short string for the log level.
func levelString(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DBG"
	case l < slog.LevelWarn:
		return "INF"
	case l < slog.LevelError:
		return "WRN"
	default:
		return "ERR"
	}
}

// Info logs at INFO level.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Warn logs at WARN level.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs at ERROR level.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return slog.Default().With(args...)
}

// Timed returns elapsed time since start for logging duration.
func Timed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}
