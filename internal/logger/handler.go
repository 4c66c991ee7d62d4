// Package logger renders slog records as single colored lines for the
// gateway console and the terminal client.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	purple = "\033[35m"
	cyan   = "\033[36m"
	gray   = "\033[37m"
	white  = "\033[97m"
)

type PrettyHandler struct {
	opts   slog.HandlerOptions
	w      io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	group  string
	colors bool
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &PrettyHandler{
		opts:   *opts,
		w:      w,
		mu:     &sync.Mutex{},
		attrs:  []slog.Attr{},
		colors: true,
	}
}

// Plain disables ANSI colors, used when output is not a terminal.
func (h *PrettyHandler) Plain() *PrettyHandler {
	clone := *h
	clone.colors = false
	return &clone
}

// Setup installs a PrettyHandler on stderr as the default logger.
func Setup(level string) *slog.Logger {
	l := slog.New(NewPrettyHandler(os.Stderr, &slog.HandlerOptions{Level: ParseLevel(level)}))
	slog.SetDefault(l)
	return l
}

// ParseLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	fmt.Fprintf(h.w, "%s ", h.paint(gray, r.Time.Format("15:04:05.000")))

	var levelColor string
	switch {
	case r.Level >= slog.LevelError:
		levelColor = red
	case r.Level >= slog.LevelWarn:
		levelColor = yellow
	case r.Level >= slog.LevelInfo:
		levelColor = green
	default:
		levelColor = purple
	}

	// Pad level to 5 chars (INFO , ERROR, DEBUG, WARN )
	fmt.Fprintf(h.w, "%s ", h.paint(levelColor, fmt.Sprintf("%-5s", r.Level.String())))
	fmt.Fprint(h.w, h.paint(white, r.Message))

	for _, a := range h.attrs {
		h.printAttr("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.printAttr(h.group, a)
		return true
	})

	fmt.Fprintln(h.w)
	return nil
}

func (h *PrettyHandler) printAttr(prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, member := range a.Value.Group() {
			h.printAttr(key, member)
		}
		return
	}

	var val string
	switch a.Value.Kind() {
	case slog.KindTime:
		val = a.Value.Time().Format(time.RFC3339)
	case slog.KindString:
		val = a.Value.String()
		if strings.ContainsAny(val, " \t\"=") {
			val = strconv.Quote(val)
		}
	default:
		val = fmt.Sprint(a.Value.Any())
	}

	fmt.Fprintf(h.w, " %s=%s", h.paint(cyan, key), val)
}

func (h *PrettyHandler) paint(color string, s string) string {
	if !h.colors {
		return s
	}
	return color + s + reset
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// Attributes keep the group that was open when they were attached.
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		newAttrs = append(newAttrs, a)
	}

	clone := *h
	clone.attrs = newAttrs
	return &clone
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if h.group != "" {
		clone.group = h.group + "." + name
	} else {
		clone.group = name
	}
	return &clone
}
