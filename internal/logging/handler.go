package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Handler writes one human-readable line per record:
//
//	3:04PM DEBUG scan phase phase=classes took=1.2ms
//
// Colors are only used when the handler was built with them.
type Handler struct {
	opts   slog.HandlerOptions
	out    io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	prefix string // group names joined with "."

	colors *palette
}

type palette struct {
	time, debug, info, warn, err, key *color.Color
}

func newPalette() *palette {
	p := &palette{
		time:  color.New(color.FgHiBlack),
		debug: color.New(color.FgMagenta),
		info:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		err:   color.New(color.FgRed, color.Bold),
		key:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.time, p.debug, p.info, p.warn, p.err, p.key} {
		c.EnableColor()
	}
	return p
}

// NewHandler returns a text handler writing to out.
func NewHandler(out io.Writer, opts *slog.HandlerOptions, useColor bool) *Handler {
	h := &Handler{out: out, mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	if useColor {
		h.colors = newPalette()
	}
	return h
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(h.paint(h.timeColor(), r.Time.Format(time.Kitchen)))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s %s", h.paint(h.levelColor(r.Level), r.Level.String()), r.Message)
	for _, a := range h.attrs {
		h.writeAttr(&b, a, "")
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&b, a, h.prefix)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

// writeAttr writes a; attrs from WithAttrs already carry their group
// prefix.
func (h *Handler) writeAttr(b *strings.Builder, a slog.Attr, prefix string) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	var kc *color.Color
	if h.colors != nil {
		kc = h.colors.key
	}
	val := a.Value.String()
	if a.Value.Kind() == slog.KindString && strings.ContainsAny(val, " \t\"=") {
		val = fmt.Sprintf("%q", val)
	}
	fmt.Fprintf(b, " %s=%s", h.paint(kc, key), val)
}

func (h *Handler) paint(c *color.Color, s string) string {
	if c == nil {
		return s
	}
	return c.Sprint(s)
}

func (h *Handler) timeColor() *color.Color {
	if h.colors == nil {
		return nil
	}
	return h.colors.time
}

func (h *Handler) levelColor(l slog.Level) *color.Color {
	if h.colors == nil {
		return nil
	}
	switch {
	case l >= slog.LevelError:
		return h.colors.err
	case l >= slog.LevelWarn:
		return h.colors.warn
	case l >= slog.LevelInfo:
		return h.colors.info
	}
	return h.colors.debug
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := *h
	n.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	n.attrs = append(n.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + "." + a.Key
		}
		n.attrs = append(n.attrs, a)
	}
	return &n
}

// WithGroup implements slog.Handler. Group names prefix later keys.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	n := *h
	if n.prefix == "" {
		n.prefix = name
	} else {
		n.prefix += "." + name
	}
	return &n
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// SupportsColor reports whether w is a terminal that wants colors. NO_COLOR
// and TERM=dumb turn them off.
func SupportsColor(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return IsTTY(w)
}
