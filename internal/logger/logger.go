// Package logger is a colorized console slog.Handler for interactive runs.
package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type runIDKey struct{}

// ContextWithRunID tags ctx with the id of the current run. Records logged
// with that context carry the id.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// Err is the attribute errors are logged under.
func Err(err error) slog.Attr {
	return slog.Any("err", err)
}

type Options struct {
	// Level is the minimum level logged. Nil means slog.LevelInfo.
	Level slog.Leveler
	// TimeFormat defaults to time.DateTime.
	TimeFormat string
	// NoColor writes plain text.
	NoColor bool
}

var (
	faint   = color.New(color.Faint)
	runID   = color.New(color.FgMagenta)
	keyCol  = color.New(color.FgCyan)
	errCol  = color.New(color.FgRed)
	debugBg = color.New(color.BgCyan, color.FgHiWhite)
	infoBg  = color.New(color.BgGreen, color.FgHiWhite)
	warnBg  = color.New(color.BgYellow, color.FgHiWhite)
	errorBg = color.New(color.BgRed, color.FgHiWhite)
)

// Handler writes one line per record: time, run id, level badge, message and
// key=value attributes.
type Handler struct {
	opts  Options
	group string
	attrs []slog.Attr
	mu    *sync.Mutex
	out   io.Writer
}

func NewHandler(out io.Writer, opts *Options) *Handler {
	h := &Handler{out: out, mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	if h.opts.TimeFormat == "" {
		h.opts.TimeFormat = time.DateTime
	}
	return h
}

// New returns a logger writing to out through a Handler.
func New(out io.Writer, level slog.Level, noColor bool) *slog.Logger {
	return slog.New(NewHandler(out, &Options{Level: level, NoColor: noColor}))
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	bf := bufPool.Get().(*bytes.Buffer)
	bf.Reset()
	defer bufPool.Put(bf)

	if !r.Time.IsZero() {
		bf.WriteString(h.paint(faint, r.Time.Format(h.opts.TimeFormat)))
		bf.WriteByte(' ')
	}
	if id, ok := RunIDFromContext(ctx); ok {
		bf.WriteString(h.paint(runID, id))
		bf.WriteByte(' ')
	}
	bf.WriteString(h.badge(r.Level))
	bf.WriteByte(' ')
	bf.WriteString(r.Message)

	for _, a := range h.attrs {
		h.writeAttr(bf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(bf, h.group, a)
		return true
	})
	bf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(bf.Bytes())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	for _, a := range attrs {
		a.Key = qualify(h.group, a.Key)
		h2.attrs = append(h2.attrs, a)
	}
	return h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.group = qualify(h.group, name)
	return h2
}

func (h *Handler) clone() *Handler {
	return &Handler{
		opts:  h.opts,
		group: h.group,
		attrs: append([]slog.Attr(nil), h.attrs...),
		mu:    h.mu,
		out:   h.out,
	}
}

func (h *Handler) writeAttr(bf *bytes.Buffer, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := qualify(group, a.Key)
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.writeAttr(bf, key, ga)
		}
		return
	}

	c := keyCol
	if strings.Contains(a.Key, "err") {
		c = errCol
	}
	bf.WriteByte(' ')
	bf.WriteString(h.paint(c, key+"="))
	bf.WriteString(a.Value.String())
}

func (h *Handler) badge(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return h.paint(debugBg, "DEBUG")
	case level < slog.LevelWarn:
		return h.paint(infoBg, "INFO ")
	case level < slog.LevelError:
		return h.paint(warnBg, "WARN ")
	default:
		return h.paint(errorBg, "ERROR")
	}
}

func (h *Handler) paint(c *color.Color, s string) string {
	if h.opts.NoColor {
		return s
	}
	return c.Sprint(s)
}

func qualify(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

var bufPool = sync.Pool{
	New: func() any { return &bytes.Buffer{} },
}
