// Package transcript writes the human-readable record of an exam
// conversation. A Reporter owns one file from Open to Close; every write is
// flushed before it returns and echoed to the console.
package transcript

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/fatih/color"

	"github.com/dstrib/GPT4-Biomed-Assessment/internal/domain"
)

// ErrClosed is returned by any call on a closed Reporter.
var ErrClosed = errors.New("transcript: reporter is closed")

const headerBar = " ----- "

// Header describes the run a transcript belongs to.
type Header struct {
	ScriptVersion string
	ChatURL       string
	Model         string
	ContextWindow int
	RunID         string
}

// Reporter appends turns and usage blocks to a transcript file.
type Reporter struct {
	path    string
	file    *os.File
	w       *bufio.Writer
	console io.Writer
	closed  bool
}

// Open creates path, writes the header and every message of initial, and
// returns the open Reporter. A nil console disables echoing.
func Open(path string, h Header, performed time.Time, initial domain.Conversation, console io.Writer) (*Reporter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: create %q: %w", path, err)
	}
	r := &Reporter{
		path:    path,
		file:    f,
		w:       bufio.NewWriter(f),
		console: console,
	}
	if err := r.write(formatHeader(h, performed)); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, m := range initial.Messages() {
		if err := r.Report(m); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return r, nil
}

// Path is the file being written.
func (r *Reporter) Path() string { return r.path }

// Report appends one turn block.
func (r *Reporter) Report(m domain.Message) error {
	if r.closed {
		return ErrClosed
	}
	if err := r.write(formatTurn(m)); err != nil {
		return err
	}
	r.echo(m)
	return nil
}

// RecordUsage appends the Details and Usage blocks of a reply.
func (r *Reporter) RecordUsage(rec domain.ResponseRecord) error {
	if r.closed {
		return ErrClosed
	}
	if rec.Usage == nil || rec.Metadata == nil {
		return fmt.Errorf("transcript: %s reply has no usage to record", rec.FinishReason)
	}
	return r.write(formatUsage(rec))
}

// Close releases the file. It may be called once.
func (r *Reporter) Close() error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	flushErr := r.w.Flush()
	closeErr := r.file.Close()
	if flushErr != nil {
		return fmt.Errorf("transcript: flush %q: %w", r.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("transcript: close %q: %w", r.path, closeErr)
	}
	return nil
}

func (r *Reporter) write(s string) error {
	if _, err := r.w.WriteString(s); err != nil {
		return fmt.Errorf("transcript: write %q: %w", r.path, err)
	}
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("transcript: flush %q: %w", r.path, err)
	}
	return nil
}

var roleColors = map[domain.Role]*color.Color{
	domain.RoleSystem:    color.New(color.FgMagenta, color.Bold),
	domain.RoleUser:      color.New(color.FgGreen, color.Bold),
	domain.RoleAssistant: color.New(color.FgCyan, color.Bold),
}

func (r *Reporter) echo(m domain.Message) {
	if r.console == nil {
		return
	}
	c, ok := roleColors[m.Role]
	if !ok {
		c = color.New(color.Bold)
	}
	c.Fprint(r.console, headerBar+string(m.Role)+headerBar)
	fmt.Fprint(r.console, "\n"+trimRight(m.Content)+"\n\n\n")
}

func formatHeader(h Header, performed time.Time) string {
	var b strings.Builder
	b.WriteString("Conversation Details:\n")
	b.WriteString("    Script Version: " + h.ScriptVersion + "\n")
	b.WriteString("    Performed: " + performed.Format("2006-01-02 15:04:05.000000") + "\n")
	if h.RunID != "" {
		b.WriteString("    Run ID: " + h.RunID + "\n")
	}
	b.WriteString("    Chat URL: " + h.ChatURL + "\n")
	b.WriteString("    Model: " + h.Model + "\n")
	b.WriteString("    Max Context Window: " + strconv.Itoa(h.ContextWindow) + "\n")
	b.WriteString("\n")
	return b.String()
}

func formatTurn(m domain.Message) string {
	return headerBar + string(m.Role) + headerBar + "\n" + trimRight(m.Content) + "\n\n"
}

func formatUsage(rec domain.ResponseRecord) string {
	var b strings.Builder
	b.WriteString("Details:\n")
	writeField(&b, "Finish_Reason", string(rec.FinishReason))
	writeField(&b, "Created", strconv.FormatInt(rec.Metadata.Created, 10))
	writeField(&b, "Id", rec.Metadata.ID)
	writeField(&b, "Model", rec.Metadata.Model)
	writeField(&b, "Object", rec.Metadata.Object)
	b.WriteString("\n")
	b.WriteString("Usage:\n")
	writeField(&b, "Prompt_Tokens", strconv.Itoa(rec.Usage.PromptTokens))
	writeField(&b, "Completion_Tokens", strconv.Itoa(rec.Usage.CompletionTokens))
	writeField(&b, "Total_Tokens", strconv.Itoa(rec.Usage.TotalTokens))
	b.WriteString("\n")
	return b.String()
}

func writeField(b *strings.Builder, key, value string) {
	b.WriteString("    " + key + ": " + value + "\n")
}

func trimRight(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
