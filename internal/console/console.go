// Package console talks to the operator running an exam on the terminal.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Console reads operator answers from in and writes prompts to out.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Console.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// ReadLine prints prompt and blocks until the operator enters a line. The
// trailing newline is stripped.
func (c *Console) ReadLine(prompt string) (string, error) {
	color.New(color.FgYellow, color.Bold).Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("console: read line: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks a yes/no question. Anything other than an answer starting with
// "n" counts as yes, so a bare Enter continues.
func (c *Console) Confirm(prompt string) (bool, error) {
	line, err := c.ReadLine(prompt)
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return !strings.HasPrefix(answer, "n"), nil
}
