// Package credentials resolves the chat API key from the places an operator
// may keep it: a key file, AWS Parameter Store, or the terminal.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ErrNotFound is returned by a Source that has no key to offer. A Chain moves
// on to the next source when it sees it.
var ErrNotFound = errors.New("credentials: api key not found")

// Source yields an API key.
type Source interface {
	APIKey(ctx context.Context) (string, error)
}

// File reads the key as the trimmed content of a file.
type File struct {
	Path string
}

func (f File) APIKey(_ context.Context) (string, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("credentials: read key file %q: %w", f.Path, err)
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", ErrNotFound
	}
	return key, nil
}

// TokenGetter is satisfied by *paramstore.Client.
type TokenGetter interface {
	Token(ctx context.Context, name string) (string, error)
}

// ParamStore reads the key from a token parameter.
type ParamStore struct {
	Store TokenGetter
	Name  string
}

func (p ParamStore) APIKey(ctx context.Context) (string, error) {
	if p.Store == nil {
		return "", ErrNotFound
	}
	key, err := p.Store.Token(ctx, p.Name)
	if err != nil {
		return "", fmt.Errorf("credentials: %w", err)
	}
	return key, nil
}

// LineReader asks the operator for one line of input.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// Prompt asks the operator to type the key.
type Prompt struct {
	Reader LineReader
}

func (p Prompt) APIKey(_ context.Context) (string, error) {
	if p.Reader == nil {
		return "", ErrNotFound
	}
	line, err := p.Reader.ReadLine("\nEnter API Key:\n")
	if err != nil {
		return "", fmt.Errorf("credentials: read key from operator: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", ErrNotFound
	}
	return key, nil
}

// Static is a key resolved earlier in the run.
type Static string

func (s Static) APIKey(_ context.Context) (string, error) {
	if s == "" {
		return "", ErrNotFound
	}
	return string(s), nil
}

// Chain tries each source in order and returns the first key found.
type Chain []Source

func (c Chain) APIKey(ctx context.Context) (string, error) {
	for _, s := range c {
		key, err := s.APIKey(ctx)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		return key, nil
	}
	return "", ErrNotFound
}
