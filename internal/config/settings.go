// Package config loads run settings from the environment and exam parameters
// from their JSON files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v9"

	"github.com/dstrib/GPT4-Biomed-Assessment/internal/domain"
)

// apiKeyParameter is appended to PARAM_PREFIX to name the SSM parameter
// holding the API key.
const apiKeyParameter = "/open-ai-token"

// Settings are the run-wide knobs. Only main reads the environment.
type Settings struct {
	Model            string   `env:"MODEL" envDefault:"gpt-4"`
	BaseURL          string   `env:"OPENAI_BASE_URL"`
	MaxContextWindow int      `env:"MAX_CONTEXT_WINDOW" envDefault:"8192"`
	StartAtPrompt    int      `env:"START_AT_PROMPT" envDefault:"0"`
	ConfirmContinue  bool     `env:"CONFIRM_CONTINUE" envDefault:"false"`
	IODir            string   `env:"IO_DIR" envDefault:"."`
	APIKeyFile       string   `env:"API_KEY_FILE" envDefault:"../../GPT/API_KEY.txt"`
	ParamPrefix      string   `env:"PARAM_PREFIX"`
	ExamFiles        []string `env:"EXAM_FILES" envSeparator:"," envDefault:"Example_Course_settings.json"`
	NoResponsePolicy string   `env:"NO_RESPONSE_POLICY" envDefault:"skip"`
	LogLevel         string   `env:"LOG_LEVEL" envDefault:"info"`
	NoColor          string   `env:"NO_COLOR"`
}

// Load parses Settings from the process environment.
func Load() (Settings, error) {
	return parse(env.Options{})
}

// LoadFrom parses Settings from the given variables instead of the process
// environment.
func LoadFrom(environ map[string]string) (Settings, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, opts); err != nil {
		return Settings{}, fmt.Errorf("config: parse environment: %w", err)
	}
	var files []string
	for _, f := range s.ExamFiles {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	s.ExamFiles = files
	s.ParamPrefix = strings.TrimRight(strings.TrimSpace(s.ParamPrefix), "/")
	return s, nil
}

// Validate returns an error for settings the run cannot start with and
// warnings for values that are usable but probably unintended.
func (s Settings) Validate() (warnings []string, err error) {
	if strings.TrimSpace(s.Model) == "" {
		return nil, errors.New("config: MODEL must not be empty")
	}
	if s.MaxContextWindow <= 0 {
		return nil, fmt.Errorf("config: MAX_CONTEXT_WINDOW must be positive, got %d", s.MaxContextWindow)
	}
	if len(s.ExamFiles) == 0 {
		return nil, errors.New("config: EXAM_FILES must name at least one exam file")
	}
	if _, err := s.Level(); err != nil {
		return nil, err
	}

	if s.StartAtPrompt < 0 {
		warnings = append(warnings, fmt.Sprintf("START_AT_PROMPT %d is negative; every prompt will run", s.StartAtPrompt))
	}
	if s.MaxContextWindow < 1024 {
		warnings = append(warnings, fmt.Sprintf("MAX_CONTEXT_WINDOW %d is unusually small", s.MaxContextWindow))
	}
	if s.APIKeyFile == "" && s.ParamPrefix == "" {
		warnings = append(warnings, "neither API_KEY_FILE nor PARAM_PREFIX is set; the API key will be asked for")
	}
	if info, statErr := os.Stat(s.IODir); statErr != nil || !info.IsDir() {
		warnings = append(warnings, fmt.Sprintf("IO_DIR %q is not a directory", s.IODir))
	}
	return warnings, nil
}

// Level maps LOG_LEVEL to a slog level.
func (s Settings) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL %q: %w", s.LogLevel, err)
	}
	return l, nil
}

// Colorless follows the NO_COLOR convention: any non-empty value disables
// colors.
func (s Settings) Colorless() bool { return s.NoColor != "" }

// APIKeyParameter is the SSM parameter holding the API key, or "" when no
// prefix is configured.
func (s Settings) APIKeyParameter() string {
	if s.ParamPrefix == "" {
		return ""
	}
	return s.ParamPrefix + apiKeyParameter
}

// ExamPaths resolves the exam files against IO_DIR.
func (s Settings) ExamPaths() []string {
	paths := make([]string, 0, len(s.ExamFiles))
	for _, f := range s.ExamFiles {
		paths = append(paths, s.resolve(f))
	}
	return paths
}

// QuestionsPath resolves an exam's questions file against IO_DIR.
func (s Settings) QuestionsPath(exam domain.ExamParameters) string {
	return s.resolve(exam.QuestionsFileName)
}

// OutputDir is where transcripts are written.
func (s Settings) OutputDir() string { return s.IODir }

func (s Settings) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.IODir, name)
}
