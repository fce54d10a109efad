package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dstrib/GPT4-Biomed-Assessment/internal/domain"
)

func TestLoadFrom_Defaults(t *testing.T) {
	s, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	require.Equal(t, "gpt-4", s.Model)
	require.Equal(t, 8192, s.MaxContextWindow)
	require.Equal(t, 0, s.StartAtPrompt)
	require.False(t, s.ConfirmContinue)
	require.Equal(t, ".", s.IODir)
	require.Equal(t, "../../GPT/API_KEY.txt", s.APIKeyFile)
	require.Equal(t, []string{"Example_Course_settings.json"}, s.ExamFiles)
	require.Equal(t, "skip", s.NoResponsePolicy)
	require.Empty(t, s.APIKeyParameter())
	require.False(t, s.Colorless())
}

func TestLoadFrom_Overrides(t *testing.T) {
	s, err := LoadFrom(map[string]string{
		"MODEL":              "gpt-4-32k",
		"MAX_CONTEXT_WINDOW": "32768",
		"START_AT_PROMPT":    "4",
		"CONFIRM_CONTINUE":   "true",
		"IO_DIR":             "/data/exams",
		"PARAM_PREFIX":       " /exam-runner/ ",
		"EXAM_FILES":         "BCH_settings.json, GEN_settings.json,,",
		"NO_RESPONSE_POLICY": "abort",
		"LOG_LEVEL":          "debug",
		"NO_COLOR":           "1",
	})
	require.NoError(t, err)

	require.Equal(t, "gpt-4-32k", s.Model)
	require.Equal(t, 32768, s.MaxContextWindow)
	require.Equal(t, 4, s.StartAtPrompt)
	require.True(t, s.ConfirmContinue)
	require.Equal(t, "/exam-runner/open-ai-token", s.APIKeyParameter())
	require.Equal(t, []string{
		filepath.Join("/data/exams", "BCH_settings.json"),
		filepath.Join("/data/exams", "GEN_settings.json"),
	}, s.ExamPaths())
	require.Equal(t, "/data/exams", s.OutputDir())
	require.True(t, s.Colorless())

	level, err := s.Level()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, level)
}

func TestLoadFrom_BadInteger(t *testing.T) {
	_, err := LoadFrom(map[string]string{"MAX_CONTEXT_WINDOW": "lots"})
	require.Error(t, err)
}

func TestExamPaths_KeepsAbsolutePaths(t *testing.T) {
	s := Settings{IODir: "in", ExamFiles: []string{"/abs/exam.json", "rel.json"}}
	require.Equal(t, []string{"/abs/exam.json", filepath.Join("in", "rel.json")}, s.ExamPaths())
}

func validSettings(t *testing.T) Settings {
	t.Helper()
	return Settings{
		Model:            "gpt-4",
		MaxContextWindow: 8192,
		IODir:            t.TempDir(),
		APIKeyFile:       "key.txt",
		ExamFiles:        []string{"exam.json"},
		LogLevel:         "info",
	}
}

func TestValidate_Clean(t *testing.T) {
	warnings, err := validSettings(t).Validate()
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{"empty model", func(s *Settings) { s.Model = " " }, "MODEL"},
		{"zero window", func(s *Settings) { s.MaxContextWindow = 0 }, "MAX_CONTEXT_WINDOW"},
		{"no exam files", func(s *Settings) { s.ExamFiles = nil }, "EXAM_FILES"},
		{"bad log level", func(s *Settings) { s.LogLevel = "loud" }, "LOG_LEVEL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSettings(t)
			tc.mutate(&s)
			_, err := s.Validate()
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{"negative start", func(s *Settings) { s.StartAtPrompt = -1 }, "START_AT_PROMPT"},
		{"small window", func(s *Settings) { s.MaxContextWindow = 512 }, "MAX_CONTEXT_WINDOW"},
		{"no key source", func(s *Settings) { s.APIKeyFile = "" }, "API key will be asked for"},
		{"missing io dir", func(s *Settings) { s.IODir = filepath.Join(s.IODir, "missing") }, "IO_DIR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSettings(t)
			tc.mutate(&s)
			warnings, err := s.Validate()
			require.NoError(t, err)
			require.Len(t, warnings, 1)
			require.True(t, strings.Contains(warnings[0], tc.want), warnings[0])
		})
	}
}

func TestQuestionsPath_ResolvesAgainstIODir(t *testing.T) {
	s := Settings{IODir: "exams"}
	require.Equal(t, filepath.Join("exams", "BCH_questions.txt"),
		s.QuestionsPath(domain.ExamParameters{QuestionsFileName: "BCH_questions.txt"}))
	require.Equal(t, "/abs/q.txt",
		s.QuestionsPath(domain.ExamParameters{QuestionsFileName: "/abs/q.txt"}))
}
