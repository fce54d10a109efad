package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/dstrib/GPT4-Biomed-Assessment/internal/domain"
)

// ErrInvalidExam wraps every problem found in an exam configuration file.
var ErrInvalidExam = errors.New("config: invalid exam file")

// Exam configuration keys.
const (
	keyCourse             = "course"
	keyField              = "field"
	keyExamType           = "exam_type"
	keyOutFilePrefix      = "out_file_prefix"
	keyQuestionsFileName  = "questions_file_name"
	keyExpertRemoveLists  = "expert_remove_lists"
	keyResetPromptNumbers = "reset_prompt_numbers"
)

var requiredExamKeys = []string{
	keyCourse,
	keyField,
	keyExamType,
	keyOutFilePrefix,
	keyQuestionsFileName,
	keyExpertRemoveLists,
}

// Exam is one loaded exam configuration file.
type Exam struct {
	Path       string
	Parameters domain.ExamParameters
}

// LoadExam reads an exam configuration file. Every missing or mistyped key is
// reported in one error.
func LoadExam(path string) (Exam, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return Exam{}, fmt.Errorf("config: read exam %q: %w", path, err)
	}

	var errs *multierror.Error
	for _, k := range requiredExamKeys {
		if !v.IsSet(k) {
			errs = multierror.Append(errs, fmt.Errorf("missing key %q", k))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return Exam{}, fmt.Errorf("%w %q: %w", ErrInvalidExam, path, err)
	}

	str := func(key string) string {
		s, err := cast.ToStringE(v.Get(key))
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("key %q: %w", key, err))
		}
		return s
	}
	p := domain.ExamParameters{
		Course:            str(keyCourse),
		Field:             str(keyField),
		ExamType:          domain.ParseExamType(str(keyExamType)),
		OutFilePrefix:     str(keyOutFilePrefix),
		QuestionsFileName: str(keyQuestionsFileName),
	}
	removeLists, err := cast.ToBoolE(v.Get(keyExpertRemoveLists))
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("key %q: %w", keyExpertRemoveLists, err))
	}
	p.ExpertRemoveLists = removeLists

	resets, err := resetNumbers(v.Get(keyResetPromptNumbers))
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("key %q: %w", keyResetPromptNumbers, err))
	}
	p.ResetPromptNumbers = resets

	if p.OutFilePrefix == "" {
		errs = multierror.Append(errs, fmt.Errorf("key %q must not be empty", keyOutFilePrefix))
	}
	if p.QuestionsFileName == "" {
		errs = multierror.Append(errs, fmt.Errorf("key %q must not be empty", keyQuestionsFileName))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return Exam{}, fmt.Errorf("%w %q: %w", ErrInvalidExam, path, err)
	}
	return Exam{Path: path, Parameters: p}, nil
}

// resetNumbers accepts a list of integer-like values, numbers or numeric
// strings. Strings are read as decimal so zero-padded values keep their
// value. A missing or null value means no resets.
func resetNumbers(raw any) (map[int]struct{}, error) {
	if raw == nil {
		return nil, nil
	}
	items, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, err
	}
	out := make(map[int]struct{}, len(items))
	for _, item := range items {
		n, err := resetNumber(item)
		if err != nil {
			return nil, err
		}
		out[n] = struct{}{}
	}
	return out, nil
}

func resetNumber(item any) (int, error) {
	if s, ok := item.(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("reset number %q is not an integer", s)
		}
		return n, nil
	}
	return cast.ToIntE(item)
}

// LoadQuestions reads and splits a questions file.
func LoadQuestions(path string) (domain.QuestionSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read questions %q: %w", path, err)
	}
	return domain.ParseQuestions(string(raw)), nil
}
