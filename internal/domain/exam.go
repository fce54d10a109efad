package domain

import "strings"

// ExamType selects the answer-format instructions given to the model.
type ExamType string

const (
	ExamHandwritten ExamType = "handwritten"
	ExamText        ExamType = "text"
	ExamOther       ExamType = "other"
)

// ParseExamType maps a configured exam type onto a known value. Anything that
// is not handwritten or text is treated as other.
func ParseExamType(s string) ExamType {
	switch ExamType(strings.TrimSpace(s)) {
	case ExamHandwritten:
		return ExamHandwritten
	case ExamText:
		return ExamText
	default:
		return ExamOther
	}
}

// ExamParameters describes one exam configuration file. It is read-only after
// loading.
type ExamParameters struct {
	Course             string
	Field              string
	ExamType           ExamType
	OutFilePrefix      string
	QuestionsFileName  string
	ExpertRemoveLists  bool
	ResetPromptNumbers map[int]struct{}
}

// IsReset reports whether the 1-based question index starts a new transcript.
func (p ExamParameters) IsReset(index int) bool {
	_, ok := p.ResetPromptNumbers[index]
	return ok
}

// QuestionDelimiter separates questions in a questions file.
const QuestionDelimiter = "-&-"

// QuestionSet is the ordered list of questions of one exam.
type QuestionSet []string

// ParseQuestions splits raw on QuestionDelimiter. Each segment is trimmed and
// terminated by a single newline; empty segments are kept in place.
func ParseQuestions(raw string) QuestionSet {
	parts := strings.Split(raw, QuestionDelimiter)
	out := make(QuestionSet, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p)+"\n")
	}
	return out
}
