package usecase

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dstrib/GPT4-Biomed-Assessment/internal/domain"
)

// ErrTemplateMismatch means a template's placeholders differ from the slots it
// declares.
var ErrTemplateMismatch = errors.New("usecase: template placeholders do not match declared slots")

// Placeholder slots a system template may declare.
const (
	SlotCourse = "course"
	SlotField  = "field"
	SlotFormat = "format"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_]*)\}`)

// Template is a system instruction text with named {slot} placeholders.
type Template struct {
	Name  string
	Text  string
	Slots []string
}

// Mode is one prompting strategy an exam is run under. Each mode writes its
// own transcript.
type Mode struct {
	Name          string
	System        Template
	AssistantInit string
	Shorten       bool
}

// RemovesLists reports whether list-removal follow-ups apply to this mode for
// the given exam.
func (m Mode) RemovesLists(exam domain.ExamParameters) bool {
	return strings.Contains(m.Name, "Expert") && exam.ExpertRemoveLists
}

// Modes returns the prompting modes in run order.
func Modes() []Mode {
	return []Mode{
		{Name: "Simple", System: SimpleTemplate, AssistantInit: InitStatementSimple},
		{Name: "Expert", System: ExpertTemplate, AssistantInit: InitStatementExpert},
		{Name: "Expert_Short", System: ExpertTemplate, AssistantInit: InitStatementExpert, Shorten: true},
	}
}

// FormatSystemPrompt fills the template's slots. The template must contain
// exactly the slots it declares; anything else is ErrTemplateMismatch.
func FormatSystemPrompt(t Template, course, field, formatInstructions string) (string, error) {
	found := map[string]bool{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(t.Text, -1) {
		found[m[1]] = true
	}
	declared := map[string]bool{}
	for _, s := range t.Slots {
		declared[s] = true
	}

	var missing, unexpected []string
	for s := range declared {
		if !found[s] {
			missing = append(missing, s)
		}
	}
	for s := range found {
		if !declared[s] {
			unexpected = append(unexpected, s)
		}
	}
	if len(missing) > 0 || len(unexpected) > 0 {
		sort.Strings(missing)
		sort.Strings(unexpected)
		return "", fmt.Errorf("%w: template %q missing [%s] unexpected [%s]", ErrTemplateMismatch,
			t.Name, strings.Join(missing, " "), strings.Join(unexpected, " "))
	}

	values := map[string]string{SlotCourse: course, SlotField: field, SlotFormat: formatInstructions}
	var pairs []string
	for _, s := range t.Slots {
		pairs = append(pairs, "{"+s+"}", values[s])
	}
	return strings.NewReplacer(pairs...).Replace(t.Text), nil
}

// FormatInstructions returns the answer-format boilerplate for an exam type.
func FormatInstructions(t domain.ExamType) string {
	switch t {
	case domain.ExamHandwritten:
		return HandwrittenInstructions
	case domain.ExamText:
		return TextInstructions
	default:
		return BlankInstructions
	}
}

// NoResponseText stands in for the assistant turn of a reply without choices.
const NoResponseText = "No response from GPT!"

var SimpleTemplate = Template{
	Name: "simple",
	Text: "Please answer the following questions.\n",
}

var ExpertTemplate = Template{
	Name:  "expert",
	Slots: []string{SlotCourse, SlotField, SlotFormat},
	Text: `I am going to give you questions from an examination in a graduate course in {course}.
Please act as an expert in the field of {field}.
Please answer each question as correctly as possible, using technical or advanced
language as necessary to answer the question correctly.

Details regarding the examination:{format}

Some questions may have multiple parts, denoted by letters after the question number.
For example: 1A and 1B. When answering multiple part questions, refer to the answer of
previous parts of the question as necessary to answer each question correctly.

Fore each quesiton, respond with an answer as a narrative paragraph, without including
a list in the answer.
If the answer to a question contains multiple ideas, components, or steps, respond with
narrative paragraphs connecting topics or ideas.
If a question asks you how you would do something, respond with a narrative paragraph
and do not separate the answer into a list of steps.

Some questions will refer to a figure, chart, or graphic. For these questions, ask for a
description of each panel of the graphic before answering the question, and then use the
graphic to answer the question as needed. **Do Not** answer questions that refer to a
figure, chart, or graphic without first asking for a description.

Some questions will request you to draw a figure or diagram to assist in answering the
question. This is signified by keywords: "draw" or "sketch" in the question.
For these questions, after providing the text of your answer, provide a full
page of extremely detailed drawing instructions to draw up to one graphic as appropriate
to answer the question. For drawing instructions, first start with the text:
"[Drawing Instructions]". Then, provide detailed instructions
on each shape and line to be drawn, and their relative position to the other shapes
and lines in the drawing. Then provide any captions to be drawn as well as indicating
what shapes or lines should be captioned.

Remember, answer all questions in narrative form, acting as an expert in the field.
Answers should be extremely clear and extremely concise.

Thank you!`,
}

const BlankInstructions = ""

var TextInstructions = strings.Join([]string{
	"",
	"",
	"Answers will be entered as plaintext into the response portion of a document as a student",
	"in an exam setting, so do not include any markdown symbols.",
	"Your answers should be extremely concise and extremely clear so that they can fit into the",
	"answer textbox for the examination.",
}, "\n")

var HandwrittenInstructions = strings.Join([]string{
	"",
	"",
	"Answers will be handwritten on a sheet of paper like a student in a classroom.",
	"Your answers should be extremely concise and extremely clear so that they can be handwritten.",
	"A 1-page answer should be at max 14 lines.",
	"A 1/2-page answer should be at max 7 lines.",
	"A 1/4-page answer should be at max 4 lines.",
	"",
	"Emphasize the most important words or concepts in your answer using bolded text as appropriate.",
	"There should be at least four bolded words or concepts in each answer, or approximately one",
	"bolded word or concept per 2-3 lines of text.",
}, "\n")

const UserInitStatement = "I am ready to provide you with questions to answer."

const InitStatementSimple = "Please provide the questions from the examination."

var InitStatementExpert = strings.Join([]string{
	"Please provide the questions from the graduate-level examination. I will provide extremely",
	"clear and concise answers to each question, acting as an expert in the field. My answers",
	"will be provided as narrative paragraphs and will not not include a list unless the question",
	"specifically asks for a list. If the question mentions a figure, chart, or graphic, I will",
	"ask for a description of the figure, chart, or graphic before answering the question. If the",
	"question mentions providing a drawing or sketch, I will provide detailed instructions",
	"on how to draw a graphic illustrating my answer after providing the text of my answer.",
	"Please provide the first question.",
}, "\n")

var ListRemoveRequest = strings.Join([]string{
	"The last answer you provided included a list. Please restate the answer as paragraphs of",
	"clear, concise narrative text without any numeric lists.",
}, "\n")

var ShortenRequest = strings.Join([]string{
	"Please shorten the last answer to approximately sixty-five percent of the original length.",
	"The shortened answer should be correct, clear, and concise without any numeric lists.",
}, "\n")

// listMarker is the substring taken to mean the reply contains a numbered
// list. Matching is a plain substring test.
const listMarker = "1. "

func containsNumberedList(text string) bool {
	return strings.Contains(text, listMarker)
}
