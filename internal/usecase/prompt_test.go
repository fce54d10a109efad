package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dstrib/GPT4-Biomed-Assessment/internal/domain"
)

func TestFormatSystemPrompt_Expert(t *testing.T) {
	out, err := FormatSystemPrompt(ExpertTemplate, "Biochemistry", "molecular biology", TextInstructions)
	require.NoError(t, err)
	require.Contains(t, out, "graduate course in Biochemistry.\n")
	require.Contains(t, out, "expert in the field of molecular biology.\n")
	require.Contains(t, out, "Details regarding the examination:\n\nAnswers will be entered as plaintext")
	require.NotContains(t, out, "{")
}

func TestFormatSystemPrompt_BlankInstructions(t *testing.T) {
	out, err := FormatSystemPrompt(ExpertTemplate, "Genetics", "genetics", BlankInstructions)
	require.NoError(t, err)
	require.Contains(t, out, "Details regarding the examination:\n\nSome questions may have multiple parts")
}

func TestFormatSystemPrompt_SimpleHasNoSlots(t *testing.T) {
	out, err := FormatSystemPrompt(SimpleTemplate, "Genetics", "genetics", HandwrittenInstructions)
	require.NoError(t, err)
	require.Equal(t, "Please answer the following questions.\n", out)
}

func TestFormatSystemPrompt_Mismatch(t *testing.T) {
	cases := []struct {
		name string
		tmpl Template
		want string
	}{
		{
			name: "declared slot absent",
			tmpl: Template{Name: "t", Text: "course {course}", Slots: []string{SlotCourse, SlotField}},
			want: "missing [field]",
		},
		{
			name: "positional placeholder",
			tmpl: Template{Name: "t", Text: "course {course} in {}", Slots: []string{SlotCourse}},
			want: "unexpected []",
		},
		{
			name: "unknown slot",
			tmpl: Template{Name: "t", Text: "{course} {year}", Slots: []string{SlotCourse}},
			want: "unexpected [year]",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FormatSystemPrompt(tc.tmpl, "c", "f", "")
			require.ErrorIs(t, err, ErrTemplateMismatch)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestFormatInstructions(t *testing.T) {
	require.Equal(t, HandwrittenInstructions, FormatInstructions(domain.ExamHandwritten))
	require.Equal(t, TextInstructions, FormatInstructions(domain.ExamText))
	require.Equal(t, BlankInstructions, FormatInstructions(domain.ExamOther))
}

func TestModes_OrderAndFlags(t *testing.T) {
	modes := Modes()
	require.Len(t, modes, 3)
	require.Equal(t, "Simple", modes[0].Name)
	require.Equal(t, "Expert", modes[1].Name)
	require.Equal(t, "Expert_Short", modes[2].Name)

	require.False(t, modes[0].Shorten)
	require.False(t, modes[1].Shorten)
	require.True(t, modes[2].Shorten)
	require.Equal(t, InitStatementSimple, modes[0].AssistantInit)
	require.Equal(t, InitStatementExpert, modes[2].AssistantInit)
}

func TestMode_RemovesLists(t *testing.T) {
	withLists := domain.ExamParameters{ExpertRemoveLists: true}
	without := domain.ExamParameters{}
	modes := Modes()

	require.False(t, modes[0].RemovesLists(withLists))
	require.True(t, modes[1].RemovesLists(withLists))
	require.True(t, modes[2].RemovesLists(withLists))
	require.False(t, modes[1].RemovesLists(without))
}

func TestContainsNumberedList(t *testing.T) {
	require.True(t, containsNumberedList("Steps:\n1. Bind\n2. Cleave"))
	require.True(t, containsNumberedList("See figure 1. It shows"))
	require.False(t, containsNumberedList("1) Bind 2) Cleave"))
	require.False(t, containsNumberedList("version 1.2"))
}
