package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-multierror"

	"github.com/dstrib/GPT4-Biomed-Assessment/internal/domain"
)

type ChatClient interface {
	Complete(ctx context.Context, model string, conv domain.Conversation) (domain.RawReply, error)
}

type ReplyProcessor interface {
	Extract(raw domain.RawReply) (domain.ResponseRecord, error)
}

// Transcript is the open record of one conversation segment.
type Transcript interface {
	Report(m domain.Message) error
	RecordUsage(rec domain.ResponseRecord) error
	Close() error
}

type TranscriptOpener interface {
	Open(path string, initial domain.Conversation) (Transcript, error)
}

// TranscriptOpenerFunc adapts a function to TranscriptOpener.
type TranscriptOpenerFunc func(path string, initial domain.Conversation) (Transcript, error)

func (f TranscriptOpenerFunc) Open(path string, initial domain.Conversation) (Transcript, error) {
	return f(path, initial)
}

// Operator answers blocking yes/no questions during a run.
type Operator interface {
	Confirm(prompt string) (bool, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// NoResponsePolicy decides what happens when a reply carries no choices.
type NoResponsePolicy string

const (
	// NoResponseSkip records a placeholder answer, writes no usage block and
	// moves on to the next question.
	NoResponseSkip NoResponsePolicy = "skip"
	// NoResponseAbort stops the run.
	NoResponseAbort NoResponsePolicy = "abort"
)

func ParseNoResponsePolicy(s string) (NoResponsePolicy, error) {
	switch p := NoResponsePolicy(s); p {
	case NoResponseSkip, NoResponseAbort:
		return p, nil
	case "":
		return NoResponseSkip, nil
	default:
		return "", fmt.Errorf("usecase: unknown no-response policy %q", s)
	}
}

// ExamSettings are the run-wide knobs of an ExamService.
type ExamSettings struct {
	Model           string
	ContextWindow   int
	StartAtPrompt   int
	ConfirmContinue bool
	NoResponse      NoResponsePolicy
	OutputDir       string
}

// ExamService runs exams question by question against the chat model.
type ExamService struct {
	llm         ChatClient
	replies     ReplyProcessor
	transcripts TranscriptOpener
	operator    Operator
	settings    ExamSettings
	modes       []Mode
	log         *slog.Logger
}

func NewExamService(llm ChatClient, replies ReplyProcessor, transcripts TranscriptOpener, operator Operator, settings ExamSettings, log *slog.Logger) (*ExamService, error) {
	if llm == nil {
		return nil, errors.New("usecase: chat client must not be nil")
	}
	if replies == nil {
		return nil, errors.New("usecase: reply processor must not be nil")
	}
	if transcripts == nil {
		return nil, errors.New("usecase: transcript opener must not be nil")
	}
	if operator == nil {
		return nil, errors.New("usecase: operator must not be nil")
	}
	if settings.Model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	if settings.ContextWindow <= 0 {
		return nil, errors.New("usecase: context window must be positive")
	}
	if settings.NoResponse == "" {
		settings.NoResponse = NoResponseSkip
	}
	if log == nil {
		log = slog.Default()
	}
	return &ExamService{
		llm:         llm,
		replies:     replies,
		transcripts: transcripts,
		operator:    operator,
		settings:    settings,
		modes:       Modes(),
		log:         log,
	}, nil
}

// RunExam runs every mode over the question set, one transcript per mode and
// reset segment. The first failure stops the exam.
func (s *ExamService) RunExam(ctx context.Context, exam domain.ExamParameters, questions domain.QuestionSet) error {
	for _, mode := range s.modes {
		if err := s.RunMode(ctx, exam, questions, mode); err != nil {
			return err
		}
	}
	return nil
}

// RunMode runs the question set under one mode. The open transcript is closed
// on every return path.
func (s *ExamService) RunMode(ctx context.Context, exam domain.ExamParameters, questions domain.QuestionSet, mode Mode) (err error) {
	systemText, err := FormatSystemPrompt(mode.System, exam.Course, exam.Field, FormatInstructions(exam.ExamType))
	if err != nil {
		return newError(ErrorTemplate, "system_prompt_format", err)
	}

	run := &modeRun{
		svc:         s,
		exam:        exam,
		mode:        mode,
		questions:   questions,
		initial:     domain.Seed(systemText, UserInitStatement, mode.AssistantInit),
		removeLists: mode.RemovesLists(exam),
		log:         s.log.With("mode", mode.Name),
	}
	defer func() {
		if run.transcript == nil {
			return
		}
		if cerr := run.closeSegment(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	run.log.InfoContext(ctx, "mode started")
	if err := run.openSegment(ctx, 0); err != nil {
		return err
	}
	for i, q := range questions {
		if err := run.question(ctx, i+1, q); err != nil {
			return err
		}
	}
	if err := run.closeSegment(); err != nil {
		return err
	}

	run.log.InfoContext(ctx, "mode completed", "transcripts", run.segments)
	return nil
}

type phase int

const (
	phaseSkip phase = iota
	phaseReset
	phaseAsk
	phaseRemoveLists
	phaseShorten
	phaseConfirm
	phaseDone
)

// modeRun is the state of one mode over one exam: the open transcript segment
// and the conversation sent so far in that segment.
type modeRun struct {
	svc         *ExamService
	exam        domain.ExamParameters
	mode        Mode
	questions   domain.QuestionSet
	initial     domain.Conversation
	removeLists bool
	log         *slog.Logger

	transcript Transcript
	conv       domain.Conversation
	segments   int
}

func (r *modeRun) question(ctx context.Context, idx int, text string) error {
	var last domain.ResponseRecord
	for p := r.entry(idx); p != phaseDone; p = r.next(p, idx, last) {
		var err error
		switch p {
		case phaseSkip:
			r.log.InfoContext(ctx, "skipping prompt", "prompt", idx)
		case phaseReset:
			err = r.reset(ctx, idx)
		case phaseAsk:
			r.log.InfoContext(ctx, "prompt", "prompt", idx)
			last, err = r.exchange(ctx, text)
		case phaseRemoveLists:
			last, err = r.exchange(ctx, ListRemoveRequest)
		case phaseShorten:
			last, err = r.exchange(ctx, ShortenRequest)
		case phaseConfirm:
			err = r.confirm("\nContinue?\n", "operator_declined")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *modeRun) entry(idx int) phase {
	switch {
	case idx < r.svc.settings.StartAtPrompt:
		return phaseSkip
	case r.exam.IsReset(idx):
		return phaseReset
	default:
		return phaseAsk
	}
}

func (r *modeRun) next(p phase, idx int, last domain.ResponseRecord) phase {
	switch p {
	case phaseReset:
		return phaseAsk
	case phaseAsk:
		if r.removeLists && !last.NoResponse() && containsNumberedList(last.Text) {
			return phaseRemoveLists
		}
		return r.afterLists(idx, last)
	case phaseRemoveLists:
		return r.afterLists(idx, last)
	case phaseShorten:
		return r.afterFollowUps(idx)
	default:
		return phaseDone
	}
}

func (r *modeRun) afterLists(idx int, last domain.ResponseRecord) phase {
	if r.mode.Shorten && !last.NoResponse() {
		return phaseShorten
	}
	return r.afterFollowUps(idx)
}

func (r *modeRun) afterFollowUps(idx int) phase {
	if r.svc.settings.ConfirmContinue && idx < len(r.questions) {
		return phaseConfirm
	}
	return phaseDone
}

// segmentPath names the transcript of the segment starting at question idx;
// idx 0 is the first segment of a mode.
func (r *modeRun) segmentPath(idx int) string {
	name := r.exam.OutFilePrefix + "_" + r.mode.Name
	if idx > 0 {
		name += "_" + strconv.Itoa(idx)
	}
	return filepath.Join(r.svc.settings.OutputDir, name+".txt")
}

func (r *modeRun) openSegment(ctx context.Context, idx int) error {
	path := r.segmentPath(idx)
	t, err := r.svc.transcripts.Open(path, r.initial)
	if err != nil {
		return newError(ErrorTranscript, "transcript_open_error", err)
	}
	r.transcript = t
	r.conv = r.initial
	r.segments++
	r.log.DebugContext(ctx, "transcript opened", "path", path)
	return nil
}

func (r *modeRun) closeSegment() error {
	t := r.transcript
	r.transcript = nil
	if err := t.Close(); err != nil {
		return newError(ErrorTranscript, "transcript_close_error", err)
	}
	return nil
}

func (r *modeRun) reset(ctx context.Context, idx int) error {
	r.log.InfoContext(ctx, "resetting conversation", "prompt", idx)
	if err := r.closeSegment(); err != nil {
		return err
	}
	return r.openSegment(ctx, idx)
}

// exchange sends userText on top of the current conversation and records both
// turns. On return r.conv includes the exchange.
func (r *modeRun) exchange(ctx context.Context, userText string) (domain.ResponseRecord, error) {
	if err := r.report(domain.RoleUser, userText); err != nil {
		return domain.ResponseRecord{}, err
	}
	pending := r.conv.Append(domain.RoleUser, userText)

	raw, err := r.svc.llm.Complete(ctx, r.svc.settings.Model, pending)
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return domain.ResponseRecord{}, newError(ErrorUpstream, "openai_rate_limited", err)
		}
		return domain.ResponseRecord{}, newError(ErrorUpstream, "openai_error", err)
	}
	rec, err := r.svc.replies.Extract(raw)
	if err != nil {
		return domain.ResponseRecord{}, newError(ErrorMalformedReply, "openai_malformed_response", err)
	}

	if rec.NoResponse() {
		if r.svc.settings.NoResponse == NoResponseAbort {
			return rec, newError(ErrorNoResponse, "no_response", nil)
		}
		r.log.WarnContext(ctx, "no response from model, skipping usage and follow-ups")
		if err := r.report(domain.RoleAssistant, NoResponseText); err != nil {
			return rec, err
		}
		r.conv = pending.Append(domain.RoleAssistant, NoResponseText)
		return rec, nil
	}

	r.log.InfoContext(ctx, "api query complete",
		"tokens", fmt.Sprintf("Prompt: %d  Response: %d  Total: %d (of %d)",
			rec.Usage.PromptTokens, rec.Usage.CompletionTokens, rec.Usage.TotalTokens, r.svc.settings.ContextWindow),
		"finish_reason", rec.FinishReason,
		"id", rec.Metadata.ID,
		"model", rec.Metadata.Model,
	)
	if err := r.report(domain.RoleAssistant, rec.Text); err != nil {
		return rec, err
	}
	if err := r.transcript.RecordUsage(rec); err != nil {
		return rec, newError(ErrorTranscript, "transcript_write_error", err)
	}
	r.conv = pending.Append(domain.RoleAssistant, rec.Text)

	return rec, r.checkTokenUsage(ctx, rec.Usage.TotalTokens)
}

func (r *modeRun) report(role domain.Role, content string) error {
	if err := r.transcript.Report(domain.Message{Role: role, Content: content}); err != nil {
		return newError(ErrorTranscript, "transcript_write_error", err)
	}
	return nil
}

// checkTokenUsage asks the operator to confirm once total reaches 90% of the
// context window.
func (r *modeRun) checkTokenUsage(ctx context.Context, total int) error {
	if total*10 < r.svc.settings.ContextWindow*9 {
		return nil
	}
	r.log.WarnContext(ctx, "total tokens near context window", "total", total, "window", r.svc.settings.ContextWindow)
	return r.confirm("Total tokens near max, continue?\n", "token_limit_declined")
}

func (r *modeRun) confirm(prompt, reason string) error {
	ok, err := r.svc.operator.Confirm(prompt)
	if err != nil {
		return newError(ErrorHalted, "operator_input_error", err)
	}
	if !ok {
		return newError(ErrorHalted, reason, nil)
	}
	return nil
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
