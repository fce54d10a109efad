package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/dstrib/GPT4-Biomed-Assessment/internal/config"
	"github.com/dstrib/GPT4-Biomed-Assessment/internal/console"
	"github.com/dstrib/GPT4-Biomed-Assessment/internal/credentials"
	"github.com/dstrib/GPT4-Biomed-Assessment/internal/domain"
	"github.com/dstrib/GPT4-Biomed-Assessment/internal/integrations/openai"
	"github.com/dstrib/GPT4-Biomed-Assessment/internal/integrations/paramstore"
	"github.com/dstrib/GPT4-Biomed-Assessment/internal/logger"
	"github.com/dstrib/GPT4-Biomed-Assessment/internal/transcript"
	"github.com/dstrib/GPT4-Biomed-Assessment/internal/usecase"
)

const scriptVersion = "examrunner v0.2.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx)
	stop()
	if err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ---- Configuration (read only here) ----
	settings, err := config.Load()
	if err != nil {
		return configError("environment", err)
	}
	warnings, err := settings.Validate()
	if err != nil {
		return configError("settings", err)
	}
	level, _ := settings.Level()
	if settings.Colorless() {
		color.NoColor = true
	}
	slog.SetDefault(logger.New(os.Stderr, level, settings.Colorless()))
	for _, w := range warnings {
		slog.Warn("configuration warning", "warning", w)
	}
	policy, err := usecase.ParseNoResponsePolicy(settings.NoResponsePolicy)
	if err != nil {
		return configError("no_response_policy", err)
	}

	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)
	operator := console.New(os.Stdin, os.Stdout)

	// ---- Credentials ----
	keys, err := credentialChain(ctx, settings, operator)
	if err != nil {
		return configError("credentials", err)
	}
	apiKey, err := keys.APIKey(ctx)
	if err != nil {
		return configError("api_key", err)
	}

	// ---- Clients ----
	var opts []openai.Option
	if settings.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(settings.BaseURL))
	}
	llm, err := openai.NewClient(credentials.Static(apiKey), opts...)
	if err != nil {
		return fmt.Errorf("creating OpenAI client: %w", err)
	}

	files := transcript.Opener{
		Header: transcript.Header{
			ScriptVersion: scriptVersion,
			ChatURL:       llm.ChatURL(),
			Model:         settings.Model,
			ContextWindow: settings.MaxContextWindow,
			RunID:         runID,
		},
		Console: os.Stdout,
	}
	opener := usecase.TranscriptOpenerFunc(func(path string, initial domain.Conversation) (usecase.Transcript, error) {
		r, err := files.Open(path, initial)
		if err != nil {
			return nil, err
		}
		return r, nil
	})

	// ---- Service ----
	svc, err := usecase.NewExamService(llm, openai.ResponseProcessor{}, opener, operator, usecase.ExamSettings{
		Model:           settings.Model,
		ContextWindow:   settings.MaxContextWindow,
		StartAtPrompt:   settings.StartAtPrompt,
		ConfirmContinue: settings.ConfirmContinue,
		NoResponse:      policy,
		OutputDir:       settings.OutputDir(),
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("creating exam service: %w", err)
	}

	for _, path := range settings.ExamPaths() {
		exam, err := config.LoadExam(path)
		if err != nil {
			return configError("exam_file", err)
		}
		questions, err := config.LoadQuestions(settings.QuestionsPath(exam.Parameters))
		if err != nil {
			return configError("questions_file", err)
		}

		slog.InfoContext(ctx, "beginning exam",
			"exam", path,
			"course", exam.Parameters.Course,
			"questions", len(questions),
			"model", settings.Model,
		)
		if err := svc.RunExam(ctx, exam.Parameters, questions); err != nil {
			return fmt.Errorf("exam %q: %w", path, err)
		}
	}

	slog.InfoContext(ctx, "done")
	return nil
}

// credentialChain looks for the API key in the key file, then SSM when a
// parameter prefix is configured, then asks the operator.
func credentialChain(ctx context.Context, settings config.Settings, in credentials.LineReader) (credentials.Chain, error) {
	var chain credentials.Chain
	if settings.APIKeyFile != "" {
		chain = append(chain, credentials.File{Path: settings.APIKeyFile})
	}
	if name := settings.APIKeyParameter(); name != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		store, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("creating SSM client: %w", err)
		}
		chain = append(chain, credentials.ParamStore{Store: store, Name: name})
	}
	return append(chain, credentials.Prompt{Reader: in}), nil
}

func configError(reason string, err error) error {
	return &usecase.Error{Code: usecase.ErrorConfig, Reason: reason, Err: err}
}
