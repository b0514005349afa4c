// Package grading executes learner code and produces written feedback.
// It backs the gateway server's run, submit, feedback and chat endpoints.
package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/studypod/internal/cache"
	"github.com/abhisek/studypod/internal/gateway"
	"github.com/abhisek/studypod/internal/llm"
	"github.com/abhisek/studypod/internal/step"
)

// Executor runs one program in the sandbox.
type Executor interface {
	Execute(ctx context.Context, req gateway.RunRequest) (*gateway.ExecutionResult, error)
}

// Service implements the grading operations. A nil provider makes the
// feedback and chat operations fail with a configuration error; a nil
// cache disables result reuse.
type Service struct {
	exec     Executor
	provider llm.Provider
	cache    cache.Cache
	cfg      Config
	log      *zap.Logger
}

// NewService creates a grading service.
func NewService(exec Executor, provider llm.Provider, c cache.Cache, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{exec: exec, provider: provider, cache: c, cfg: cfg, log: log}
}

// LLMConfigured reports whether feedback and chat are available.
func (s *Service) LLMConfigured() bool {
	return s.provider != nil
}

// Run executes code and returns the sandbox result unchanged.
func (s *Service) Run(ctx context.Context, req gateway.RunRequest) (*gateway.ExecutionResult, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, &gateway.ValidationError{Field: "code", Message: "code is required"}
	}
	if req.LanguageID == 0 {
		req.LanguageID = step.DefaultLanguageID
	}

	key := s.runKey(req)
	if res, ok := s.cached(ctx, key); ok {
		return res, nil
	}

	res, err := s.exec.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, res)
	return res, nil
}

// Submit executes code, decides pass/fail and asks the model for written
// feedback. Model failures never fail the submission; a canned message is
// used instead.
func (s *Service) Submit(ctx context.Context, req gateway.SubmitRequest) (*gateway.SubmissionResult, error) {
	res, err := s.Run(ctx, req.RunRequest)
	if err != nil {
		return nil, err
	}

	expected, hasExpected := expectedOutput(req)
	passed := gateway.Verdict(res, expected, hasExpected)

	feedback, err := s.submissionFeedback(ctx, req, res, passed)
	if err != nil {
		s.log.Warn("submission feedback unavailable", zap.Error(err), zap.Bool("passed", passed))
		feedback = cannedFeedback(passed)
	}
	return &gateway.SubmissionResult{Passed: passed, Feedback: feedback, Execution: res}, nil
}

// expectedOutput reads the normalized expected output. Test cases are not
// consulted: step.NormalizeCoding already promoted the first one's expected
// output when it had one, and a stdin-only case has none.
func expectedOutput(req gateway.SubmitRequest) (string, bool) {
	if req.ExpectedOutput != nil {
		return *req.ExpectedOutput, true
	}
	return "", false
}

type submissionOutput struct {
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions"`
}

func (s *Service) submissionFeedback(ctx context.Context, req gateway.SubmitRequest, res *gateway.ExecutionResult, passed bool) (string, error) {
	if s.provider == nil {
		return "", llm.ErrNotConfigured
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeSubmitFeedback)

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      submissionSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildSubmissionMessage(req, res, passed)}},
		Schema:      SubmissionFeedbackSchema,
		MaxTokens:   s.cfg.FeedbackMaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("submission feedback: %w", err)
	}

	var out submissionOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("parse submission feedback: %w", err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", gateway.ErrEmptyResponse
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(out.Summary))
	for _, sug := range out.Suggestions {
		if sug = strings.TrimSpace(sug); sug != "" {
			b.WriteString("\n- ")
			b.WriteString(sug)
		}
	}
	return b.String(), nil
}

// OpenQuestionFeedback returns written feedback on an open answer.
func (s *Service) OpenQuestionFeedback(ctx context.Context, req gateway.FeedbackRequest) (string, error) {
	if strings.TrimSpace(req.Question) == "" {
		return "", &gateway.ValidationError{Field: "question"}
	}
	if strings.TrimSpace(req.UserAnswer) == "" {
		return "", &gateway.ValidationError{Field: "userAnswer", Message: "an answer is required"}
	}

	return s.text(llm.WithPurpose(ctx, llm.PurposeOpenFeedback), "open question feedback", llm.Request{
		System:      openFeedbackSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildOpenFeedbackMessage(req)}},
		MaxTokens:   s.cfg.FeedbackMaxTokens,
		Temperature: s.cfg.Temperature,
	})
}

// Chat answers one message given client-held history. Only the most recent
// ChatHistoryLimit turns are forwarded.
func (s *Service) Chat(ctx context.Context, req gateway.ChatRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", &gateway.ValidationError{Field: "message"}
	}

	history := req.History
	if limit := s.cfg.ChatHistoryLimit; limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, turn := range history {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		msgs = append(msgs, llm.Message{Role: llm.ParseRole(turn.Role), Content: turn.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Message})

	return s.text(llm.WithPurpose(ctx, llm.PurposeChat), "chat", llm.Request{
		System:      chatSystem(req.Context),
		Messages:    msgs,
		MaxTokens:   s.cfg.ChatMaxTokens,
		Temperature: s.cfg.Temperature,
	})
}

// text runs a plain-text request and maps failures to gateway errors.
func (s *Service) text(ctx context.Context, op string, req llm.Request) (string, error) {
	if s.provider == nil {
		return "", &gateway.ConfigurationError{Setting: "STUDYPOD_LLM_PROVIDER API key"}
	}
	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return "", &gateway.GatewayError{Op: op, Err: err}
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &gateway.GatewayError{Op: op, Err: gateway.ErrEmptyResponse}
	}
	return text, nil
}

func (s *Service) runKey(req gateway.RunRequest) string {
	if s.cache == nil || s.cfg.RunCacheTTL <= 0 {
		return ""
	}
	key, err := cache.Key("run", req)
	if err != nil {
		return ""
	}
	return key
}

func (s *Service) cached(ctx context.Context, key string) (*gateway.ExecutionResult, bool) {
	if key == "" {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("run cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var res gateway.ExecutionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false
	}
	return &res, true
}

// store keeps only final sandbox verdicts; queue states and internal
// errors are worth retrying.
func (s *Service) store(ctx context.Context, key string, res *gateway.ExecutionResult) {
	if key == "" || res.Status.ID < gateway.AcceptedStatusID || res.Status.ID > lastFinalStatusID {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cfg.RunCacheTTL); err != nil {
		s.log.Warn("run cache write failed", zap.Error(err))
	}
}

// Judge0 status ids 3-12 are final verdicts (accepted, wrong answer,
// time limit, compilation and runtime errors).
const lastFinalStatusID = 12
