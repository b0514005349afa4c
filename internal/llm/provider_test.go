package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/studypod/internal/store"
)

func TestMockProvider_ReplaysInOrder(t *testing.T) {
	mock := NewMockProvider(
		TextResponse("Good start."),
		MockResponse{Content: json.RawMessage(`{"passed":true}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
	)

	first, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Text() != "Good start." {
		t.Fatalf("Text() = %q", first.Text())
	}

	second, err := mock.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(second.Content) != `{"passed":true}` {
		t.Fatalf("content = %s", second.Content)
	}
	if second.Usage.InputTokens != 10 {
		t.Fatalf("input tokens = %d, want 10", second.Usage.InputTokens)
	}
}

func TestMockProvider_EmptyQueue(t *testing.T) {
	_, err := NewMockProvider().Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got %T", err)
	}
}

func TestMockProvider_ValidatesSchema(t *testing.T) {
	mock := NewMockProvider(JSONResponse(map[string]any{"feedback": 3}))
	_, err := mock.Generate(context.Background(), Request{Schema: feedbackTestSchema()})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(TextResponse("ok"))
	_, _ = mock.Generate(context.Background(), Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if mock.CallCount() != 1 {
		t.Fatalf("calls = %d, want 1", mock.CallCount())
	}
	if mock.LastCall().System != "sys" {
		t.Fatalf("system = %q", mock.LastCall().System)
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{`"plain \"quoted\" text"`, `plain "quoted" text`},
		{`{"a":1}`, `{"a":1}`},
		{``, ``},
	}
	for _, tt := range tests {
		r := &Response{Content: json.RawMessage(tt.content)}
		if got := r.Text(); got != tt.want {
			t.Errorf("Text(%s) = %q, want %q", tt.content, got, tt.want)
		}
	}
	var nilResp *Response
	if nilResp.Text() != "" {
		t.Fatal("nil response should have empty text")
	}
}

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{
		"user":      RoleUser,
		"model":     RoleAssistant,
		"assistant": RoleAssistant,
		"ai":        RoleAssistant,
		"":          RoleUser,
	} {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	ctx = WithPurpose(ctx, PurposeChat)
	if p := PurposeFrom(ctx); p != PurposeChat {
		t.Fatalf("expected %q, got %q", PurposeChat, p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		cfg           Config
		wantErr       bool
		notConfigured bool
	}{
		{"gemini without key", Config{Provider: ProviderGemini}, true, true},
		{"gemini with key", Config{Provider: ProviderGemini, Gemini: GeminiConfig{APIKey: "k"}}, false, false},
		{"openrouter without key", Config{Provider: ProviderOpenRouter}, true, true},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "k"}}, false, false},
		{"mock needs no key", Config{Provider: ProviderMock}, false, false},
		{"unknown provider", Config{Provider: "palm"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrNotConfigured) != tt.notConfigured {
				t.Fatalf("errors.Is(ErrNotConfigured) = %v, want %v", !tt.notConfigured, tt.notConfigured)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("STUDYPOD_LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "fallback")
	t.Setenv("STUDYPOD_OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("STUDYPOD_LLM_TIMEOUT", "5s")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderOpenAI {
		t.Fatalf("provider = %q", cfg.Provider)
	}
	if cfg.OpenAI.APIKey != "fallback" {
		t.Fatalf("api key = %q, want vendor fallback", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Model != "gpt-4.1-mini" {
		t.Fatalf("model = %q", cfg.OpenAI.Model)
	}
	if cfg.Timeout.Seconds() != 5 {
		t.Fatalf("timeout = %s", cfg.Timeout)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Fatalf("gemini default model changed: %q", cfg.Gemini.Model)
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: ProviderGemini}, nil, nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestLoggingProvider_RecordsEvent(t *testing.T) {
	s, err := store.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	repo := s.EventRepo()

	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`"Nice work."`), Usage: Usage{InputTokens: 12, OutputTokens: 3}},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
	)
	p := WithLogging(mock, ProviderMock, repo, nil)

	ctx := WithPurpose(context.Background(), PurposeOpenFeedback)
	req := Request{System: "tutor", Messages: []Message{{Role: RoleUser, Content: "what is a heap?"}}}
	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := p.Generate(ctx, req); err == nil {
		t.Fatal("expected second call to fail")
	}

	events, err := repo.QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}

	var ok, failed int
	for _, e := range events {
		if e.Purpose != PurposeOpenFeedback {
			t.Errorf("purpose = %q", e.Purpose)
		}
		if !strings.Contains(e.RequestBody, "what is a heap?") {
			t.Errorf("request body missing prompt: %q", e.RequestBody)
		}
		if e.Success {
			ok++
			if e.ResponseBody != "Nice work." {
				t.Errorf("response body = %q", e.ResponseBody)
			}
			if e.InputTokens != 12 {
				t.Errorf("input tokens = %d", e.InputTokens)
			}
		} else {
			failed++
			if e.ErrorMessage == "" {
				t.Error("failed event has no error message")
			}
		}
	}
	if ok != 1 || failed != 1 {
		t.Fatalf("ok=%d failed=%d", ok, failed)
	}
}

type failingEventRepo struct {
	store.EventRepo
}

func (failingEventRepo) AppendLLMRequest(context.Context, store.LLMRequestEventData) error {
	return errors.New("disk full")
}

func TestLoggingProvider_RecordFailureGoesToLogger(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := WithLogging(NewMockProvider(TextResponse("ok")), ProviderMock, failingEventRepo{}, zap.New(core))

	ctx := WithPurpose(context.Background(), PurposeChat)
	if _, err := p.Generate(ctx, Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}}); err != nil {
		t.Fatalf("a recording failure must not fail the call: %v", err)
	}

	entries := logs.FilterMessage("failed to record llm request").All()
	if len(entries) != 1 {
		t.Fatalf("warnings = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["purpose"] != PurposeChat || fields["error"] != "disk full" {
		t.Errorf("fields = %v", fields)
	}
}

func TestTranscript(t *testing.T) {
	got := transcript(Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "q"}, {Role: RoleAssistant, Content: "a"}},
		Schema:   feedbackTestSchema(),
	})
	for _, want := range []string{"[system]\nsys", "[user]\nq", "[assistant]\na", "[schema: test-feedback]"} {
		if !strings.Contains(got, want) {
			t.Errorf("transcript missing %q:\n%s", want, got)
		}
	}
}

func TestLookupCost(t *testing.T) {
	if c := LookupCost("gemini-2.5-flash"); c == nil || c.InputPerMTok != 0.3 {
		t.Fatalf("gemini-2.5-flash cost = %+v", c)
	}
	if c := LookupCost("google/gemini-2.5-flash"); c == nil {
		t.Fatal("vendor-prefixed id not resolved")
	}
	if LookupCost("no-such-model") != nil {
		t.Fatal("expected nil for unknown model")
	}
	c := ModelCost{InputPerMTok: 1, OutputPerMTok: 2}
	if got := c.Cost(1_000_000, 500_000); got != 2 {
		t.Fatalf("Cost = %v, want 2", got)
	}
}
