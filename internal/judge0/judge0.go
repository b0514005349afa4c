// Package judge0 is a client for the Judge0 code-execution API as exposed
// through RapidAPI.
package judge0

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abhisek/studypod/internal/gateway"
)

const (
	DefaultURL  = "https://judge0-ce.p.rapidapi.com"
	DefaultHost = "judge0-ce.p.rapidapi.com"
)

// Config holds sandbox credentials.
type Config struct {
	URL    string
	APIKey string
	Host   string
	// Timeout bounds one submission, including the wait for the verdict.
	Timeout time.Duration
}

// Client submits code and waits for the verdict.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a client. Credentials are checked per call so that a server
// can start without them and report the problem on use.
func New(cfg Config, hc *http.Client) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Client{cfg: cfg, http: hc}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

type submission struct {
	SourceCode     string   `json:"source_code"`
	LanguageID     int      `json:"language_id"`
	Stdin          string   `json:"stdin,omitempty"`
	ExpectedOutput string   `json:"expected_output,omitempty"`
	CPUTimeLimit   *float64 `json:"cpu_time_limit,omitempty"`
	MemoryLimit    *int     `json:"memory_limit,omitempty"`
}

type result struct {
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Message       *string `json:"message"`
	ExitCode      *int    `json:"exit_code"`
	Status        struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
	Time   *string `json:"time"`
	Memory *int    `json:"memory"`
	Token  string  `json:"token"`
}

// Execute runs one program synchronously. A missing API key is a
// *gateway.ConfigurationError returned before any request is made.
func (c *Client) Execute(ctx context.Context, req gateway.RunRequest) (*gateway.ExecutionResult, error) {
	if !c.Configured() {
		return nil, &gateway.ConfigurationError{Setting: "JUDGE0_API_KEY"}
	}
	if strings.TrimSpace(req.Code) == "" {
		return nil, &gateway.ValidationError{Field: "code"}
	}

	sub := submission{
		SourceCode: req.Code,
		LanguageID: req.LanguageID,
		Stdin:      req.Stdin,
	}
	if req.TimeLimit > 0 {
		sub.CPUTimeLimit = &req.TimeLimit
	}
	if req.MemoryLimit > 0 {
		sub.MemoryLimit = &req.MemoryLimit
	}
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}

	endpoint := c.cfg.URL + "/submissions?base64_encoded=false&wait=true"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build submission request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
	httpReq.Header.Set("X-RapidAPI-Host", c.cfg.Host)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &gateway.GatewayError{Op: "judge0 submission", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &gateway.GatewayError{Op: "judge0 submission", StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &gateway.GatewayError{
			Op:         "judge0 submission",
			StatusCode: resp.StatusCode,
			Message:    apiMessage(resp.StatusCode, data),
		}
	}

	var r result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &gateway.GatewayError{Op: "judge0 submission", StatusCode: resp.StatusCode, Message: "unreadable verdict", Err: err}
	}
	return r.toExecution(), nil
}

func (r *result) toExecution() *gateway.ExecutionResult {
	out := &gateway.ExecutionResult{
		Stdout:        deref(r.Stdout),
		Stderr:        deref(r.Stderr),
		CompileOutput: deref(r.CompileOutput),
		ExitCode:      r.ExitCode,
		Status:        gateway.Status{ID: r.Status.ID, Description: r.Status.Description},
		Time:          deref(r.Time),
		Token:         r.Token,
	}
	if r.Memory != nil {
		out.Memory = *r.Memory
	}
	if out.Stderr == "" && r.Message != nil {
		out.Stderr = *r.Message
	}
	return out
}

// apiMessage extracts Judge0/RapidAPI error text, which arrives as either
// {"error": "..."} or {"message": "..."}.
func apiMessage(status int, body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return gateway.StatusMessage(status)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
