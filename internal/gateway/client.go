package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/abhisek/studypod/internal/course"
)

// APIVersion is the gateway API version this build serves and speaks.
const APIVersion = "v1.1.0"

// MinServerVersion is the oldest server API this client works against.
const MinServerVersion = "v1.0.0"

const defaultTimeout = 60 * time.Second

// Session carries the learner's credentials to outbound requests. It is
// passed explicitly to whoever needs it.
type Session struct {
	Token string
}

func (s *Session) authorize(req *http.Request) {
	if s != nil && s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Session *Session
	Timeout time.Duration
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
	// OnCall, when set, is invoked after every round trip.
	OnCall func(CallInfo)
}

// CallInfo describes one completed round trip.
type CallInfo struct {
	Op         string
	StatusCode int
	Latency    time.Duration
	Err        error
}

// Client talks to the grading and execution gateway. Each operation is a
// single round trip with no retry.
type Client struct {
	baseURL string
	session *Session
	http    *http.Client
	onCall  func(CallInfo)
}

// New creates a Client. A missing base URL is a *ConfigurationError.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, &ConfigurationError{Setting: "gateway URL"}
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse gateway URL: %w", err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, session: cfg.Session, http: hc, onCall: cfg.OnCall}, nil
}

// BaseURL returns the gateway root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// OpenQuestionFeedback asks the gateway to grade a free-text answer.
func (c *Client) OpenQuestionFeedback(ctx context.Context, req FeedbackRequest) (string, error) {
	const op = "open question feedback"
	if strings.TrimSpace(req.UserAnswer) == "" {
		return "", &ValidationError{Field: "answer"}
	}
	var resp struct {
		Feedback string `json:"feedback"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/api/open-question-feedback", req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Feedback) == "" {
		return "", &GatewayError{Op: op, Err: ErrEmptyResponse}
	}
	return resp.Feedback, nil
}

// RunCode executes source code in the sandbox. The caller assembles the
// source with BuildSource.
func (c *Client) RunCode(ctx context.Context, req RunRequest) (*ExecutionResult, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, &ValidationError{Field: "code"}
	}
	var res ExecutionResult
	if err := c.do(ctx, "run code", http.MethodPost, "/api/run-code", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitCode executes and grades code.
func (c *Client) SubmitCode(ctx context.Context, req SubmitRequest) (*SubmissionResult, error) {
	const op = "submit code"
	if strings.TrimSpace(req.Code) == "" {
		return nil, &ValidationError{Field: "code"}
	}
	var res SubmissionResult
	if err := c.do(ctx, op, http.MethodPost, "/api/submit-code", req, &res); err != nil {
		return nil, err
	}
	if res.Execution == nil {
		return nil, &GatewayError{Op: op, Message: "response carried no execution result", Err: ErrEmptyResponse}
	}
	return &res, nil
}

// Chat sends one message with client-held history and returns the reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	const op = "chat"
	if strings.TrimSpace(req.Message) == "" {
		return "", &ValidationError{Field: "message"}
	}
	var resp struct {
		Reply string `json:"reply"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Reply) == "" {
		return "", &GatewayError{Op: op, Err: ErrEmptyResponse}
	}
	return resp.Reply, nil
}

// Health fetches the server's health report.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var h HealthStatus
	if err := c.do(ctx, "health", http.MethodGet, "/api/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// CheckCompatible verifies that the server speaks an API this client
// understands: same major version, not older than MinServerVersion.
func CheckCompatible(h *HealthStatus) error {
	if h == nil || h.Version == "" {
		return fmt.Errorf("server did not report an API version")
	}
	v := h.Version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("server reported invalid API version %q", h.Version)
	}
	if semver.Major(v) != semver.Major(MinServerVersion) {
		return fmt.Errorf("server API %s is incompatible with client (needs %s.x)", v, semver.Major(MinServerVersion))
	}
	if semver.Compare(v, MinServerVersion) < 0 {
		return fmt.Errorf("server API %s is older than required %s", v, MinServerVersion)
	}
	return nil
}

// Outline fetches a course outline.
func (c *Client) Outline(ctx context.Context, courseID string) (*course.Outline, error) {
	var raw json.RawMessage
	path := "/api/courses/" + url.PathEscape(courseID) + "/outline"
	if err := c.do(ctx, "fetch outline", http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	o, err := course.DecodeOutline(raw)
	if err != nil {
		return nil, &GatewayError{Op: "fetch outline", Err: err}
	}
	if o.CourseID == "" {
		o.CourseID = courseID
	}
	return o, nil
}

// TopicPayload fetches the playlists of one topic grouping.
func (c *Client) TopicPayload(ctx context.Context, courseID, topicID string) (course.TopicPayload, error) {
	var payload course.TopicPayload
	path := "/api/courses/" + url.PathEscape(courseID) + "/topics/" + url.PathEscape(topicID)
	if err := c.do(ctx, "fetch topic", http.MethodGet, path, nil, &payload); err != nil {
		var gwErr *GatewayError
		if errors.As(err, &gwErr) && gwErr.StatusCode == http.StatusNotFound {
			return nil, &course.NotFoundError{What: "topic", ID: topicID}
		}
		return nil, err
	}
	return payload, nil
}

// CourseSource adapts the client to a course.Source for one course.
func (c *Client) CourseSource(courseID string) course.Source {
	return &remoteCourse{client: c, courseID: courseID}
}

type remoteCourse struct {
	client   *Client
	courseID string
}

func (r *remoteCourse) Outline(ctx context.Context) (*course.Outline, error) {
	return r.client.Outline(ctx, r.courseID)
}

func (r *remoteCourse) TopicPayload(ctx context.Context, topicID string) (course.TopicPayload, error) {
	return r.client.TopicPayload(ctx, r.courseID, topicID)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()
	status, err := c.roundTrip(ctx, op, method, path, body, out)
	if c.onCall != nil {
		c.onCall(CallInfo{Op: op, StatusCode: status, Latency: time.Since(start), Err: err})
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.session.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &GatewayError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: "unreadable response", Err: err}
	}
	return resp.StatusCode, nil
}

// errorMessage extracts {"error": "..."} from a failed response, falling
// back to a generic message keyed by status.
func errorMessage(status int, body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && strings.TrimSpace(e.Error) != "" {
		return e.Error
	}
	return StatusMessage(status)
}
