package gateway

import (
	"time"

	"github.com/abhisek/studypod/internal/step"
)

// Status is the sandbox's verdict for one execution.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// ExecutionResult is the outcome of running code in the sandbox.
type ExecutionResult struct {
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compileOutput"`
	ExitCode      *int   `json:"exitCode"`
	Status        Status `json:"status"`
	Time          string `json:"time"`
	Memory        int    `json:"memory"`
	Token         string `json:"token"`
}

// Accepted reports whether the sandbox itself accepted the run.
func (r *ExecutionResult) Accepted() bool {
	return r != nil && r.Status.ID == AcceptedStatusID
}

// SubmissionResult is an execution plus a verdict and written feedback.
type SubmissionResult struct {
	Passed    bool             `json:"passed"`
	Feedback  string           `json:"feedback"`
	Execution *ExecutionResult `json:"execution"`
}

// RunRequest executes already-assembled source code.
type RunRequest struct {
	Code        string  `json:"code"`
	LanguageID  int     `json:"languageId"`
	Stdin       string  `json:"stdin"`
	TimeLimit   float64 `json:"timeLimit,omitempty"`
	MemoryLimit int     `json:"memoryLimit,omitempty"`
}

// SubmitRequest executes and grades code.
type SubmitRequest struct {
	RunRequest
	Prompt         string          `json:"prompt,omitempty"`
	Solution       string          `json:"solution,omitempty"`
	ExpectedOutput *string         `json:"expectedOutput,omitempty"`
	TestCases      []step.TestCase `json:"testCases,omitempty"`
}

// NewRunRequest builds the run request for a coding step, wrapping code in
// the step's hidden prefix and suffix.
func NewRunRequest(c *step.Coding, code string) RunRequest {
	return RunRequest{
		Code:        BuildSource(c.WrapperPrefix, code, c.WrapperSuffix),
		LanguageID:  c.LanguageID,
		Stdin:       c.Stdin,
		TimeLimit:   c.TimeLimit,
		MemoryLimit: c.MemoryLimit,
	}
}

// NewSubmitRequest builds the submit request for a coding step.
func NewSubmitRequest(c *step.Coding, code string) SubmitRequest {
	req := SubmitRequest{
		RunRequest: NewRunRequest(c, code),
		Prompt:     c.Prompt,
		Solution:   c.SolutionCode,
		TestCases:  c.TestCases,
	}
	if c.HasExpected {
		expected := c.ExpectedOutput
		req.ExpectedOutput = &expected
	}
	return req
}

// FeedbackContext locates an open question inside the learner's playlist.
type FeedbackContext struct {
	PlaylistTitle string `json:"playlistTitle"`
	StepIndex     int    `json:"stepIndex"`
	SubtopicID    string `json:"subtopicId"`
}

// FeedbackRequest asks for feedback on an open answer.
type FeedbackRequest struct {
	Question   string          `json:"question"`
	UserAnswer string          `json:"userAnswer"`
	Context    FeedbackContext `json:"context"`
}

// ChatTurn is one message of client-held chat history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a single-turn chat call with client-held history.
type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history,omitempty"`
	Context string     `json:"context,omitempty"`
}

// HealthStatus is the server's health report.
type HealthStatus struct {
	Status      string    `json:"status"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
}
