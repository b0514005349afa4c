package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM request event.
type LLMEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM calls by purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM tokens by model, for cost estimates.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// GatewayCallEventData captures one round trip to the grading gateway.
type GatewayCallEventData struct {
	Operation    string
	StatusCode   int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// GatewayCallStats aggregates gateway calls by operation.
type GatewayCallStats struct {
	Operation    string
	Calls        int
	Failures     int
	AvgLatencyMs int64
}

// Attempt outcomes.
const (
	OutcomeCorrect   = "correct"
	OutcomeIncorrect = "incorrect"
	OutcomeError     = "error"
	OutcomeInfo      = "info"
)

// StepAttemptEventData records a learner action on a step that produced a
// result: an MCQ submission, a feedback request, a run, or a submission.
type StepAttemptEventData struct {
	CourseID   string
	SubtopicID string
	StepIndex  int
	StepKind   string
	Action     string
	Outcome    string
	Detail     string
}

// AttemptStats aggregates attempts by step kind.
type AttemptStats struct {
	StepKind  string
	Attempts  int
	Correct   int
	Incorrect int
	Errors    int
}

// Accuracy is the fraction of graded attempts that were correct.
func (a AttemptStats) Accuracy() float64 {
	graded := a.Correct + a.Incorrect
	if graded == 0 {
		return 0
	}
	return float64(a.Correct) / float64(graded)
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)
	// GetLLMEvent returns nil when no event has the id.
	GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	AppendGatewayCall(ctx context.Context, data GatewayCallEventData) error
	GatewayCallStats(ctx context.Context) ([]GatewayCallStats, error)

	AppendStepAttempt(ctx context.Context, data StepAttemptEventData) error
	AttemptStatsByKind(ctx context.Context) ([]AttemptStats, error)
}

// FocusSession is one completed run of the focus timer.
type FocusSession struct {
	ID              string
	StartedAt       time.Time
	EndedAt         time.Time
	DurationMinutes int
	ElapsedSeconds  int
	OvertimeSeconds int
	SubtopicID      string
}

// FocusTotals summarizes all recorded focus sessions.
type FocusTotals struct {
	Sessions        int
	FocusedSeconds  int
	OvertimeSeconds int
}

// FocusRepo stores focus-timer sessions.
type FocusRepo interface {
	Save(ctx context.Context, s FocusSession) error
	Recent(ctx context.Context, limit int) ([]FocusSession, error)
	Totals(ctx context.Context) (FocusTotals, error)
}
