package player

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/studypod/internal/course"
	"github.com/abhisek/studypod/internal/gateway"
	"github.com/abhisek/studypod/internal/step"
)

// Status describes the playlist slot.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	// StatusEmpty means the playlist loaded but has no steps.
	StatusEmpty
	// StatusFailed means the playlist could not be loaded; LoadError says why.
	StatusFailed
)

// View is the player's top-level mode.
type View int

const (
	ViewBrowse View = iota
	ViewFocus
)

// Op identifies the kind of asynchronous operation a ticket belongs to.
type Op int

const (
	OpLoad Op = iota
	OpFeedback
	OpRun
	OpSubmit
)

// Ticket tags an asynchronous operation. A result is applied only if its
// generation still matches the live playlist.
type Ticket struct {
	Generation uint64
	Index      int
	Op         Op
}

// FeedbackFallback is shown when open-question feedback cannot be obtained.
const FeedbackFallback = "Feedback is unavailable right now. Your answer is saved; try again in a moment."

var (
	ErrNotInteractive = errors.New("current step does not accept this action")
	ErrNoSelection    = errors.New("select an option first")
	ErrSubmitted      = errors.New("already submitted")
	ErrEmptyAnswer    = errors.New("answer is empty")
	ErrEmptyCode      = errors.New("code is empty")
	ErrBusy           = errors.New("request already in flight")
	ErrNotLastStep    = errors.New("not at the last step")
	ErrNoPlaylist     = errors.New("no playlist loaded")
)

// MCQOutcome is the result of submitting a multiple-choice answer.
type MCQOutcome struct {
	IsCorrect bool
	Feedback  string
}

// LoadRequest names a subtopic whose playlist must be fetched.
type LoadRequest struct {
	Ticket   Ticket
	Subtopic course.Ref
}

// Controller owns the current playlist, the position in it, and the
// per-step interaction state.
type Controller struct {
	outline *course.Outline
	source  course.Source

	subtopic   course.Ref
	playlist   *step.Playlist
	index      int
	generation uint64
	status     Status
	loadErr    error

	states      *Interactions
	view        View
	sidebarOpen bool
}

// NewController creates a controller in the browse view.
func NewController(outline *course.Outline, src course.Source) *Controller {
	return &Controller{
		outline:     outline,
		source:      src,
		states:      NewInteractions(nil),
		view:        ViewBrowse,
		sidebarOpen: true,
	}
}

func (c *Controller) Outline() *course.Outline    { return c.outline }
func (c *Controller) Subtopic() course.Ref        { return c.subtopic }
func (c *Controller) Playlist() *step.Playlist    { return c.playlist }
func (c *Controller) Status() Status              { return c.status }
func (c *Controller) LoadError() error            { return c.loadErr }
func (c *Controller) Index() int                  { return c.index }
func (c *Controller) Len() int                    { return c.playlist.Len() }
func (c *Controller) View() View                  { return c.view }
func (c *Controller) SidebarOpen() bool           { return c.sidebarOpen }
func (c *Controller) Interactions() *Interactions { return c.states }

// Generation identifies the live playlist.
func (c *Controller) Generation() uint64 { return c.generation }

// ToggleSidebar shows or hides the outline sidebar.
func (c *Controller) ToggleSidebar() {
	c.sidebarOpen = !c.sidebarOpen
}

// ReturnToBrowse leaves focus mode. The playlist is kept.
func (c *Controller) ReturnToBrowse() {
	c.view = ViewBrowse
	c.sidebarOpen = true
}

// Resume re-enters focus mode on the playlist that is already loaded.
// It returns false when nothing has been loaded yet.
func (c *Controller) Resume() bool {
	if c.status == StatusIdle {
		return false
	}
	c.view = ViewFocus
	c.sidebarOpen = false
	return true
}

// Current returns the current step.
func (c *Controller) Current() (step.Step, bool) {
	if c.status != StatusReady || c.playlist.Len() == 0 {
		return step.Step{}, false
	}
	return c.playlist.Steps[c.index], true
}

// State returns the interaction state of the current step, or nil for
// steps without one.
func (c *Controller) State() *Interaction {
	if _, ok := c.Current(); !ok {
		return nil
	}
	return c.states.Get(c.index)
}

// IsLast reports whether the current step is the last one.
func (c *Controller) IsLast() bool {
	return c.status == StatusReady && c.index == c.playlist.Len()-1
}

// SelectSubtopic loads a subtopic's playlist synchronously.
func (c *Controller) SelectSubtopic(ctx context.Context, ref course.Ref) error {
	req := c.BeginLoad(ref)
	pl, err := c.fetch(ctx, ref)
	c.FinishLoad(req.Ticket, pl, err)
	return err
}

// BeginLoad switches to ref: the old playlist and its interaction state are
// dropped, the sidebar collapses, and the controller waits for FinishLoad.
func (c *Controller) BeginLoad(ref course.Ref) LoadRequest {
	c.generation++
	c.subtopic = ref
	c.playlist = nil
	c.index = 0
	c.states = NewInteractions(nil)
	c.status = StatusLoading
	c.loadErr = nil
	c.view = ViewFocus
	c.sidebarOpen = false
	return LoadRequest{
		Ticket:   Ticket{Generation: c.generation, Op: OpLoad},
		Subtopic: ref,
	}
}

// FinishLoad applies a fetched playlist. It returns false when the ticket
// is stale.
func (c *Controller) FinishLoad(t Ticket, pl *step.Playlist, err error) bool {
	if t.Op != OpLoad || t.Generation != c.generation {
		return false
	}
	switch {
	case err != nil:
		c.status = StatusFailed
		c.loadErr = err
		c.playlist = &step.Playlist{Title: c.subtopic.Name}
	case pl == nil || pl.Len() == 0:
		c.status = StatusEmpty
		c.playlist = pl
		if c.playlist == nil {
			c.playlist = &step.Playlist{Title: c.subtopic.Name}
		}
	default:
		c.status = StatusReady
		c.playlist = pl
	}
	c.index = 0
	c.states = NewInteractions(c.playlist.Steps)
	c.states.Get(0)
	return true
}

// Fetch loads the playlist for a load request from the controller's
// source. It does not touch controller state and is safe to call off the
// event loop.
func (c *Controller) Fetch(ctx context.Context, req LoadRequest) (*step.Playlist, error) {
	return c.fetch(ctx, req.Subtopic)
}

func (c *Controller) fetch(ctx context.Context, ref course.Ref) (*step.Playlist, error) {
	if c.source == nil {
		return nil, fmt.Errorf("no course source configured")
	}
	return course.LoadPlaylist(ctx, c.source, ref)
}

// Advance moves to the next step. It is a no-op at the last step.
func (c *Controller) Advance() bool {
	if c.status != StatusReady || c.index >= c.playlist.Len()-1 {
		return false
	}
	c.index++
	c.states.Get(c.index)
	return true
}

// Retreat moves to the previous step. It is a no-op at the first step.
func (c *Controller) Retreat() bool {
	if c.status != StatusReady || c.index == 0 {
		return false
	}
	c.index--
	c.states.Get(c.index)
	return true
}

// BeginComplete resolves the terminal action at the last step. When a next
// subtopic exists it starts loading it and returns ok. At the end of the
// course it returns to the browse view and ok is false.
func (c *Controller) BeginComplete() (req LoadRequest, ok bool, err error) {
	if !c.IsLast() {
		return LoadRequest{}, false, ErrNotLastStep
	}
	next, err := c.outline.Next(c.subtopic.ID)
	if err != nil {
		c.ReturnToBrowse()
		return LoadRequest{}, false, nil
	}
	return c.BeginLoad(next), true, nil
}

// Complete runs BeginComplete and loads the next playlist synchronously.
func (c *Controller) Complete(ctx context.Context) error {
	req, ok, err := c.BeginComplete()
	if err != nil || !ok {
		return err
	}
	pl, err := c.fetch(ctx, req.Subtopic)
	c.FinishLoad(req.Ticket, pl, err)
	return err
}

// AvailableActions is Actions for the current step plus navigation.
func (c *Controller) AvailableActions() ActionSet {
	s, ok := c.Current()
	if !ok {
		return 0
	}
	set := Actions(s, c.State())
	if c.index > 0 {
		set = set.with(ActionPrevious)
	}
	if c.IsLast() {
		set = set.with(ActionComplete)
	} else {
		set = set.with(ActionNext)
	}
	return set
}

// SelectOption changes the MCQ selection. It is ignored after submission.
func (c *Controller) SelectOption(id string) error {
	s, st, err := c.mcq()
	if err != nil {
		return err
	}
	if st.Submitted {
		return ErrSubmitted
	}
	if _, ok := s.MCQ.Option(id); !ok {
		return fmt.Errorf("unknown option %q", id)
	}
	st.SelectedOptionID = id
	return nil
}

// SubmitChoice locks the MCQ selection and reveals correctness.
func (c *Controller) SubmitChoice() (MCQOutcome, error) {
	s, st, err := c.mcq()
	if err != nil {
		return MCQOutcome{}, err
	}
	if st.Submitted {
		return MCQOutcome{}, ErrSubmitted
	}
	if st.SelectedOptionID == "" {
		return MCQOutcome{}, ErrNoSelection
	}
	st.Submitted = true
	return Outcome(s.MCQ, st), nil
}

// Outcome evaluates a submitted MCQ state.
func Outcome(m *step.MCQ, st *MCQState) MCQOutcome {
	out := MCQOutcome{IsCorrect: st.SelectedOptionID == m.CorrectOptionID, Feedback: m.Explanation}
	if opt, ok := m.Option(st.SelectedOptionID); ok && opt.Feedback != "" {
		out.Feedback = opt.Feedback
	}
	return out
}

func (c *Controller) mcq() (step.Step, *MCQState, error) {
	s, ok := c.Current()
	if !ok {
		return step.Step{}, nil, ErrNoPlaylist
	}
	st := c.State()
	if s.Kind != step.KindMCQ || st == nil || st.MCQ == nil {
		return step.Step{}, nil, ErrNotInteractive
	}
	return s, st.MCQ, nil
}

// SetDraft replaces the open-question draft. Editing is allowed while a
// request is in flight.
func (c *Controller) SetDraft(text string) error {
	_, st, err := c.open()
	if err != nil {
		return err
	}
	st.AnswerDraft = text
	return nil
}

// BeginFeedback marks the open question as submitting and returns the
// request to send.
func (c *Controller) BeginFeedback() (Ticket, gateway.FeedbackRequest, error) {
	s, st, err := c.open()
	if err != nil {
		return Ticket{}, gateway.FeedbackRequest{}, err
	}
	if strings.TrimSpace(st.AnswerDraft) == "" {
		return Ticket{}, gateway.FeedbackRequest{}, ErrEmptyAnswer
	}
	if st.IsSubmitting {
		return Ticket{}, gateway.FeedbackRequest{}, ErrBusy
	}
	st.IsSubmitting = true
	st.Error = ""
	req := gateway.FeedbackRequest{
		Question:   s.Open.Question,
		UserAnswer: st.AnswerDraft,
		Context: gateway.FeedbackContext{
			PlaylistTitle: c.playlist.Title,
			StepIndex:     c.index,
			SubtopicID:    c.playlist.SubtopicID,
		},
	}
	return c.ticket(OpFeedback), req, nil
}

// FinishFeedback applies a feedback result. It returns false when the
// ticket is stale.
func (c *Controller) FinishFeedback(t Ticket, feedback string, err error) bool {
	st := c.resolve(t, OpFeedback)
	if st == nil || st.Open == nil {
		return false
	}
	st.Open.IsSubmitting = false
	if err != nil || strings.TrimSpace(feedback) == "" {
		st.Open.Error = FeedbackFallback
		return true
	}
	st.Open.Feedback = feedback
	st.Open.Error = ""
	return true
}

func (c *Controller) open() (step.Step, *OpenState, error) {
	s, ok := c.Current()
	if !ok {
		return step.Step{}, nil, ErrNoPlaylist
	}
	st := c.State()
	if s.Kind != step.KindOpenQuestion || st == nil || st.Open == nil {
		return step.Step{}, nil, ErrNotInteractive
	}
	return s, st.Open, nil
}

// SetCode replaces the code buffer.
func (c *Controller) SetCode(code string) error {
	_, st, err := c.coding()
	if err != nil {
		return err
	}
	st.Code = code
	return nil
}

// ResetCode restores the starter code and clears results and errors.
func (c *Controller) ResetCode() error {
	s, st, err := c.coding()
	if err != nil {
		return err
	}
	st.Code = s.Coding.StarterCode
	st.RunResult = nil
	st.SubmitResult = nil
	st.Error = ""
	return nil
}

// BeginRun marks the coding step as running and returns the request.
func (c *Controller) BeginRun() (Ticket, gateway.RunRequest, error) {
	s, st, err := c.coding()
	if err != nil {
		return Ticket{}, gateway.RunRequest{}, err
	}
	if strings.TrimSpace(st.Code) == "" {
		return Ticket{}, gateway.RunRequest{}, ErrEmptyCode
	}
	if st.IsRunning {
		return Ticket{}, gateway.RunRequest{}, ErrBusy
	}
	st.IsRunning = true
	st.Error = ""
	return c.ticket(OpRun), gateway.NewRunRequest(s.Coding, st.Code), nil
}

// FinishRun applies a run result. The code buffer is never touched.
func (c *Controller) FinishRun(t Ticket, res *gateway.ExecutionResult, err error) bool {
	st := c.resolve(t, OpRun)
	if st == nil || st.Coding == nil {
		return false
	}
	st.Coding.IsRunning = false
	if err != nil {
		st.Coding.Error = ErrorText(err)
		return true
	}
	st.Coding.RunResult = res
	return true
}

// BeginSubmit marks the coding step as submitting and returns the request.
func (c *Controller) BeginSubmit() (Ticket, gateway.SubmitRequest, error) {
	s, st, err := c.coding()
	if err != nil {
		return Ticket{}, gateway.SubmitRequest{}, err
	}
	if strings.TrimSpace(st.Code) == "" {
		return Ticket{}, gateway.SubmitRequest{}, ErrEmptyCode
	}
	if st.IsSubmitting {
		return Ticket{}, gateway.SubmitRequest{}, ErrBusy
	}
	st.IsSubmitting = true
	st.Error = ""
	return c.ticket(OpSubmit), gateway.NewSubmitRequest(s.Coding, st.Code), nil
}

// FinishSubmit applies a submission result.
func (c *Controller) FinishSubmit(t Ticket, res *gateway.SubmissionResult, err error) bool {
	st := c.resolve(t, OpSubmit)
	if st == nil || st.Coding == nil {
		return false
	}
	st.Coding.IsSubmitting = false
	if err != nil {
		st.Coding.Error = ErrorText(err)
		return true
	}
	st.Coding.SubmitResult = res
	return true
}

func (c *Controller) coding() (step.Step, *CodingState, error) {
	s, ok := c.Current()
	if !ok {
		return step.Step{}, nil, ErrNoPlaylist
	}
	st := c.State()
	if s.Kind != step.KindCodingQuestion || s.Coding == nil || st == nil || st.Coding == nil {
		return step.Step{}, nil, ErrNotInteractive
	}
	return s, st.Coding, nil
}

func (c *Controller) ticket(op Op) Ticket {
	return Ticket{Generation: c.generation, Index: c.index, Op: op}
}

// resolve returns the state a ticket targets, or nil when the ticket
// belongs to a replaced playlist.
func (c *Controller) resolve(t Ticket, op Op) *Interaction {
	if t.Op != op || t.Generation != c.generation {
		return nil
	}
	st, ok := c.states.Peek(t.Index)
	if !ok {
		return nil
	}
	return st
}

// ErrorText turns an operation error into an inline message.
func ErrorText(err error) string {
	var cfgErr *gateway.ConfigurationError
	var valErr *gateway.ValidationError
	var gwErr *gateway.GatewayError
	switch {
	case errors.As(err, &cfgErr):
		return "Code execution is not configured: " + cfgErr.Setting + " is missing."
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.As(err, &gwErr) && gwErr.Message != "":
		return gwErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Try again."
	default:
		return "Something went wrong. Your code is unchanged; try again."
	}
}
