package study

import (
	"context"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studypod/internal/course"
	"github.com/abhisek/studypod/internal/gateway"
	"github.com/abhisek/studypod/internal/player"
	"github.com/abhisek/studypod/internal/router"
	"github.com/abhisek/studypod/internal/screen"
	"github.com/abhisek/studypod/internal/step"
	"github.com/abhisek/studypod/internal/store"
	"github.com/abhisek/studypod/internal/ui/components"
	"github.com/abhisek/studypod/internal/ui/layout"
	"github.com/abhisek/studypod/internal/ui/theme"
)

// Gateway is the subset of the learning gateway the player calls.
type Gateway interface {
	OpenQuestionFeedback(ctx context.Context, req gateway.FeedbackRequest) (string, error)
	RunCode(ctx context.Context, req gateway.RunRequest) (*gateway.ExecutionResult, error)
	SubmitCode(ctx context.Context, req gateway.SubmitRequest) (*gateway.SubmissionResult, error)
	Chat(ctx context.Context, req gateway.ChatRequest) (string, error)
}

var _ Gateway = (*gateway.Client)(nil)

// offlineGateway is used when no gateway URL was configured. Every call
// fails before touching the network.
type offlineGateway struct{}

func (offlineGateway) err() error { return &gateway.ConfigurationError{Setting: "gateway URL"} }

func (g offlineGateway) OpenQuestionFeedback(context.Context, gateway.FeedbackRequest) (string, error) {
	return "", g.err()
}

func (g offlineGateway) RunCode(context.Context, gateway.RunRequest) (*gateway.ExecutionResult, error) {
	return nil, g.err()
}

func (g offlineGateway) SubmitCode(context.Context, gateway.SubmitRequest) (*gateway.SubmissionResult, error) {
	return nil, g.err()
}

func (g offlineGateway) Chat(context.Context, gateway.ChatRequest) (string, error) {
	return "", g.err()
}

// Options configures the study screen.
type Options struct {
	CourseID string
	Outline  *course.Outline
	Source   course.Source
	// Gateway may be nil; remote actions then report a configuration error.
	Gateway Gateway
	// Events may be nil, in which case attempts are not recorded.
	Events store.EventRepo
	// History builds the screen pushed by the H key. Nil disables it.
	History func() screen.Screen
	// Timeout bounds every remote call. Defaults to 60s.
	Timeout time.Duration
}

// Screen is the course player: an outline browser and a focus view that
// steps through one subtopic's playlist.
type Screen struct {
	opts Options
	ctrl *player.Controller

	menu     components.Menu
	menuRefs []course.Ref // parallel to menu.Items; zero Ref for headings
	cursor   int          // MCQ highlight

	editor  textarea.Model
	editing bool
	body    viewport.Model

	spinner  spinner.Model
	spinning bool

	chat   chatPanel
	notice string
}

var (
	_ screen.Screen           = (*Screen)(nil)
	_ screen.KeyHintProvider  = (*Screen)(nil)
	_ screen.InputCapturer    = (*Screen)(nil)
	_ screen.SubtopicReporter = (*Screen)(nil)
)

// New creates the study screen in the browse view.
func New(opts Options) *Screen {
	if opts.Gateway == nil {
		opts.Gateway = offlineGateway{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Outline == nil {
		opts.Outline = &course.Outline{}
	}

	ed := textarea.New()
	ed.ShowLineNumbers = false
	ed.CharLimit = 0
	ed.Prompt = "│ "

	s := &Screen{
		opts:    opts,
		ctrl:    player.NewController(opts.Outline, opts.Source),
		editor:  ed,
		body:    viewport.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Hint)),
		chat:    newChatPanel(),
	}
	s.rebuildMenu()
	return s
}

// Controller exposes the underlying player state.
func (s *Screen) Controller() *player.Controller { return s.ctrl }

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string {
	if s.ctrl.View() == player.ViewFocus && s.ctrl.Playlist() != nil {
		if t := s.ctrl.Playlist().Title; t != "" {
			return t
		}
		return s.ctrl.Subtopic().Name
	}
	if s.opts.Outline.Title != "" {
		return s.opts.Outline.Title
	}
	return "Course"
}

// CapturesInput reports whether printable keys belong to an editor.
func (s *Screen) CapturesInput() bool {
	return s.editing || s.chat.open
}

// SubtopicID is the subtopic currently open in the player, if any.
func (s *Screen) SubtopicID() string {
	if s.ctrl.Status() == player.StatusIdle {
		return ""
	}
	return s.ctrl.Subtopic().ID
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.chat.open:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Send"},
			{Key: "Ctrl+K", Description: "Clear"},
			{Key: "Esc", Description: "Close chat"},
		}
	case s.editing:
		hints := []layout.KeyHint{{Key: "Esc", Description: "Done editing"}}
		if cur, ok := s.ctrl.Current(); ok && cur.Kind == step.KindCodingQuestion {
			return append(hints,
				layout.KeyHint{Key: "Ctrl+E", Description: "Run"},
				layout.KeyHint{Key: "Ctrl+S", Description: "Submit"})
		}
		return append(hints, layout.KeyHint{Key: "Ctrl+S", Description: "Get feedback"})
	case s.ctrl.View() == player.ViewBrowse:
		hints := []layout.KeyHint{
			{Key: "↑↓", Description: "Move"},
			{Key: "Enter", Description: "Open"},
		}
		if s.ctrl.Status() != player.StatusIdle {
			hints = append(hints, layout.KeyHint{Key: "B", Description: "Back to step"})
		}
		if s.opts.History != nil {
			hints = append(hints, layout.KeyHint{Key: "H", Description: "History"})
		}
		return hints
	}

	actions := s.ctrl.AvailableActions()
	var hints []layout.KeyHint
	if actions.Has(player.ActionSelectOption) {
		hints = append(hints, layout.KeyHint{Key: "↑↓", Description: "Choose"})
	}
	if actions.Has(player.ActionSubmitChoice) {
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Check"})
	}
	if actions.Has(player.ActionEditAnswer) || actions.Has(player.ActionEditCode) {
		hints = append(hints, layout.KeyHint{Key: "E", Description: "Edit"})
	}
	if actions.Has(player.ActionRequestFeedback) {
		hints = append(hints, layout.KeyHint{Key: "F", Description: "Feedback"})
	}
	if actions.Has(player.ActionRunCode) {
		hints = append(hints, layout.KeyHint{Key: "R", Description: "Run"})
	}
	if actions.Has(player.ActionSubmitCode) {
		hints = append(hints, layout.KeyHint{Key: "S", Description: "Submit"})
	}
	if actions.Has(player.ActionPrevious) {
		hints = append(hints, layout.KeyHint{Key: "←", Description: "Back"})
	}
	if actions.Has(player.ActionNext) {
		hints = append(hints, layout.KeyHint{Key: "→", Description: "Next"})
	}
	if actions.Has(player.ActionComplete) {
		hints = append(hints, layout.KeyHint{Key: "C", Description: "Complete"})
	}
	return append(hints,
		layout.KeyHint{Key: "Tab", Description: "Outline"},
		layout.KeyHint{Key: "?", Description: "Ask"},
		layout.KeyHint{Key: "B", Description: "Browse"},
	)
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDoneMsg:
		if s.ctrl.FinishLoad(msg.req.Ticket, msg.playlist, msg.err) {
			s.afterLoad()
		}
		return s, nil

	case feedbackDoneMsg:
		s.ctrl.FinishFeedback(msg.ticket, msg.text, msg.err)
		return s, nil

	case runDoneMsg:
		if s.ctrl.FinishRun(msg.ticket, msg.result, msg.err) {
			s.recordRun(msg)
		}
		return s, nil

	case submitDoneMsg:
		if s.ctrl.FinishSubmit(msg.ticket, msg.result, msg.err) {
			s.recordSubmit(msg)
		}
		return s, nil

	case chatDoneMsg:
		s.chat.finish(msg)
		return s, nil

	case spinner.TickMsg:
		if !s.busy() {
			s.spinning = false
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		cmd := s.handleKey(msg)
		return s, tea.Batch(cmd, s.ensureSpinner())
	}

	var cmd tea.Cmd
	switch {
	case s.chat.open:
		s.chat.input, cmd = s.chat.input.Update(msg)
	case s.editing:
		s.editor, cmd = s.editor.Update(msg)
	}
	return s, cmd
}

func (s *Screen) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s.chat.open {
		return s.handleChatKey(msg)
	}
	if s.editing {
		return s.handleEditorKey(msg)
	}
	if s.ctrl.View() == player.ViewBrowse {
		return s.handleBrowseKey(msg)
	}
	return s.handleFocusKey(msg)
}

func (s *Screen) handleBrowseKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		i := s.menu.Selected
		if i < 0 || i >= len(s.menuRefs) || s.menu.Items[i].Heading {
			return nil
		}
		return s.open(s.menuRefs[i])
	case "b", "esc":
		s.ctrl.Resume()
		return nil
	case "H":
		if s.opts.History != nil {
			next := s.opts.History()
			return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
		return nil
	}
	s.menu, _ = s.menu.Update(msg)
	return nil
}

func (s *Screen) handleFocusKey(msg tea.KeyMsg) tea.Cmd {
	s.notice = ""
	key := msg.String()

	switch key {
	case "tab":
		s.ctrl.ToggleSidebar()
		return nil
	case "b":
		s.ctrl.ReturnToBrowse()
		s.syncMenuCursor()
		return nil
	case "?":
		s.chat.open = true
		return s.chat.input.Model.Focus()
	case "pgdown":
		s.body.PageDown()
		return nil
	case "pgup":
		s.body.PageUp()
		return nil
	case "right", "n":
		if s.ctrl.Advance() {
			s.afterMove()
		}
		return nil
	case "left", "p":
		if s.ctrl.Retreat() {
			s.afterMove()
		}
		return nil
	case "c":
		return s.complete()
	}

	cur, ok := s.ctrl.Current()
	if !ok {
		return nil
	}
	switch cur.Kind {
	case step.KindMCQ:
		return s.handleChoiceKey(cur, key)
	case step.KindOpenQuestion:
		switch key {
		case "e", "enter":
			return s.startEditing(cur)
		case "f":
			return s.requestFeedback()
		}
	case step.KindCodingQuestion:
		switch key {
		case "e", "enter":
			return s.startEditing(cur)
		case "r":
			return s.run()
		case "s":
			return s.submit()
		case "x":
			if err := s.ctrl.ResetCode(); err == nil {
				s.notice = "Starter code restored."
			}
		}
	}
	return nil
}

func (s *Screen) handleChoiceKey(cur step.Step, key string) tea.Cmd {
	opts := cur.MCQ.Options
	if len(opts) == 0 {
		return nil
	}
	mc := s.choiceModel(cur, s.ctrl.State())
	switch key {
	case "up", "k", "down", "j":
		delta := 1
		if key == "up" || key == "k" {
			delta = -1
		}
		mc.MoveCursor(delta)
		s.cursor = mc.Cursor
		_ = s.ctrl.SelectOption(mc.CursorID())
	case "enter", "space":
		if mc.Selected == "" {
			_ = s.ctrl.SelectOption(mc.CursorID())
		}
		out, err := s.ctrl.SubmitChoice()
		if err != nil {
			s.notice = err.Error()
			return nil
		}
		outcome := store.OutcomeIncorrect
		if out.IsCorrect {
			outcome = store.OutcomeCorrect
		}
		s.record(cur, "choose", outcome, s.ctrl.State().MCQ.SelectedOptionID)
	default:
		// 1-9 pick an option by position; letters are taken by navigation.
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			i := int(key[0] - '1')
			if i < len(opts) && s.ctrl.SelectOption(opts[i].ID) == nil {
				s.cursor = i
			}
		}
	}
	return nil
}

func (s *Screen) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.stopEditing()
		return nil
	case "ctrl+s":
		s.syncEditor()
		cur, _ := s.ctrl.Current()
		if cur.Kind == step.KindCodingQuestion {
			return s.submit()
		}
		return s.requestFeedback()
	case "ctrl+e":
		s.syncEditor()
		return s.run()
	}
	var cmd tea.Cmd
	s.editor, cmd = s.editor.Update(msg)
	s.syncEditor()
	return cmd
}

func (s *Screen) startEditing(cur step.Step) tea.Cmd {
	st := s.ctrl.State()
	if st == nil {
		return nil
	}
	switch cur.Kind {
	case step.KindOpenQuestion:
		s.editor.ShowLineNumbers = false
		s.editor.Placeholder = "Write your answer…"
		s.editor.SetValue(st.Open.AnswerDraft)
	case step.KindCodingQuestion:
		s.editor.ShowLineNumbers = true
		s.editor.Placeholder = ""
		s.editor.SetValue(st.Coding.Code)
	default:
		return nil
	}
	s.editing = true
	return s.editor.Focus()
}

func (s *Screen) stopEditing() {
	s.syncEditor()
	s.editor.Blur()
	s.editing = false
}

// syncEditor copies the editor buffer into the controller.
func (s *Screen) syncEditor() {
	if !s.editing {
		return
	}
	cur, ok := s.ctrl.Current()
	if !ok {
		return
	}
	switch cur.Kind {
	case step.KindOpenQuestion:
		_ = s.ctrl.SetDraft(s.editor.Value())
	case step.KindCodingQuestion:
		_ = s.ctrl.SetCode(s.editor.Value())
	}
}

func (s *Screen) open(ref course.Ref) tea.Cmd {
	s.editing = false
	s.editor.Blur()
	req := s.ctrl.BeginLoad(ref)
	s.syncMenuCursor()
	return s.fetchCmd(req)
}

func (s *Screen) complete() tea.Cmd {
	req, ok, err := s.ctrl.BeginComplete()
	if err != nil {
		s.notice = "Finish the last step to complete this subtopic."
		return nil
	}
	if !ok {
		s.notice = "You reached the end of the course."
		s.syncMenuCursor()
		return nil
	}
	s.stopEditing()
	s.syncMenuCursor()
	return s.fetchCmd(req)
}

func (s *Screen) requestFeedback() tea.Cmd {
	t, req, err := s.ctrl.BeginFeedback()
	if err != nil {
		s.notice = err.Error()
		return nil
	}
	cur, _ := s.ctrl.Current()
	s.record(cur, "feedback", store.OutcomeInfo, "")
	return s.feedbackCmd(t, req)
}

func (s *Screen) run() tea.Cmd {
	t, req, err := s.ctrl.BeginRun()
	if err != nil {
		s.notice = err.Error()
		return nil
	}
	return s.runCmd(t, req)
}

func (s *Screen) submit() tea.Cmd {
	t, req, err := s.ctrl.BeginSubmit()
	if err != nil {
		s.notice = err.Error()
		return nil
	}
	return s.submitCmd(t, req)
}

// afterLoad resets per-playlist view state once a playlist arrives.
func (s *Screen) afterLoad() {
	s.rebuildMenu()
	s.afterMove()
}

func (s *Screen) afterMove() {
	s.cursor = 0
	s.body.GotoTop()
	if s.editing {
		s.editor.Blur()
		s.editing = false
	}
	st := s.ctrl.State()
	cur, ok := s.ctrl.Current()
	if ok && cur.Kind == step.KindMCQ && st != nil && st.MCQ != nil {
		for i, o := range cur.MCQ.Options {
			if o.ID == st.MCQ.SelectedOptionID {
				s.cursor = i
			}
		}
	}
}

// busy reports whether any remote call is in flight.
func (s *Screen) busy() bool {
	if s.ctrl.Status() == player.StatusLoading || s.chat.pending {
		return true
	}
	st := s.ctrl.State()
	if st == nil {
		return false
	}
	if st.Open != nil && st.Open.IsSubmitting {
		return true
	}
	return st.Coding != nil && (st.Coding.IsRunning || st.Coding.IsSubmitting)
}

func (s *Screen) ensureSpinner() tea.Cmd {
	if s.spinning || !s.busy() {
		return nil
	}
	s.spinning = true
	return s.spinner.Tick
}

func (s *Screen) record(cur step.Step, action, outcome, detail string) {
	if s.opts.Events == nil {
		return
	}
	_ = s.opts.Events.AppendStepAttempt(context.Background(), store.StepAttemptEventData{
		CourseID:   s.opts.CourseID,
		SubtopicID: s.ctrl.Subtopic().ID,
		StepIndex:  s.ctrl.Index(),
		StepKind:   cur.Kind.String(),
		Action:     action,
		Outcome:    outcome,
		Detail:     detail,
	})
}

func (s *Screen) recordRun(msg runDoneMsg) {
	cur, ok := s.ctrl.Current()
	if !ok || s.ctrl.Index() != msg.ticket.Index {
		return
	}
	switch {
	case msg.err != nil:
		s.record(cur, "run", store.OutcomeError, player.ErrorText(msg.err))
	case msg.result != nil:
		s.record(cur, "run", store.OutcomeInfo, msg.result.Status.Description)
	}
}

func (s *Screen) recordSubmit(msg submitDoneMsg) {
	cur, ok := s.ctrl.Current()
	if !ok || s.ctrl.Index() != msg.ticket.Index {
		return
	}
	switch {
	case msg.err != nil:
		s.record(cur, "submit", store.OutcomeError, player.ErrorText(msg.err))
	case msg.result != nil && msg.result.Passed:
		s.record(cur, "submit", store.OutcomeCorrect, "")
	case msg.result != nil:
		s.record(cur, "submit", store.OutcomeIncorrect, "")
	}
}
