package app

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studypod/internal/router"
	"github.com/abhisek/studypod/internal/screen"
	"github.com/abhisek/studypod/internal/store"
	"github.com/abhisek/studypod/internal/timer"
	"github.com/abhisek/studypod/internal/ui/layout"
)

// durationStep is how far +/- move the focus duration.
const durationStep = 5

// Options configures the root model.
type Options struct {
	// Initial is the first screen on the stack.
	Initial screen.Screen
	// Focus records finished focus sessions. Nil disables recording.
	Focus           store.FocusRepo
	DurationMinutes int
	// Now defaults to time.Now.
	Now func() time.Time
}

// timerTickMsg drives the focus countdown. Ticks from an older generation
// are dropped, which is how a pause or reset stops the chain.
type timerTickMsg struct {
	gen uint64
}

// focusClock is shared by every copy of AppModel.
type focusClock struct {
	timer     *timer.Timer
	gen       uint64
	startedAt time.Time
	subtopic  string
	saveErr   error
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	focus  *focusClock
	repo   store.FocusRepo
	now    func() time.Time
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	if opts.DurationMinutes == 0 {
		opts.DurationMinutes = timer.DefaultDuration
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return AppModel{
		router: router.New(opts.Initial),
		focus:  &focusClock{timer: timer.New(opts.DurationMinutes)},
		repo:   opts.Focus,
		now:    opts.Now,
	}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case timerTickMsg:
		if msg.gen != m.focus.gen || !m.focus.timer.IsActive() {
			return m, nil
		}
		m.focus.timer.Tick()
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.saveSession()
			return m, tea.Quit
		case "ctrl+t":
			return m, m.toggleTimer()
		case "ctrl+r":
			m.saveSession()
			m.focus.timer.Reset()
			m.focus.gen++
			return m, nil
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
		case "+", "=", "-":
			if !m.capturing() {
				delta := durationStep
				if msg.String() == "-" {
					delta = -durationStep
				}
				m.focus.timer.SetDuration(m.focus.timer.DurationMinutes() + delta)
				return m, nil
			}
		}
	}

	cmd := m.router.Update(msg)
	m.trackSubtopic()
	return m, cmd
}

func (m AppModel) toggleTimer() tea.Cmd {
	t := m.focus.timer
	if !t.HasStarted() {
		m.focus.startedAt = m.now()
	}
	t.Toggle()
	m.focus.gen++
	if t.IsActive() {
		return m.tick()
	}
	return nil
}

func (m AppModel) tick() tea.Cmd {
	gen := m.focus.gen
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return timerTickMsg{gen: gen}
	})
}

// capturing reports whether the active screen owns printable keys.
func (m AppModel) capturing() bool {
	c, ok := m.router.Active().(screen.InputCapturer)
	return ok && c.CapturesInput()
}

// trackSubtopic remembers the last subtopic reported by a screen so a
// session stays attributed while another screen is pushed on top.
func (m AppModel) trackSubtopic() {
	if r, ok := m.router.Active().(screen.SubtopicReporter); ok {
		m.focus.subtopic = r.SubtopicID()
	}
}

// saveSession records the current run of the timer, if it was started.
func (m AppModel) saveSession() {
	t := m.focus.timer
	if m.repo == nil || !t.HasStarted() {
		return
	}
	overtime := 0
	if t.TimeLeftSeconds() < 0 {
		overtime = -t.TimeLeftSeconds()
	}
	m.focus.saveErr = m.repo.Save(context.Background(), store.FocusSession{
		StartedAt:       m.focus.startedAt,
		EndedAt:         m.now(),
		DurationMinutes: t.DurationMinutes(),
		ElapsedSeconds:  t.ElapsedSeconds(),
		OvertimeSeconds: overtime,
		SubtopicID:      m.focus.subtopic,
	})
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, layout.TimerBadge(m.focus.timer), m.width)
	footer := layout.RenderFooter(m.footerHints(active), m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	var hints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		hints = append(hints, p.KeyHints()...)
	} else if m.router.Depth() > 1 {
		hints = append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	}

	timerHint := "Start timer"
	switch {
	case m.focus.timer.IsActive():
		timerHint = "Pause"
	case m.focus.timer.HasStarted():
		timerHint = "Resume"
	}
	hints = append(hints, layout.KeyHint{Key: "Ctrl+T", Description: timerHint})
	if m.focus.timer.HasStarted() {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+R", Description: "Reset"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := newAppModel(opts)
	p := tea.NewProgram(m)
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	if m.focus.saveErr != nil {
		fmt.Fprintln(os.Stderr, "Warning: focus session not saved:", m.focus.saveErr)
	}
	return nil
}
