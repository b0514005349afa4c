package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studypod/internal/router"
	"github.com/abhisek/studypod/internal/screen"
	"github.com/abhisek/studypod/internal/store"
	"github.com/abhisek/studypod/internal/ui/layout"
	"github.com/abhisek/studypod/internal/ui/theme"
)

const recentLimit = 50

type historyLoadedMsg struct {
	Sessions []store.FocusSession
	Totals   store.FocusTotals
	Attempts []store.AttemptStats
	Err      error
}

// HistoryScreen lists past focus sessions and per-kind attempt accuracy.
type HistoryScreen struct {
	eventRepo store.EventRepo
	focusRepo store.FocusRepo
	sessions  []store.FocusSession
	totals    store.FocusTotals
	attempts  []store.AttemptStats
	selected  int
	expanded  map[int]bool
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(eventRepo store.EventRepo, focusRepo store.FocusRepo) *HistoryScreen {
	return &HistoryScreen{
		eventRepo: eventRepo,
		focusRepo: focusRepo,
		expanded:  make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	events, focus := s.eventRepo, s.focusRepo
	return func() tea.Msg {
		ctx := context.Background()

		sessions, err := focus.Recent(ctx, recentLimit)
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		totals, err := focus.Totals(ctx)
		if err != nil {
			return historyLoadedMsg{Err: err}
		}

		// Attempt stats are optional; a failure leaves that section empty.
		attempts, _ := events.AttemptStatsByKind(ctx)

		return historyLoadedMsg{Sessions: sessions, Totals: totals, Attempts: attempts}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.sessions = msg.Sessions
			s.totals = msg.Totals
			s.attempts = msg.Attempts
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.sessions)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}

	var b strings.Builder
	b.WriteString("\n")
	center := func(line string) {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, line))
		b.WriteString("\n")
	}

	center(theme.Subtitle.Render("Focus"))
	center(theme.Dim.Render(fmt.Sprintf("%d sessions  %s focused  %s overtime",
		s.totals.Sessions, clock(s.totals.FocusedSeconds), clock(s.totals.OvertimeSeconds))))
	b.WriteString("\n")

	if len(s.sessions) == 0 {
		center(lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).
			Render("No focus sessions yet. Press Ctrl+T to start the timer."))
	}
	for i, sess := range s.sessions {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s  %d min planned  %s elapsed",
			prefix, sess.StartedAt.Format("Jan 02, 2006 15:04"), sess.DurationMinutes, clock(sess.ElapsedSeconds))
		if sess.OvertimeSeconds > 0 {
			line += fmt.Sprintf("  +%s over", clock(sess.OvertimeSeconds))
		}

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		center(style.Render(line))

		if s.expanded[i] {
			detail := "    No subtopic open"
			if sess.SubtopicID != "" {
				detail = "    Subtopic " + sess.SubtopicID
			}
			detail += "  ended " + sess.EndedAt.Format("15:04")
			center(lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render(detail))
		}
	}

	if len(s.attempts) > 0 {
		b.WriteString("\n")
		center(theme.Subtitle.Render("Practice"))
		for _, a := range s.attempts {
			line := fmt.Sprintf("%-16s %3d attempts  %3d correct  %3.0f%% accuracy",
				a.StepKind, a.Attempts, a.Correct, a.Accuracy()*100)
			if a.Errors > 0 {
				line += fmt.Sprintf("  %d errors", a.Errors)
			}
			center(lipgloss.NewStyle().Foreground(theme.Text).Render(line))
		}
	}

	return b.String()
}

// clock formats seconds as m:ss, or h:mm:ss past an hour.
func clock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	h, m, sec := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
