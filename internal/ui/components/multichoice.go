package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studypod/internal/ui/theme"
)

// Choice is one option as shown to the learner.
type Choice struct {
	ID   string
	Text string
}

// MultiChoice renders a multiple-choice question. It holds only display
// state; selection and correctness are owned by the caller.
type MultiChoice struct {
	Question  string
	Choices   []Choice
	Cursor    int
	Selected  string
	Submitted bool
	CorrectID string
}

// MoveCursor moves the highlight by delta, clamped to the options.
func (m *MultiChoice) MoveCursor(delta int) {
	m.Cursor += delta
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor > len(m.Choices)-1 {
		m.Cursor = len(m.Choices) - 1
	}
}

// CursorID is the id of the highlighted option.
func (m MultiChoice) CursorID() string {
	if m.Cursor < 0 || m.Cursor >= len(m.Choices) {
		return ""
	}
	return m.Choices[m.Cursor].ID
}

// IndexOf returns the position of the option with id, or -1.
func (m MultiChoice) IndexOf(id string) int {
	for i, c := range m.Choices {
		if strings.EqualFold(c.ID, id) {
			return i
		}
	}
	return -1
}

// View renders the question and options. After submission the correct
// option is green and a wrong pick is red.
func (m MultiChoice) View(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(width).Render(m.Question))
	b.WriteString("\n\n")

	for i, c := range m.Choices {
		prefix := "  "
		if i == m.Cursor && !m.Submitted {
			prefix = "▸ "
		}
		mark := "( )"
		if c.ID == m.Selected {
			mark = "(•)"
		}
		line := fmt.Sprintf("%s%s %s)  %s", prefix, mark, c.ID, c.Text)

		style := theme.Unselected
		switch {
		case m.Submitted && c.ID == m.CorrectID:
			style = theme.Correct
		case m.Submitted && c.ID == m.Selected:
			style = theme.Incorrect
		case m.Submitted:
			style = theme.Dim
		case i == m.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Width(width).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
