package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studypod/internal/ui/theme"
)

// MenuItem is one row of a Menu. Headings are shown but never selected.
type MenuItem struct {
	Label   string
	Detail  string
	Heading bool
	Depth   int
	// Marked rows are drawn in the accent color, e.g. the open subtopic.
	Marked bool
}

// Menu is a vertical, scrollable list with a cursor that skips headings.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu creates a menu with the cursor on the first selectable item.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	for i, item := range items {
		if !item.Heading {
			m.Selected = i
			break
		}
	}
	return m
}

// Select moves the cursor to item i if it is selectable.
func (m *Menu) Select(i int) {
	if i >= 0 && i < len(m.Items) && !m.Items[i].Heading {
		m.Selected = i
	}
}

// Update handles cursor movement. Enter is left to the owner.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		for i := m.Selected - 1; i >= 0; i-- {
			if !m.Items[i].Heading {
				m.Selected = i
				break
			}
		}
	case "down", "j":
		for i := m.Selected + 1; i < len(m.Items); i++ {
			if !m.Items[i].Heading {
				m.Selected = i
				break
			}
		}
	case "home", "g":
		m = NewMenu(m.Items)
	}
	return m, nil
}

// View renders the menu, scrolled so the cursor stays within height rows.
// A height of zero renders every row.
func (m Menu) View(width, height int) string {
	start, end := 0, len(m.Items)
	if height > 0 && len(m.Items) > height {
		start = m.Selected - height/2
		if start < 0 {
			start = 0
		}
		end = start + height
		if end > len(m.Items) {
			end = len(m.Items)
			start = end - height
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		item := m.Items[i]
		indent := strings.Repeat("  ", item.Depth)
		style := theme.Unselected
		prefix := "  "
		switch {
		case item.Heading:
			style = theme.Subtitle
			prefix = ""
		case i == m.Selected:
			style = theme.Selected
			prefix = "▸ "
		case item.Marked:
			style = lipgloss.NewStyle().Foreground(theme.Accent)
		}
		line := indent + prefix + item.Label
		if item.Detail != "" {
			line += "  " + theme.Dim.Render(item.Detail)
		}
		if width > 0 {
			line = lipgloss.NewStyle().MaxWidth(width).Render(style.Render(line))
		} else {
			line = style.Render(line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
