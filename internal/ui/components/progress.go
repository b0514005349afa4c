package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studypod/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label   string
	Percent float64
	Counter string
	Width   int
}

// NewStepProgress shows position i (zero-based) of n steps.
func NewStepProgress(i, n, width int) ProgressBar {
	p := ProgressBar{Width: width}
	if n > 0 {
		p.Percent = float64(i+1) / float64(n)
		p.Counter = fmt.Sprintf("%d/%d", i+1, n)
	}
	return p
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	counter := ""
	if p.Counter != "" {
		counter = "  " + theme.Dim.Render(p.Counter)
	}

	barWidth := p.Width - lipgloss.Width(result) - lipgloss.Width(counter)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	result += theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled))
	return result + counter
}
