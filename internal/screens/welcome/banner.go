package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studypod/internal/ui/theme"
)

const bannerArt = `┌─┐┌┬┐┬ ┬┌┬┐┬ ┬┌─┐┌─┐┌┬┐
└─┐ │ │ │ ││└┬┘├─┘│ │ ││
└─┘ ┴ └─┘─┴┘ ┴ ┴  └─┘─┴┘`

const bannerCompact = "S T U D Y P O D"

// RenderBanner returns the studypod banner styled in the primary color.
// Uses a compact fallback for terminals narrower than 30 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 30 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
