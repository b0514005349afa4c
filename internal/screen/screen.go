package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studypod/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// InputCapturer is implemented by screens that sometimes own every
// printable key, such as while an editor has focus. The app then skips
// its single-letter shortcuts.
type InputCapturer interface {
	CapturesInput() bool
}

// SubtopicReporter is implemented by screens that know which subtopic the
// learner has open. Focus sessions are attributed to it.
type SubtopicReporter interface {
	SubtopicID() string
}
