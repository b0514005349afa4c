package welcome

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studypod/internal/course"
	"github.com/abhisek/studypod/internal/router"
	"github.com/abhisek/studypod/internal/screen"
	"github.com/abhisek/studypod/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	bannerAt     = 500 * time.Millisecond
	totalDur     = 1500 * time.Millisecond
)

var sparkleFrames = []string{"★", "✦"}

type tickMsg time.Time

// loadedMsg carries the outline and the optional gateway check.
type loadedMsg struct {
	attempt  int
	outline  *course.Outline
	err      error
	checkErr error
}

// Options configures the welcome screen.
type Options struct {
	// Load fetches the course outline.
	Load func(ctx context.Context) (*course.Outline, error)
	// Check probes the gateway. Nil skips the probe. A failure is shown as
	// a warning; the course can still be browsed.
	Check func(ctx context.Context) error
	// Next builds the screen that replaces this one once the outline is in.
	Next    func(*course.Outline) screen.Screen
	Timeout time.Duration
}

// WelcomeScreen shows the banner while the course outline loads, then
// hands over to the player.
type WelcomeScreen struct {
	opts Options

	elapsed   time.Duration
	tickCount int

	attempt      int
	loading      bool
	outline      *course.Outline
	err          error
	checkErr     error
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen.
func New(opts Options) *WelcomeScreen {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &WelcomeScreen{opts: opts}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tea.Batch(tick(), w.load())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) load() tea.Cmd {
	w.attempt++
	w.loading = true
	w.err = nil
	attempt, opts := w.attempt, w.opts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
		defer cancel()
		msg := loadedMsg{attempt: attempt}
		if opts.Check != nil {
			msg.checkErr = opts.Check(ctx)
		}
		msg.outline, msg.err = opts.Load(ctx)
		return msg
	}
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if w.elapsed < totalDur {
			w.elapsed += tickInterval
		}
		w.tickCount++
		if w.transitioned {
			return w, nil
		}
		return w, tick()

	case loadedMsg:
		if msg.attempt != w.attempt {
			return w, nil
		}
		w.loading = false
		w.outline, w.err, w.checkErr = msg.outline, msg.err, msg.checkErr
		return w, nil

	case tea.KeyPressMsg:
		if w.err != nil && msg.String() == "r" {
			return w, w.load()
		}
		if w.ready() {
			return w, w.transition()
		}
		return w, nil
	}

	return w, nil
}

func (w *WelcomeScreen) ready() bool {
	return !w.loading && w.err == nil && w.outline != nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	next := w.opts.Next(w.outline)
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	var sections []string

	banner := RenderBanner(width)
	if w.elapsed >= bannerAt {
		sparkle := sparkleFrames[w.tickCount%len(sparkleFrames)]
		left := lipgloss.NewStyle().Foreground(theme.Accent).Render(sparkle)
		right := lipgloss.NewStyle().Foreground(theme.Secondary).Render(sparkle)
		banner = lipgloss.JoinHorizontal(lipgloss.Center, left, "  ", banner, "  ", right)
	}
	sections = append(sections, banner, "")

	hint := lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true)
	switch {
	case w.loading:
		dots := strings.Repeat(".", w.tickCount%4)
		sections = append(sections, theme.Dim.Render("Loading course"+dots))
	case w.err != nil:
		sections = append(sections,
			theme.ErrorText.Width(min(width-4, 70)).Render("Couldn't load the course: "+w.err.Error()),
			"",
			hint.Render("press r to retry"))
	default:
		tagline := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
		title := "Your course is ready."
		if w.outline != nil && w.outline.Title != "" {
			title = w.outline.Title
		}
		sections = append(sections, tagline.Render(title))
		if w.checkErr != nil {
			sections = append(sections, "",
				lipgloss.NewStyle().Foreground(theme.Accent).Width(min(width-4, 70)).
					Render("Gateway unavailable: "+w.checkErr.Error()+". Lessons work offline; feedback and code runs will fail."))
		}
		if w.elapsed >= totalDur {
			sections = append(sections, "", hint.Render("press any key to continue"))
		}
	}

	content := strings.Join(sections, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
