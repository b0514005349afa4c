package app

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studypod/internal/router"
	"github.com/abhisek/studypod/internal/screen"
	"github.com/abhisek/studypod/internal/store"
	"github.com/abhisek/studypod/internal/timer"
	"github.com/abhisek/studypod/internal/ui/layout"
)

type fakeScreen struct {
	title     string
	capturing bool
	subtopic  string
	keys      []string
}

func (f *fakeScreen) Init() tea.Cmd { return nil }
func (f *fakeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		f.keys = append(f.keys, k.String())
	}
	return f, nil
}
func (f *fakeScreen) View(int, int) string       { return "body of " + f.title }
func (f *fakeScreen) Title() string              { return f.title }
func (f *fakeScreen) CapturesInput() bool        { return f.capturing }
func (f *fakeScreen) SubtopicID() string         { return f.subtopic }
func (f *fakeScreen) KeyHints() []layout.KeyHint { return []layout.KeyHint{{Key: "Q", Description: "Quiz"}} }

type memFocus struct {
	saved []store.FocusSession
}

func (m *memFocus) Save(_ context.Context, s store.FocusSession) error {
	m.saved = append(m.saved, s)
	return nil
}
func (m *memFocus) Recent(context.Context, int) ([]store.FocusSession, error) { return m.saved, nil }
func (m *memFocus) Totals(context.Context) (store.FocusTotals, error)         { return store.FocusTotals{}, nil }

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newModel(s screen.Screen, repo store.FocusRepo) AppModel {
	now := epoch
	return newAppModel(Options{
		Initial:         s,
		Focus:           repo,
		DurationMinutes: 1,
		Now:             func() time.Time { now = now.Add(time.Second); return now },
	})
}

func ctrl(r rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl} }

func update(m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

func TestTimerToggleArmsTick(t *testing.T) {
	m := newModel(&fakeScreen{title: "Player"}, nil)
	m, cmd := update(m, ctrl('t'))
	require.NotNil(t, cmd)
	assert.Equal(t, timer.ModeActive, m.focus.timer.Mode())

	m, cmd = update(m, timerTickMsg{gen: m.focus.gen})
	assert.NotNil(t, cmd, "active timer re-arms")
	assert.Equal(t, 59, m.focus.timer.TimeLeftSeconds())

	// Pausing bumps the generation; the in-flight tick is dropped.
	stale := m.focus.gen
	m, cmd = update(m, ctrl('t'))
	assert.Nil(t, cmd)
	_, cmd = update(m, timerTickMsg{gen: stale})
	assert.Nil(t, cmd)
	assert.Equal(t, 59, m.focus.timer.TimeLeftSeconds())
}

func TestTimerRunsIntoOvertime(t *testing.T) {
	m := newModel(&fakeScreen{}, nil)
	m, _ = update(m, ctrl('t'))
	for i := 0; i < 62; i++ {
		m, _ = update(m, timerTickMsg{gen: m.focus.gen})
	}
	assert.Equal(t, timer.ModeOvertime, m.focus.timer.Mode())
	assert.Equal(t, "+00:02", m.focus.timer.Format())
}

func TestResetSavesSession(t *testing.T) {
	repo := &memFocus{}
	fs := &fakeScreen{subtopic: "s1"}
	m := newModel(fs, repo)

	m, _ = update(m, tea.KeyPressMsg{Code: 'x', Text: "x"}) // lets the app see the subtopic
	m, _ = update(m, ctrl('t'))
	for i := 0; i < 65; i++ {
		m, _ = update(m, timerTickMsg{gen: m.focus.gen})
	}
	m, _ = update(m, ctrl('r'))

	require.Len(t, repo.saved, 1)
	got := repo.saved[0]
	assert.Equal(t, 1, got.DurationMinutes)
	assert.Equal(t, 65, got.ElapsedSeconds)
	assert.Equal(t, 5, got.OvertimeSeconds)
	assert.Equal(t, "s1", got.SubtopicID)
	assert.True(t, got.EndedAt.After(got.StartedAt))
	assert.Equal(t, timer.ModeSetup, m.focus.timer.Mode())

	// A reset without a started timer records nothing.
	update(m, ctrl('r'))
	assert.Len(t, repo.saved, 1)
}

func TestQuitSavesStartedSession(t *testing.T) {
	repo := &memFocus{}
	m := newModel(&fakeScreen{}, repo)
	m, _ = update(m, ctrl('t'))
	_, cmd := update(m, ctrl('c'))
	require.NotNil(t, cmd)
	assert.Len(t, repo.saved, 1)
}

func TestDurationKeysRespectInputCapture(t *testing.T) {
	fs := &fakeScreen{}
	m := newModel(fs, nil)
	m, _ = update(m, tea.KeyPressMsg{Code: '+', Text: "+"})
	assert.Equal(t, 6, m.focus.timer.DurationMinutes())

	fs.capturing = true
	m, _ = update(m, tea.KeyPressMsg{Code: '-', Text: "-"})
	assert.Equal(t, 6, m.focus.timer.DurationMinutes())
	assert.Equal(t, []string{"-"}, fs.keys)
}

func TestEscPopsOnlyPushedScreens(t *testing.T) {
	root := &fakeScreen{title: "Player"}
	m := newModel(root, nil)

	_, cmd := update(m, tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"esc"}, root.keys, "root screen gets esc")

	m, _ = update(m, router.PushScreenMsg{Screen: &fakeScreen{title: "History"}})
	_, cmd = update(m, tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	_, ok := cmd().(router.PopScreenMsg)
	assert.True(t, ok)
}

func TestViewShowsTimerAndHints(t *testing.T) {
	m := newModel(&fakeScreen{title: "Player"}, nil)
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	v := m.View()
	assert.True(t, v.AltScreen)

	hints := m.footerHints(m.router.Active())
	var keys []string
	for _, h := range hints {
		keys = append(keys, h.Key)
	}
	assert.Equal(t, "Q Ctrl+T Ctrl+C", strings.Join(keys, " "))
	assert.Contains(t, layout.TimerBadge(m.focus.timer), "1 min")
}
