package history

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studypod/internal/router"
	"github.com/abhisek/studypod/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func load(t *testing.T, s *HistoryScreen) {
	t.Helper()
	cmd := s.Init()
	require.NotNil(t, cmd)
	s.Update(cmd())
}

func TestEmptyHistory(t *testing.T) {
	db := openStore(t)
	s := New(db.EventRepo(), db.FocusRepo())
	assert.Contains(t, s.View(100, 30), "Loading")

	load(t, s)
	view := s.View(100, 30)
	assert.Contains(t, view, "0 sessions")
	assert.Contains(t, view, "No focus sessions yet")
	assert.NotContains(t, view, "Practice")
}

func TestSessionsAndAttempts(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, db.FocusRepo().Save(ctx, store.FocusSession{
		ID: "f1", StartedAt: start, EndedAt: start.Add(27 * time.Minute),
		DurationMinutes: 25, ElapsedSeconds: 27 * 60, OvertimeSeconds: 120, SubtopicID: "s1",
	}))
	require.NoError(t, db.EventRepo().AppendStepAttempt(ctx, store.StepAttemptEventData{
		CourseID: "ds101", SubtopicID: "s1", StepKind: "MCQ", Action: "choose", Outcome: store.OutcomeCorrect,
	}))

	s := New(db.EventRepo(), db.FocusRepo())
	load(t, s)
	view := s.View(120, 30)
	assert.Contains(t, view, "1 sessions")
	assert.Contains(t, view, "25 min planned")
	assert.Contains(t, view, "+2:00 over")
	assert.Contains(t, view, "Practice")
	assert.Contains(t, view, "100% accuracy")
	assert.NotContains(t, view, "Subtopic s1")

	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Contains(t, s.View(120, 30), "Subtopic s1")
}

func TestEscPops(t *testing.T) {
	db := openStore(t)
	s := New(db.EventRepo(), db.FocusRepo())
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	_, ok := cmd().(router.PopScreenMsg)
	assert.True(t, ok)
}

func TestClock(t *testing.T) {
	tests := map[int]string{0: "0:00", 59: "0:59", 61: "1:01", 3725: "1:02:05", -5: "0:00"}
	for in, want := range tests {
		assert.Equal(t, want, clock(in), in)
	}
	assert.False(t, strings.Contains(clock(10), "-"))
}
