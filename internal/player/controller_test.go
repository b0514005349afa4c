package player

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studypod/internal/course"
	"github.com/abhisek/studypod/internal/gateway"
)

type memSource struct {
	outline *course.Outline
	topics  map[string]course.TopicPayload
	fail    error
}

func (m *memSource) Outline(context.Context) (*course.Outline, error) {
	return m.outline, nil
}

func (m *memSource) TopicPayload(_ context.Context, topicID string) (course.TopicPayload, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	p, ok := m.topics[topicID]
	if !ok {
		return nil, &course.NotFoundError{What: "topic", ID: topicID}
	}
	return p, nil
}

const threeSteps = `{"title":"Warmup","steps":[
	{"stepType":"lesson","content":{"title":"Intro","blocks":[{"type":"text","content":"hello"}]}},
	{"stepType":"MCQ","content":{"question":"Pick B","options":[{"id":"A","text":"a"},{"id":"B","text":"b","feedback":"Yes, B."}],"correctOptionId":"B","explanation":"B is right."}},
	{"stepType":"CodingQuestion","content":{"prompt":"Print 1","starterCode":"# write here","expectedOutput":"1"}}
]}`

const openStep = `{"title":"Reflect","steps":[{"stepType":"open_question","content":{"question":"Why?"}}]}`

func fixture() *memSource {
	outline := &course.Outline{Modules: []course.Module{
		{ID: "m1", Name: "One", Topics: []course.Topic{
			{ID: "t1", Name: "Basics", Subtopics: []course.Subtopic{{ID: "s1", Name: "Warmup"}, {ID: "s2", Name: "Reflect"}}},
		}},
		{ID: "m2", Name: "Two", Topics: []course.Topic{
			{ID: "t2", Name: "Later", Subtopics: []course.Subtopic{{ID: "s3", Name: "Missing"}}},
		}},
	}}
	return &memSource{
		outline: outline,
		topics: map[string]course.TopicPayload{
			"t1": {"s1": json.RawMessage(threeSteps), "s2": json.RawMessage(openStep)},
			"t2": {},
		},
	}
}

func load(t *testing.T, subtopicID string) (*Controller, *memSource) {
	t.Helper()
	src := fixture()
	c := NewController(src.outline, src)
	ref, err := src.outline.Find(subtopicID)
	require.NoError(t, err)
	require.NoError(t, c.SelectSubtopic(context.Background(), ref))
	return c, src
}

func TestSelectSubtopic(t *testing.T) {
	c, _ := load(t, "s1")
	assert.Equal(t, StatusReady, c.Status())
	assert.Equal(t, ViewFocus, c.View())
	assert.False(t, c.SidebarOpen())
	assert.Equal(t, 0, c.Index())
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, "t1", c.Playlist().TopicID)
}

func TestSelectSubtopicMissingKey(t *testing.T) {
	src := fixture()
	c := NewController(src.outline, src)
	ref, err := src.outline.Find("s3")
	require.NoError(t, err)

	err = c.SelectSubtopic(context.Background(), ref)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, c.Status())
	var nf *course.NotFoundError
	assert.True(t, errors.As(c.LoadError(), &nf))
	_, ok := c.Current()
	assert.False(t, ok)
	assert.False(t, c.Advance())
}

func TestSelectSubtopicFetchFailure(t *testing.T) {
	src := fixture()
	src.fail = errors.New("connection refused")
	c := NewController(src.outline, src)
	ref, _ := src.outline.Find("s1")

	require.Error(t, c.SelectSubtopic(context.Background(), ref))
	assert.Equal(t, StatusFailed, c.Status())
	assert.Equal(t, 0, c.Len())
}

func TestAdvanceRetreatClamped(t *testing.T) {
	c, _ := load(t, "s1")
	assert.False(t, c.Retreat())
	assert.True(t, c.Advance())
	assert.True(t, c.Advance())
	assert.True(t, c.IsLast())
	assert.False(t, c.Advance())
	assert.Equal(t, 2, c.Index())
}

func TestAdvanceRetreatPreservesState(t *testing.T) {
	c, _ := load(t, "s1")
	require.True(t, c.Advance())
	require.NoError(t, c.SelectOption("A"))
	before := *c.State().MCQ

	for i := 0; i < c.Len(); i++ {
		for c.Index() != i {
			if c.Index() < i {
				c.Advance()
			} else {
				c.Retreat()
			}
		}
		snapshot, _ := c.Interactions().Peek(1)
		if c.Advance() {
			c.Retreat()
		}
		assert.Equal(t, i, c.Index())
		after, _ := c.Interactions().Peek(1)
		assert.Same(t, snapshot, after)
	}
	st, ok := c.Interactions().Peek(1)
	require.True(t, ok)
	assert.Equal(t, before, *st.MCQ)
}

func TestMCQSelectionImmutableAfterSubmit(t *testing.T) {
	c, _ := load(t, "s1")
	c.Advance()

	_, err := c.SubmitChoice()
	require.ErrorIs(t, err, ErrNoSelection)

	require.NoError(t, c.SelectOption("A"))
	require.NoError(t, c.SelectOption("B"))
	out, err := c.SubmitChoice()
	require.NoError(t, err)
	assert.True(t, out.IsCorrect)
	assert.Equal(t, "Yes, B.", out.Feedback)

	require.ErrorIs(t, c.SelectOption("A"), ErrSubmitted)
	assert.Equal(t, "B", c.State().MCQ.SelectedOptionID)
	_, err = c.SubmitChoice()
	require.ErrorIs(t, err, ErrSubmitted)
	assert.False(t, c.AvailableActions().Has(ActionSelectOption))
}

func TestMCQFallsBackToExplanation(t *testing.T) {
	c, _ := load(t, "s1")
	c.Advance()
	require.NoError(t, c.SelectOption("A"))
	out, err := c.SubmitChoice()
	require.NoError(t, err)
	assert.False(t, out.IsCorrect)
	assert.Equal(t, "B is right.", out.Feedback)
}

func TestResetCodeRestoresStarter(t *testing.T) {
	c, _ := load(t, "s1")
	c.Advance()
	c.Advance()

	assert.Equal(t, "# write here", c.State().Coding.Code)
	require.NoError(t, c.SetCode("print(2)"))

	tk, _, err := c.BeginRun()
	require.NoError(t, err)
	c.FinishRun(tk, &gateway.ExecutionResult{Stdout: "2"}, nil)
	tk, _, err = c.BeginSubmit()
	require.NoError(t, err)
	c.FinishSubmit(tk, nil, &gateway.GatewayError{Op: "submit code", Message: "boom"})

	require.NoError(t, c.ResetCode())
	st := c.State().Coding
	assert.Equal(t, "# write here", st.Code)
	assert.Nil(t, st.RunResult)
	assert.Nil(t, st.SubmitResult)
	assert.Empty(t, st.Error)
}

func TestRunAndSubmitGuards(t *testing.T) {
	c, _ := load(t, "s1")
	c.Advance()
	c.Advance()

	require.NoError(t, c.SetCode("   "))
	_, _, err := c.BeginRun()
	require.ErrorIs(t, err, ErrEmptyCode)
	_, _, err = c.BeginSubmit()
	require.ErrorIs(t, err, ErrEmptyCode)

	require.NoError(t, c.SetCode("print(1)"))
	runTk, runReq, err := c.BeginRun()
	require.NoError(t, err)
	assert.Equal(t, "print(1)", runReq.Code)
	_, _, err = c.BeginRun()
	require.ErrorIs(t, err, ErrBusy)

	// submit is gated independently of run
	subTk, subReq, err := c.BeginSubmit()
	require.NoError(t, err)
	require.NotNil(t, subReq.ExpectedOutput)
	assert.Equal(t, "1", *subReq.ExpectedOutput)

	actions := c.AvailableActions()
	assert.False(t, actions.Has(ActionRunCode))
	assert.False(t, actions.Has(ActionSubmitCode))
	assert.True(t, actions.Has(ActionResetCode))

	require.True(t, c.FinishRun(runTk, nil, &gateway.ConfigurationError{Setting: "JUDGE0_API_KEY"}))
	st := c.State().Coding
	assert.Equal(t, "print(1)", st.Code)
	assert.Contains(t, st.Error, "JUDGE0_API_KEY")
	assert.False(t, st.IsRunning)
	assert.True(t, st.IsSubmitting)

	require.True(t, c.FinishSubmit(subTk, &gateway.SubmissionResult{
		Passed:    true,
		Execution: &gateway.ExecutionResult{Stdout: "1\n", Status: gateway.Status{ID: 4}},
	}, nil))
	assert.True(t, st.SubmitResult.Passed)
	assert.Nil(t, st.RunResult)
}

func TestOpenQuestionFeedback(t *testing.T) {
	c, _ := load(t, "s2")

	_, _, err := c.BeginFeedback()
	require.ErrorIs(t, err, ErrEmptyAnswer)

	require.NoError(t, c.SetDraft("because hashing"))
	tk, req, err := c.BeginFeedback()
	require.NoError(t, err)
	assert.Equal(t, "Why?", req.Question)
	assert.Equal(t, "s2", req.Context.SubtopicID)
	assert.Equal(t, "Reflect", req.Context.PlaylistTitle)

	_, _, err = c.BeginFeedback()
	require.ErrorIs(t, err, ErrBusy)
	// the draft stays editable while submitting
	require.NoError(t, c.SetDraft("because hashing is fast"))

	require.True(t, c.FinishFeedback(tk, "", errors.New("upstream down")))
	st := c.State().Open
	assert.Equal(t, FeedbackFallback, st.Error)
	assert.False(t, st.IsSubmitting)
	assert.Equal(t, "because hashing is fast", st.AnswerDraft)

	tk, _, err = c.BeginFeedback()
	require.NoError(t, err)
	require.True(t, c.FinishFeedback(tk, "Solid reasoning.", nil))
	assert.Equal(t, "Solid reasoning.", st.Feedback)
	assert.Empty(t, st.Error)
}

func TestStaleResultsDiscarded(t *testing.T) {
	c, src := load(t, "s2")
	require.NoError(t, c.SetDraft("x"))
	tk, _, err := c.BeginFeedback()
	require.NoError(t, err)

	ref, _ := src.outline.Find("s1")
	require.NoError(t, c.SelectSubtopic(context.Background(), ref))

	assert.False(t, c.FinishFeedback(tk, "late", nil))
	_, ok := c.Interactions().Peek(1)
	assert.False(t, ok)
}

func TestStaleLoadDiscarded(t *testing.T) {
	src := fixture()
	c := NewController(src.outline, src)
	s1, _ := src.outline.Find("s1")
	s2, _ := src.outline.Find("s2")

	first := c.BeginLoad(s1)
	second := c.BeginLoad(s2)

	pl, err := c.Fetch(context.Background(), first)
	require.NoError(t, err)
	assert.False(t, c.FinishLoad(first.Ticket, pl, nil))
	assert.Equal(t, StatusLoading, c.Status())

	pl, err = c.Fetch(context.Background(), second)
	require.NoError(t, err)
	assert.True(t, c.FinishLoad(second.Ticket, pl, nil))
	assert.Equal(t, "Reflect", c.Playlist().Title)
}

func TestResultForOtherIndexLandsInItsSlot(t *testing.T) {
	c, _ := load(t, "s1")
	c.Advance()
	c.Advance()
	tk, _, err := c.BeginRun()
	require.NoError(t, err)
	c.Retreat()

	require.True(t, c.FinishRun(tk, &gateway.ExecutionResult{Stdout: "ok"}, nil))
	st, ok := c.Interactions().Peek(2)
	require.True(t, ok)
	assert.Equal(t, "ok", st.Coding.RunResult.Stdout)
	assert.False(t, st.Coding.IsRunning)
}

func TestCompleteMovesToNextSubtopic(t *testing.T) {
	c, _ := load(t, "s1")
	require.ErrorIs(t, c.Complete(context.Background()), ErrNotLastStep)

	c.Advance()
	c.Advance()
	gen := c.Generation()
	require.NoError(t, c.Complete(context.Background()))
	assert.Equal(t, "s2", c.Subtopic().ID)
	assert.Greater(t, c.Generation(), gen)
	assert.Equal(t, ViewFocus, c.View())
	assert.Equal(t, 0, c.Index())
}

func TestCompleteAtEndOfCourseReturnsToBrowse(t *testing.T) {
	src := fixture()
	src.outline.Modules = src.outline.Modules[:1]
	c := NewController(src.outline, src)
	ref, _ := src.outline.Find("s2")
	require.NoError(t, c.SelectSubtopic(context.Background(), ref))
	require.True(t, c.IsLast())

	req, ok, err := c.BeginComplete()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, LoadRequest{}, req)
	assert.Equal(t, ViewBrowse, c.View())
	assert.True(t, c.SidebarOpen())
}

func TestLessonHasNoState(t *testing.T) {
	c, _ := load(t, "s1")
	assert.Nil(t, c.State())
	set := c.AvailableActions()
	assert.True(t, set.Has(ActionNext))
	assert.False(t, set.Has(ActionPrevious))
	assert.ErrorIs(t, c.SelectOption("A"), ErrNotInteractive)
}

func TestResumeKeepsPlaylistAndState(t *testing.T) {
	src := fixture()
	c := NewController(src.outline, src)
	assert.False(t, c.Resume(), "nothing loaded yet")

	ref, _ := src.outline.Find("s1")
	require.NoError(t, c.SelectSubtopic(context.Background(), ref))
	c.Advance()
	require.NoError(t, c.SelectOption("A"))
	gen := c.Generation()

	c.ReturnToBrowse()
	require.True(t, c.Resume())
	assert.Equal(t, ViewFocus, c.View())
	assert.False(t, c.SidebarOpen())
	assert.Equal(t, gen, c.Generation())
	assert.Equal(t, 1, c.Index())
	assert.Equal(t, "A", c.State().MCQ.SelectedOptionID)
}
