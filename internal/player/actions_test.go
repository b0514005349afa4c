package player

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/studypod/internal/step"
)

func TestActions(t *testing.T) {
	mcq := step.Step{Kind: step.KindMCQ, MCQ: &step.MCQ{Options: []step.Option{{ID: "A"}}}}
	open := step.Step{Kind: step.KindOpenQuestion, Open: &step.OpenQuestion{}}
	coding := step.Step{Kind: step.KindCodingQuestion, Coding: &step.Coding{}}

	tests := []struct {
		name string
		step step.Step
		st   *Interaction
		has  []Action
		not  []Action
	}{
		{
			name: "lesson",
			step: step.Step{Kind: step.KindLesson},
			not:  []Action{ActionSelectOption, ActionEditCode, ActionEditAnswer},
		},
		{
			name: "mcq without selection",
			step: mcq,
			st:   &Interaction{MCQ: &MCQState{}},
			has:  []Action{ActionSelectOption},
			not:  []Action{ActionSubmitChoice},
		},
		{
			name: "mcq with selection",
			step: mcq,
			st:   &Interaction{MCQ: &MCQState{SelectedOptionID: "A"}},
			has:  []Action{ActionSelectOption, ActionSubmitChoice},
		},
		{
			name: "mcq submitted",
			step: mcq,
			st:   &Interaction{MCQ: &MCQState{SelectedOptionID: "A", Submitted: true}},
			not:  []Action{ActionSelectOption, ActionSubmitChoice},
		},
		{
			name: "open blank draft",
			step: open,
			st:   &Interaction{Open: &OpenState{AnswerDraft: " \n"}},
			has:  []Action{ActionEditAnswer},
			not:  []Action{ActionRequestFeedback},
		},
		{
			name: "open submitting keeps editing",
			step: open,
			st:   &Interaction{Open: &OpenState{AnswerDraft: "x", IsSubmitting: true}},
			has:  []Action{ActionEditAnswer},
			not:  []Action{ActionRequestFeedback},
		},
		{
			name: "coding running",
			step: coding,
			st:   &Interaction{Coding: &CodingState{Code: "x", IsRunning: true}},
			has:  []Action{ActionEditCode, ActionResetCode, ActionSubmitCode},
			not:  []Action{ActionRunCode},
		},
		{
			name: "coding empty",
			step: coding,
			st:   &Interaction{Coding: &CodingState{}},
			has:  []Action{ActionResetCode},
			not:  []Action{ActionRunCode, ActionSubmitCode},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Actions(tt.step, tt.st)
			for _, a := range tt.has {
				assert.True(t, set.Has(a), "missing %d", a)
			}
			for _, a := range tt.not {
				assert.False(t, set.Has(a), "unexpected %d", a)
			}
		})
	}
}

func TestInteractionsLazy(t *testing.T) {
	steps := []step.Step{
		{Kind: step.KindLesson},
		{Kind: step.KindCodingQuestion, Coding: &step.Coding{StarterCode: "start"}},
	}
	s := NewInteractions(steps)
	assert.Nil(t, s.Get(0))
	assert.Equal(t, 0, s.Len())

	st := s.Get(1)
	assert.Equal(t, "start", st.Coding.Code)
	st.Coding.Code = "edited"
	assert.Equal(t, "edited", s.Get(1).Coding.Code)
	assert.Nil(t, s.Get(5))
	assert.Equal(t, 1, s.Len())
}
