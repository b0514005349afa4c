package player

import (
	"github.com/abhisek/studypod/internal/gateway"
	"github.com/abhisek/studypod/internal/step"
)

// MCQState is the learner's progress on a multiple-choice step.
type MCQState struct {
	SelectedOptionID string
	// Submitted locks the selection.
	Submitted bool
}

// OpenState is the learner's progress on an open question.
type OpenState struct {
	AnswerDraft  string
	Feedback     string
	Error        string
	IsSubmitting bool
}

// CodingState is the learner's progress on a coding step.
type CodingState struct {
	Code         string
	RunResult    *gateway.ExecutionResult
	SubmitResult *gateway.SubmissionResult
	IsRunning    bool
	IsSubmitting bool
	Error        string
}

// Interaction holds the state of one step. Exactly one field is set,
// matching the step's kind.
type Interaction struct {
	MCQ    *MCQState
	Open   *OpenState
	Coding *CodingState
}

// Interactions stores interaction state by step index for one playlist.
// Entries are created on first visit and live until the playlist is
// replaced.
type Interactions struct {
	steps   []step.Step
	byIndex map[int]*Interaction
}

// NewInteractions creates an empty store for steps.
func NewInteractions(steps []step.Step) *Interactions {
	return &Interactions{steps: steps, byIndex: make(map[int]*Interaction)}
}

// Get returns the state for index i, creating it on first access. It
// returns nil for steps without interaction state and for indices out of
// range.
func (s *Interactions) Get(i int) *Interaction {
	if st, ok := s.byIndex[i]; ok {
		return st
	}
	if i < 0 || i >= len(s.steps) {
		return nil
	}
	st := newInteraction(s.steps[i])
	if st == nil {
		return nil
	}
	s.byIndex[i] = st
	return st
}

// Peek returns the state for index i without creating it.
func (s *Interactions) Peek(i int) (*Interaction, bool) {
	st, ok := s.byIndex[i]
	return st, ok
}

// Len reports how many steps have state.
func (s *Interactions) Len() int {
	return len(s.byIndex)
}

func newInteraction(st step.Step) *Interaction {
	if !st.Kind.Interactive() {
		return nil
	}
	in := &Interaction{}
	switch st.Kind {
	case step.KindMCQ:
		in.MCQ = &MCQState{}
	case step.KindOpenQuestion:
		in.Open = &OpenState{}
	case step.KindCodingQuestion:
		in.Coding = &CodingState{}
		if st.Coding != nil {
			in.Coding.Code = st.Coding.StarterCode
		}
	}
	return in
}
