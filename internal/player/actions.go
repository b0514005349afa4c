package player

import (
	"strings"

	"github.com/abhisek/studypod/internal/step"
)

// Action is something the learner can do on the current step.
type Action uint16

const (
	ActionSelectOption Action = 1 << iota
	ActionSubmitChoice
	ActionEditAnswer
	ActionRequestFeedback
	ActionEditCode
	ActionResetCode
	ActionRunCode
	ActionSubmitCode
	ActionPrevious
	ActionNext
	ActionComplete
)

// ActionSet is a set of actions.
type ActionSet uint16

// Has reports whether a is in the set.
func (s ActionSet) Has(a Action) bool {
	return uint16(s)&uint16(a) != 0
}

func (s ActionSet) with(a Action) ActionSet {
	return ActionSet(uint16(s) | uint16(a))
}

// Actions returns the step-local actions valid for a step in the given
// state. It has no side effects.
func Actions(s step.Step, st *Interaction) ActionSet {
	var set ActionSet
	switch s.Kind {
	case step.KindMCQ:
		if st == nil || st.MCQ == nil {
			return set.with(ActionSelectOption)
		}
		if st.MCQ.Submitted {
			return set
		}
		set = set.with(ActionSelectOption)
		if st.MCQ.SelectedOptionID != "" {
			set = set.with(ActionSubmitChoice)
		}
	case step.KindOpenQuestion:
		set = set.with(ActionEditAnswer)
		if st != nil && st.Open != nil && !st.Open.IsSubmitting && strings.TrimSpace(st.Open.AnswerDraft) != "" {
			set = set.with(ActionRequestFeedback)
		}
	case step.KindCodingQuestion:
		set = set.with(ActionEditCode).with(ActionResetCode)
		if st == nil || st.Coding == nil || strings.TrimSpace(st.Coding.Code) == "" {
			return set
		}
		if !st.Coding.IsRunning {
			set = set.with(ActionRunCode)
		}
		if !st.Coding.IsSubmitting {
			set = set.with(ActionSubmitCode)
		}
	}
	return set
}
