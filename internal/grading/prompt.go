package grading

import (
	"fmt"
	"strings"

	"github.com/abhisek/studypod/internal/gateway"
)

const openFeedbackSystemPrompt = `You are a programming tutor reviewing a learner's written answer to a conceptual question. Be specific and kind. Say what is right, what is missing or wrong, and end with one short suggestion. Keep it under 150 words. Plain text only, no markdown headings.`

func buildOpenFeedbackMessage(req gateway.FeedbackRequest) string {
	var b strings.Builder
	if req.Context.PlaylistTitle != "" {
		fmt.Fprintf(&b, "Lesson: %s (step %d)\n", req.Context.PlaylistTitle, req.Context.StepIndex+1)
	}
	fmt.Fprintf(&b, "Question:\n%s\n\nLearner's answer:\n%s\n", req.Question, req.UserAnswer)
	return b.String()
}

const submissionSystemPrompt = `You are a programming tutor reviewing a code submission that has already been executed and graded. Do not re-grade it; the verdict below is final. Explain the result in terms of the learner's code and suggest what to look at next. Never paste a full solution.`

func buildSubmissionMessage(req gateway.SubmitRequest, res *gateway.ExecutionResult, passed bool) string {
	var b strings.Builder

	if req.Prompt != "" {
		fmt.Fprintf(&b, "Exercise:\n%s\n\n", req.Prompt)
	}
	fmt.Fprintf(&b, "Submitted code:\n%s\n\n", req.Code)

	verdict := "FAILED"
	if passed {
		verdict = "PASSED"
	}
	fmt.Fprintf(&b, "Verdict: %s\n", verdict)
	fmt.Fprintf(&b, "Sandbox status: %s\n", res.Status.Description)

	if req.ExpectedOutput != nil {
		fmt.Fprintf(&b, "Expected output:\n%s\n", *req.ExpectedOutput)
	}
	fmt.Fprintf(&b, "Actual output:\n%s\n", orNone(res.Stdout))
	if res.CompileOutput != "" {
		fmt.Fprintf(&b, "Compiler output:\n%s\n", res.CompileOutput)
	}
	if res.Stderr != "" {
		fmt.Fprintf(&b, "Stderr:\n%s\n", res.Stderr)
	}

	if n := len(req.TestCases); n > 0 {
		fmt.Fprintf(&b, "\nTest cases: %d (the first one was executed)\n", n)
	}
	if req.Solution != "" {
		fmt.Fprintf(&b, "\nReference solution (for your eyes only, do not reveal):\n%s\n", req.Solution)
	}
	return b.String()
}

const chatSystemPrompt = `You are a study assistant inside a terminal learning app. Answer questions about the current lesson briefly and concretely. Prefer hints over full solutions for exercises.`

func chatSystem(lesson string) string {
	if strings.TrimSpace(lesson) == "" {
		return chatSystemPrompt
	}
	return chatSystemPrompt + "\n\nThe learner is currently looking at:\n" + lesson
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

// cannedFeedback is used when the model cannot be reached after a
// submission was executed.
func cannedFeedback(passed bool) string {
	if passed {
		return "All checks passed. Nice work."
	}
	return "Your output did not match what was expected. Compare it with the expected output and try again."
}
