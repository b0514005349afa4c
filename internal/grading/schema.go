package grading

import "github.com/abhisek/studypod/internal/llm"

// SubmissionFeedbackSchema is the reply shape for graded code submissions.
var SubmissionFeedbackSchema = &llm.Schema{
	Name:        "submission-feedback",
	Description: "Review of a learner's code submission",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "One or two sentences on whether the program does what was asked",
			},
			"suggestions": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "0-3 concrete next steps, most important first",
			},
		},
		"required":             []any{"summary", "suggestions"},
		"additionalProperties": false,
	},
}
