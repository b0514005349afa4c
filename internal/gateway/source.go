package gateway

import "strings"

// AcceptedStatusID is the sandbox's "Accepted" verdict.
const AcceptedStatusID = 3

// BuildSource concatenates the hidden wrapper around the learner's code.
func BuildSource(prefix, code, suffix string) string {
	return prefix + code + suffix
}

// NormalizeOutput unifies line endings and trims surrounding whitespace.
// It is idempotent.
func NormalizeOutput(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// OutputMatches compares program output against the expected output after
// normalizing both.
func OutputMatches(stdout, expected string) bool {
	return NormalizeOutput(stdout) == NormalizeOutput(expected)
}

// Verdict decides whether an execution passes. With an expected output the
// normalized stdout comparison decides, regardless of the sandbox status.
// Otherwise the sandbox must report Accepted.
func Verdict(res *ExecutionResult, expected string, hasExpected bool) bool {
	if res == nil {
		return false
	}
	if hasExpected {
		return OutputMatches(res.Stdout, expected)
	}
	return res.Status.ID == AcceptedStatusID
}
