package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSource(t *testing.T) {
	assert.Equal(t, "print(1)", BuildSource("", "print(1)", ""))
	assert.Equal(t, "AXB", BuildSource("A", "X", "B"))
}

func TestNormalizeOutputIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"1",
		"  1\n",
		"a\r\nb\r\n",
		"a\rb\r",
		"\r\n\r\n x \r\n\r\n",
		"line one\n\nline three\t",
	}
	for _, s := range inputs {
		once := NormalizeOutput(s)
		assert.Equal(t, once, NormalizeOutput(once), "%q", s)
		assert.NotContains(t, once, "\r")
	}
}

func TestOutputMatches(t *testing.T) {
	assert.True(t, OutputMatches("1\r\n", "1"))
	assert.True(t, OutputMatches("a\rb", "a\nb"))
	assert.False(t, OutputMatches("a b", "a  b"))
}

func TestVerdict(t *testing.T) {
	wrong := &ExecutionResult{Stdout: "1\n", Status: Status{ID: 4, Description: "Wrong Answer"}}
	accepted := &ExecutionResult{Stdout: "2", Status: Status{ID: AcceptedStatusID, Description: "Accepted"}}

	tests := []struct {
		name        string
		res         *ExecutionResult
		expected    string
		hasExpected bool
		want        bool
	}{
		{"stdout match overrides status", wrong, "1", true, true},
		{"stdout mismatch fails even if accepted", accepted, "1", true, false},
		{"no expected uses status", accepted, "", false, true},
		{"no expected and not accepted", wrong, "", false, false},
		{"nil result", nil, "1", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verdict(tt.res, tt.expected, tt.hasExpected))
		})
	}
}
