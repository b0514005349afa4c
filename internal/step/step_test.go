package step

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"MCQ", KindMCQ, false},
		{"mcq", KindMCQ, false},
		{"multiple-choice", KindMCQ, false},
		{"Lesson", KindLesson, false},
		{"worked_example", KindWorkedExample, false},
		{"WorkedExample", KindWorkedExample, false},
		{"OpenQuestion", KindOpenQuestion, false},
		{"open_question", KindOpenQuestion, false},
		{"CodingQuestion", KindCodingQuestion, false},
		{" coding ", KindCodingQuestion, false},
		{"video", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				var ke *KindError
				require.True(t, errors.As(err, &ke))
				assert.Equal(t, tt.in, ke.Value)
				assert.ErrorIs(t, err, ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "MCQ", KindMCQ.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
	assert.True(t, KindCodingQuestion.Interactive())
	assert.False(t, KindWorkedExample.Interactive())
}

const samplePlaylist = `{
  "title": "Hash tables: chaining",
  "subtopicId": "collision-chaining",
  "topicId": "hash-tables",
  "steps": [
    {"stepType": "lesson", "content": {"title": "Buckets", "blocks": [
      {"type": "subtitle", "content": "Why chain?"},
      {"type": "text", "content": "Each bucket holds a list."},
      {"type": "code", "content": "table[h].append(x)", "language": "python"},
      {"type": "mermaid", "text": "graph LR; A-->B"}
    ]}},
    {"stepType": "MCQ", "content": {
      "question": "Average lookup with a good hash?",
      "options": [
        {"id": "A", "text": "O(n)"},
        {"id": "B", "text": "O(1)", "feedback": "Right, constant on average."}
      ],
      "correctOptionId": "B",
      "explanation": "Load factor keeps chains short."
    }},
    {"type": "open_question", "content": {"prompt": "Explain load factor.", "sampleAnswer": "n/m"}},
    {"stepType": "CodingQuestion", "content": {
      "markdown": "Print 1",
      "starterCode": "print(0)",
      "testCases": [{"input": "", "expectedOutput": "1"}]
    }}
  ]
}`

func TestDecodePlaylist(t *testing.T) {
	p, err := DecodePlaylist([]byte(samplePlaylist))
	require.NoError(t, err)

	assert.Equal(t, "Hash tables: chaining", p.Title)
	assert.Equal(t, "collision-chaining", p.SubtopicID)
	require.Equal(t, 4, p.Len())

	lesson := p.Steps[0]
	assert.Equal(t, KindLesson, lesson.Kind)
	require.NotNil(t, lesson.Reading)
	kinds := make([]BlockKind, 0, len(lesson.Reading.Blocks))
	for _, b := range lesson.Reading.Blocks {
		kinds = append(kinds, b.Kind)
	}
	assert.Equal(t, []BlockKind{BlockSubtitle, BlockText, BlockCode, BlockDiagram}, kinds)
	assert.Equal(t, "graph LR; A-->B", lesson.Reading.Blocks[3].Text)

	mcq := p.Steps[1]
	require.NotNil(t, mcq.MCQ)
	assert.Equal(t, "B", mcq.MCQ.CorrectOptionID)
	opt, ok := mcq.MCQ.Option("B")
	require.True(t, ok)
	assert.Equal(t, "Right, constant on average.", opt.Feedback)

	open := p.Steps[2]
	require.NotNil(t, open.Open)
	assert.Equal(t, "Explain load factor.", open.Open.Question)
	assert.Equal(t, "n/m", open.Open.ReferenceAnswer)

	code := p.Steps[3]
	require.NotNil(t, code.Coding)
	assert.Equal(t, "Print 1", code.Coding.Prompt)
	assert.Equal(t, "print(0)", code.Coding.StarterCode)
	assert.Equal(t, DefaultLanguageID, code.Coding.LanguageID)
	assert.Equal(t, "python", code.Coding.Language)
	assert.True(t, code.Coding.HasExpected)
	assert.Equal(t, "1", code.Coding.ExpectedOutput)
}

func TestDecodePlaylistUnknownKind(t *testing.T) {
	_, err := DecodePlaylist([]byte(`{"title":"x","steps":[{"stepType":"lesson","content":{}},{"stepType":"video"}]}`))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Index)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodePlaylistEmpty(t *testing.T) {
	p, err := DecodePlaylist([]byte(`{"title":"nothing yet","steps":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
}

func TestMCQDefaultsOptionIDs(t *testing.T) {
	p, err := DecodePlaylist([]byte(`{"steps":[{"stepType":"mcq","content":{"question":"q","options":[{"text":"a"},{"text":"b"}],"correctAnswer":"B"}}]}`))
	require.NoError(t, err)
	m := p.Steps[0].MCQ
	assert.Equal(t, "A", m.Options[0].ID)
	assert.Equal(t, "B", m.Options[1].ID)
	assert.Equal(t, "B", m.CorrectOptionID)
}

func TestMCQWithoutOptionsRejected(t *testing.T) {
	_, err := DecodePlaylist([]byte(`{"steps":[{"stepType":"mcq","content":{"question":"q","options":[]}}]}`))
	require.Error(t, err)
}
