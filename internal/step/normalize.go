package step

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultLanguageID is the sandbox language used when a coding step does not
// name one (Python 3).
const DefaultLanguageID = 71

var languageNames = map[int]string{
	50: "c",
	54: "cpp",
	60: "go",
	62: "java",
	63: "javascript",
	71: "python",
	73: "rust",
	74: "typescript",
}

// languageIDs is the reverse of languageNames plus common aliases.
var languageIDs = map[string]int{
	"c":          50,
	"cpp":        54,
	"c++":        54,
	"go":         60,
	"golang":     60,
	"java":       62,
	"javascript": 63,
	"js":         63,
	"python":     71,
	"python3":    71,
	"py":         71,
	"rust":       73,
	"typescript": 74,
	"ts":         74,
}

// ParseError reports a step that could not be decoded.
type ParseError struct {
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Index, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RawPlaylist is the wire shape of a playlist as served by the course
// backend. Field names follow the JSON payloads.
type RawPlaylist struct {
	Title      string    `json:"title"`
	Steps      []RawStep `json:"steps"`
	SubtopicID string    `json:"subtopicId,omitempty"`
	TopicID    string    `json:"topicId,omitempty"`
}

// RawStep carries the discriminant and the undecoded variant payload.
// Older payloads use "type" instead of "stepType".
type RawStep struct {
	StepType string          `json:"stepType"`
	Type     string          `json:"type,omitempty"`
	Content  json.RawMessage `json:"content"`
}

type rawBlock struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type rawReading struct {
	Title  string     `json:"title"`
	Blocks []rawBlock `json:"blocks"`
}

type rawOption struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Feedback string `json:"feedback"`
}

type rawMCQ struct {
	Question        string      `json:"question"`
	Options         []rawOption `json:"options"`
	CorrectOptionID *string     `json:"correctOptionId"`
	CorrectAnswer   *string     `json:"correctAnswer"`
	Explanation     string      `json:"explanation"`
}

type rawOpen struct {
	Question        *string `json:"question"`
	Prompt          *string `json:"prompt"`
	Context         string  `json:"context"`
	ReferenceAnswer *string `json:"referenceAnswer"`
	SampleAnswer    *string `json:"sampleAnswer"`
}

// RawTestCase is a test case in either naming scheme.
type RawTestCase struct {
	Input          string  `json:"input"`
	Stdin          *string `json:"stdin,omitempty"`
	ExpectedOutput *string `json:"expectedOutput"`
	Output         *string `json:"output,omitempty"`
}

// RawCoding is the coding payload with both schema generations. The newer
// field of each pair wins when both are present.
type RawCoding struct {
	Title          string        `json:"title"`
	Prompt         *string       `json:"prompt"`
	Markdown       *string       `json:"markdown"`
	DisplayCode    *string       `json:"displayCode"`
	StarterCode    *string       `json:"starterCode"`
	LanguageID     int           `json:"languageId"`
	Language       string        `json:"language"`
	WrapperPrefix  string        `json:"wrapperPrefix"`
	WrapperSuffix  string        `json:"wrapperSuffix"`
	Stdin          *string       `json:"stdin"`
	ExpectedOutput *string       `json:"expectedOutput"`
	TestCases      []RawTestCase `json:"testCases"`
	Solution       *string       `json:"solution"`
	SolutionCode   *string       `json:"solutionCode"`
	TimeLimit      float64       `json:"timeLimit"`
	MemoryLimit    int           `json:"memoryLimit"`
}

// DecodePlaylist parses and normalizes a playlist payload.
func DecodePlaylist(data []byte) (*Playlist, error) {
	var raw RawPlaylist
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode playlist: %w", err)
	}
	return Normalize(raw)
}

// Normalize converts a raw playlist into the canonical model. It is the only
// place that knows about legacy field names and discriminant spellings.
func Normalize(raw RawPlaylist) (*Playlist, error) {
	p := &Playlist{
		Title:      raw.Title,
		SubtopicID: raw.SubtopicID,
		TopicID:    raw.TopicID,
		Steps:      make([]Step, 0, len(raw.Steps)),
	}
	for i, rs := range raw.Steps {
		s, err := normalizeStep(rs)
		if err != nil {
			return nil, &ParseError{Index: i, Err: err}
		}
		p.Steps = append(p.Steps, s)
	}
	return p, nil
}

func normalizeStep(rs RawStep) (Step, error) {
	disc := rs.StepType
	if disc == "" {
		disc = rs.Type
	}
	kind, err := ParseKind(disc)
	if err != nil {
		return Step{}, err
	}
	content := rs.Content
	if len(content) == 0 || string(content) == "null" {
		content = json.RawMessage(`{}`)
	}

	s := Step{Kind: kind}
	switch kind {
	case KindLesson, KindWorkedExample:
		var r rawReading
		if err := json.Unmarshal(content, &r); err != nil {
			return Step{}, fmt.Errorf("decode %s content: %w", kind, err)
		}
		s.Reading = normalizeReading(r)
	case KindMCQ:
		var r rawMCQ
		if err := json.Unmarshal(content, &r); err != nil {
			return Step{}, fmt.Errorf("decode MCQ content: %w", err)
		}
		m, err := normalizeMCQ(r)
		if err != nil {
			return Step{}, err
		}
		s.MCQ = m
	case KindOpenQuestion:
		var r rawOpen
		if err := json.Unmarshal(content, &r); err != nil {
			return Step{}, fmt.Errorf("decode OpenQuestion content: %w", err)
		}
		s.Open = &OpenQuestion{
			Question:        pick(r.Question, r.Prompt),
			Context:         r.Context,
			ReferenceAnswer: pick(r.ReferenceAnswer, r.SampleAnswer),
		}
	case KindCodingQuestion:
		var r RawCoding
		if err := json.Unmarshal(content, &r); err != nil {
			return Step{}, fmt.Errorf("decode CodingQuestion content: %w", err)
		}
		s.Coding = NormalizeCoding(r)
	}
	return s, nil
}

func normalizeReading(r rawReading) *Reading {
	out := &Reading{Title: r.Title, Blocks: make([]Block, 0, len(r.Blocks))}
	for _, b := range r.Blocks {
		text := b.Content
		if text == "" {
			text = b.Text
		}
		out.Blocks = append(out.Blocks, Block{
			Kind:     parseBlockKind(b.Type),
			Text:     text,
			Language: b.Language,
		})
	}
	return out
}

func parseBlockKind(s string) BlockKind {
	switch foldKind(s) {
	case "subtitle", "heading", "header", "h2", "h3":
		return BlockSubtitle
	case "code", "snippet", "codeblock":
		return BlockCode
	case "diagram", "mermaid", "ascii":
		return BlockDiagram
	default:
		return BlockText
	}
}

func normalizeMCQ(r rawMCQ) (*MCQ, error) {
	m := &MCQ{
		Question:        r.Question,
		CorrectOptionID: pick(r.CorrectOptionID, r.CorrectAnswer),
		Explanation:     r.Explanation,
		Options:         make([]Option, 0, len(r.Options)),
	}
	for i, o := range r.Options {
		id := o.ID
		if id == "" {
			id = string(rune('A' + i))
		}
		m.Options = append(m.Options, Option{ID: id, Text: o.Text, Feedback: o.Feedback})
	}
	if len(m.Options) == 0 {
		return nil, fmt.Errorf("MCQ has no options")
	}
	return m, nil
}

// NormalizeCoding applies the field-precedence rules to a coding payload.
// The server reuses it for request bodies.
func NormalizeCoding(r RawCoding) *Coding {
	c := &Coding{
		Title:         r.Title,
		Prompt:        pick(r.Prompt, r.Markdown),
		StarterCode:   pick(r.DisplayCode, r.StarterCode),
		WrapperPrefix: r.WrapperPrefix,
		WrapperSuffix: r.WrapperSuffix,
		SolutionCode:  pick(r.Solution, r.SolutionCode),
		TimeLimit:     r.TimeLimit,
		MemoryLimit:   r.MemoryLimit,
	}

	c.LanguageID, c.Language = resolveLanguage(r.LanguageID, r.Language)

	for _, tc := range r.TestCases {
		c.TestCases = append(c.TestCases, TestCase{
			Input:          pick(tc.Stdin, &tc.Input),
			ExpectedOutput: pick(tc.ExpectedOutput, tc.Output),
		})
	}

	var first *RawTestCase
	if len(r.TestCases) > 0 {
		first = &r.TestCases[0]
	}

	switch {
	case r.ExpectedOutput != nil:
		c.ExpectedOutput = *r.ExpectedOutput
		c.HasExpected = true
	case first != nil && (first.ExpectedOutput != nil || first.Output != nil):
		c.ExpectedOutput = c.TestCases[0].ExpectedOutput
		c.HasExpected = true
	}

	switch {
	case r.Stdin != nil:
		c.Stdin = *r.Stdin
	case first != nil:
		c.Stdin = c.TestCases[0].Input
	}

	return c
}

func resolveLanguage(id int, name string) (int, string) {
	if id == 0 {
		if known, ok := languageIDs[strings.ToLower(strings.TrimSpace(name))]; ok {
			id = known
		} else {
			id = DefaultLanguageID
		}
	}
	if name == "" {
		name = languageNames[id]
	}
	return id, name
}

// pick returns the first non-nil value, so an explicitly empty newer field
// still shadows the legacy one.
func pick(newer, older *string) string {
	if newer != nil {
		return *newer
	}
	if older != nil {
		return *older
	}
	return ""
}
