package step

// Step is one unit of a playlist. Exactly one content pointer is set and it
// matches Kind: Reading for Lesson and WorkedExample, MCQ, Open, or Coding.
type Step struct {
	Kind    Kind
	Reading *Reading
	MCQ     *MCQ
	Open    *OpenQuestion
	Coding  *Coding
}

// Title returns a short label for outlines and headers.
func (s Step) Title() string {
	switch s.Kind {
	case KindLesson, KindWorkedExample:
		if s.Reading != nil && s.Reading.Title != "" {
			return s.Reading.Title
		}
	case KindMCQ:
		return "Quick check"
	case KindOpenQuestion:
		return "Open question"
	case KindCodingQuestion:
		if s.Coding != nil && s.Coding.Title != "" {
			return s.Coding.Title
		}
		return "Coding exercise"
	}
	return s.Kind.String()
}

// BlockKind identifies a lesson content block.
type BlockKind string

const (
	BlockText     BlockKind = "text"
	BlockSubtitle BlockKind = "subtitle"
	BlockCode     BlockKind = "code"
	BlockDiagram  BlockKind = "diagram"
)

// Block is one rendered unit of a lesson or worked example.
type Block struct {
	Kind     BlockKind
	Text     string
	Language string // code blocks only
}

// Reading is the content of Lesson and WorkedExample steps.
type Reading struct {
	Title  string
	Blocks []Block
}

// Option is one choice of an MCQ.
type Option struct {
	ID       string
	Text     string
	Feedback string
}

// MCQ is a single-answer multiple choice question.
type MCQ struct {
	Question        string
	Options         []Option
	CorrectOptionID string
	Explanation     string
}

// Option returns the option with the given id.
func (m *MCQ) Option(id string) (Option, bool) {
	for _, o := range m.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// OpenQuestion asks for a free-text answer that is graded remotely.
type OpenQuestion struct {
	Question        string
	Context         string
	ReferenceAnswer string
}

// TestCase is a stdin/expected-output pair.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
}

// Coding is a code exercise executed by the remote sandbox.
type Coding struct {
	Title          string
	Prompt         string
	StarterCode    string
	LanguageID     int
	Language       string
	WrapperPrefix  string
	WrapperSuffix  string
	Stdin          string
	ExpectedOutput string
	HasExpected    bool
	TestCases      []TestCase
	SolutionCode   string
	TimeLimit      float64 // seconds, 0 = sandbox default
	MemoryLimit    int     // KB, 0 = sandbox default
}

// Playlist is the ordered step sequence for one subtopic.
type Playlist struct {
	Title      string
	Steps      []Step
	SubtopicID string
	TopicID    string
}

// Len returns the number of steps.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Steps)
}
