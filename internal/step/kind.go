package step

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed set of step variants a playlist can contain.
type Kind int

const (
	KindLesson Kind = iota + 1
	KindWorkedExample
	KindMCQ
	KindOpenQuestion
	KindCodingQuestion
)

var kindNames = map[Kind]string{
	KindLesson:         "Lesson",
	KindWorkedExample:  "WorkedExample",
	KindMCQ:            "MCQ",
	KindOpenQuestion:   "OpenQuestion",
	KindCodingQuestion: "CodingQuestion",
}

// kindAliases maps folded spellings (lowercase, no separators) to kinds.
var kindAliases = map[string]Kind{
	"lesson":         KindLesson,
	"reading":        KindLesson,
	"workedexample":  KindWorkedExample,
	"example":        KindWorkedExample,
	"mcq":            KindMCQ,
	"multiplechoice": KindMCQ,
	"quiz":           KindMCQ,
	"openquestion":   KindOpenQuestion,
	"openended":      KindOpenQuestion,
	"freeresponse":   KindOpenQuestion,
	"codingquestion": KindCodingQuestion,
	"coding":         KindCodingQuestion,
	"codingexercise": KindCodingQuestion,
	"code":           KindCodingQuestion,
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Interactive reports whether the kind carries per-visit interaction state.
func (k Kind) Interactive() bool {
	return k == KindMCQ || k == KindOpenQuestion || k == KindCodingQuestion
}

// ParseKind canonicalizes a step type discriminant. Matching ignores case
// and the separators '-', '_' and ' '.
func ParseKind(s string) (Kind, error) {
	folded := foldKind(s)
	if k, ok := kindAliases[folded]; ok {
		return k, nil
	}
	return 0, &KindError{Value: s}
}

// ErrUnknownKind matches any KindError under errors.Is.
var ErrUnknownKind = errors.New("unknown step type")

// KindError is the validation error for a step type that names no kind.
type KindError struct {
	Value string
}

func (e *KindError) Error() string {
	return fmt.Sprintf("unknown step type %q", e.Value)
}

func (e *KindError) Is(target error) bool { return target == ErrUnknownKind }

func foldKind(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case '-', '_', ' ':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
