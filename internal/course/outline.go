package course

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Outline is the authored module → topic → subtopic hierarchy of a course.
type Outline struct {
	CourseID string   `json:"courseId,omitempty"`
	Title    string   `json:"title,omitempty"`
	Modules  []Module `json:"modules"`
}

type Module struct {
	ID     string  `json:"moduleId"`
	Name   string  `json:"moduleName"`
	Topics []Topic `json:"topics"`
}

type Topic struct {
	ID        string     `json:"topicId"`
	Name      string     `json:"topicName"`
	Subtopics []Subtopic `json:"subtopics"`
}

type Subtopic struct {
	ID   string `json:"subtopicId"`
	Name string `json:"subtopicName"`
}

// Ref locates a subtopic inside an outline.
type Ref struct {
	ModuleID   string
	ModuleName string
	TopicID    string
	TopicName  string
	Subtopic
}

// NotFoundError reports navigational data that is absent. Callers resolve
// it by falling back to another path rather than failing.
type NotFoundError struct {
	What string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.What, e.ID)
}

// DecodeOutline accepts either an outline object or the bare module array
// produced by the course parser.
func DecodeOutline(data []byte) (*Outline, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var mods []Module
		if err := json.Unmarshal(trimmed, &mods); err != nil {
			return nil, fmt.Errorf("decode outline modules: %w", err)
		}
		return &Outline{Modules: mods}, nil
	}
	var o Outline
	if err := json.Unmarshal(trimmed, &o); err != nil {
		return nil, fmt.Errorf("decode outline: %w", err)
	}
	return &o, nil
}

// Flatten lists every subtopic in course order: modules in order, topics in
// order within a module, subtopics in order within a topic.
func (o *Outline) Flatten() []Ref {
	if o == nil {
		return nil
	}
	var refs []Ref
	for _, m := range o.Modules {
		for _, t := range m.Topics {
			for _, s := range t.Subtopics {
				refs = append(refs, Ref{
					ModuleID:   m.ID,
					ModuleName: m.Name,
					TopicID:    t.ID,
					TopicName:  t.Name,
					Subtopic:   s,
				})
			}
		}
	}
	return refs
}

// Find returns the subtopic with the given id.
func (o *Outline) Find(subtopicID string) (Ref, error) {
	for _, r := range o.Flatten() {
		if r.ID == subtopicID {
			return r, nil
		}
	}
	return Ref{}, &NotFoundError{What: "subtopic", ID: subtopicID}
}

// Next returns the subtopic after subtopicID in course order. It returns a
// *NotFoundError when subtopicID is the last one or is not in the outline.
func (o *Outline) Next(subtopicID string) (Ref, error) {
	refs := o.Flatten()
	for i, r := range refs {
		if r.ID != subtopicID {
			continue
		}
		if i+1 < len(refs) {
			return refs[i+1], nil
		}
		return Ref{}, &NotFoundError{What: "next subtopic after", ID: subtopicID}
	}
	return Ref{}, &NotFoundError{What: "subtopic", ID: subtopicID}
}

// SubtopicCount is the number of subtopics in the outline.
func (o *Outline) SubtopicCount() int {
	return len(o.Flatten())
}
