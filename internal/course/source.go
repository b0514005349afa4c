package course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/abhisek/studypod/internal/step"
)

// TopicPayload maps subtopic ids to their raw playlists, as served for one
// topic grouping.
type TopicPayload map[string]json.RawMessage

// Source provides course navigation data and playlists.
type Source interface {
	Outline(ctx context.Context) (*Outline, error)
	TopicPayload(ctx context.Context, topicID string) (TopicPayload, error)
}

// Playlist extracts and normalizes the subtopic's playlist from a topic
// payload. A missing key is a *NotFoundError.
func (p TopicPayload) Playlist(topicID, subtopicID string) (*step.Playlist, error) {
	raw, ok := p[subtopicID]
	if !ok {
		return nil, &NotFoundError{What: "playlist for subtopic", ID: subtopicID}
	}
	pl, err := step.DecodePlaylist(raw)
	if err != nil {
		return nil, fmt.Errorf("subtopic %s: %w", subtopicID, err)
	}
	if pl.SubtopicID == "" {
		pl.SubtopicID = subtopicID
	}
	if pl.TopicID == "" {
		pl.TopicID = topicID
	}
	return pl, nil
}

// LoadPlaylist fetches the topic grouping for ref and returns its playlist.
func LoadPlaylist(ctx context.Context, src Source, ref Ref) (*step.Playlist, error) {
	payload, err := src.TopicPayload(ctx, ref.TopicID)
	if err != nil {
		return nil, fmt.Errorf("fetch topic %s: %w", ref.TopicID, err)
	}
	return payload.Playlist(ref.TopicID, ref.ID)
}

// DirSource reads a course laid out on disk:
//
//	<dir>/outline.json
//	<dir>/topics/<topicId>.json
type DirSource struct {
	dir string
}

// NewDirSource returns a Source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// CourseID is the directory's base name.
func (d *DirSource) CourseID() string {
	return filepath.Base(filepath.Clean(d.dir))
}

func (d *DirSource) Outline(_ context.Context) (*Outline, error) {
	data, err := os.ReadFile(filepath.Join(d.dir, "outline.json"))
	if err != nil {
		return nil, fmt.Errorf("read outline: %w", err)
	}
	o, err := DecodeOutline(data)
	if err != nil {
		return nil, err
	}
	if o.CourseID == "" {
		o.CourseID = d.CourseID()
	}
	return o, nil
}

func (d *DirSource) TopicPayload(_ context.Context, topicID string) (TopicPayload, error) {
	if topicID == "" || filepath.Base(topicID) != topicID {
		return nil, &NotFoundError{What: "topic", ID: topicID}
	}
	data, err := os.ReadFile(filepath.Join(d.dir, "topics", topicID+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{What: "topic", ID: topicID}
		}
		return nil, fmt.Errorf("read topic %s: %w", topicID, err)
	}
	var payload TopicPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode topic %s: %w", topicID, err)
	}
	return payload, nil
}

// Problem is one issue found by Validate.
type Problem struct {
	SubtopicID string
	Err        error
}

// Validate loads every subtopic's playlist and reports the ones that fail,
// in course order.
// It returns an error only when the outline itself cannot be read.
func Validate(ctx context.Context, src Source) (*Outline, []Problem, error) {
	o, err := src.Outline(ctx)
	if err != nil {
		return nil, nil, err
	}

	payloads := make(map[string]TopicPayload)
	var problems []Problem
	for _, ref := range o.Flatten() {
		payload, ok := payloads[ref.TopicID]
		if !ok {
			payload, err = src.TopicPayload(ctx, ref.TopicID)
			if err != nil {
				problems = append(problems, Problem{SubtopicID: ref.ID, Err: err})
				continue
			}
			payloads[ref.TopicID] = payload
		}
		if _, err := payload.Playlist(ref.TopicID, ref.ID); err != nil {
			problems = append(problems, Problem{SubtopicID: ref.ID, Err: err})
		}
	}
	return o, problems, nil
}
