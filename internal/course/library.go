package course

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Library is a directory holding one DirSource layout per course.
type Library struct {
	root string
}

func NewLibrary(root string) *Library {
	return &Library{root: root}
}

// Source returns the course stored under courseID. Unknown or unsafe ids
// are a *NotFoundError.
func (l *Library) Source(courseID string) (*DirSource, error) {
	if courseID == "" || courseID == "." || courseID == ".." || strings.ContainsAny(courseID, `/\`) {
		return nil, &NotFoundError{What: "course", ID: courseID}
	}
	dir := filepath.Join(l.root, courseID)
	info, err := os.Stat(filepath.Join(dir, "outline.json"))
	if err != nil || info.IsDir() {
		return nil, &NotFoundError{What: "course", ID: courseID}
	}
	return NewDirSource(dir), nil
}

// Courses lists the ids of every course that has an outline, sorted.
func (l *Library) Courses() ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list courses: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(l.root, e.Name(), "outline.json")); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
