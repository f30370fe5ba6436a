package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xiaot623/learnchat/internal/docpath"
	"github.com/xiaot623/learnchat/internal/domain"
)

const courseExt = ".json"

// CourseStore keeps one JSON document per course in a directory.
type CourseStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCourseStore creates the storage directory if needed.
func NewCourseStore(dir string) (*CourseStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &CourseStore{dir: abs, locks: make(map[string]*sync.Mutex)}, nil
}

// Dir returns the absolute storage directory.
func (s *CourseStore) Dir() string {
	return s.dir
}

// Path returns the file backing a course id.
func (s *CourseStore) Path(id string) (string, error) {
	if err := ValidateCourseID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id+courseExt), nil
}

// ValidateCourseID rejects ids that would not name a single file inside the
// storage directory.
func ValidateCourseID(id string) error {
	switch {
	case id == "", id == ".", id == "..":
		return domain.ErrInvalidCourseID
	case strings.HasPrefix(id, "."):
		return domain.ErrInvalidCourseID
	case strings.ContainsAny(id, `/\`), strings.ContainsRune(id, 0):
		return domain.ErrInvalidCourseID
	}
	return nil
}

// Save writes a new course document {id, title, content} and returns its id.
func (s *CourseStore) Save(ctx context.Context, title string, content any) (string, error) {
	id := uuid.New().String()
	doc := map[string]any{
		"id":      id,
		"title":   title,
		"content": content,
	}
	path, err := s.Path(id)
	if err != nil {
		return "", err
	}
	if err := writeJSONFile(path, doc); err != nil {
		return "", fmt.Errorf("failed to save course: %w", err)
	}
	return id, nil
}

// Get returns the decoded document stored for id.
func (s *CourseStore) Get(ctx context.Context, id string) (any, error) {
	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}
	return readJSONFile(path)
}

// List returns one summary per course file, sorted by id.
func (s *CourseStore) List(ctx context.Context) ([]domain.CourseSummary, []error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return []domain.CourseSummary{}, []error{fmt.Errorf("failed to read storage dir: %w", err)}
	}

	var problems []error
	courses := make([]domain.CourseSummary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != courseExt || strings.HasPrefix(name, ".") {
			continue
		}
		id := strings.TrimSuffix(name, courseExt)
		summary := domain.CourseSummary{ID: id}

		doc, err := readJSONFile(filepath.Join(s.dir, name))
		if err != nil {
			problems = append(problems, fmt.Errorf("course %s: %w", id, err))
		} else if course, err := domain.NormalizeCourse(id, doc); err != nil {
			problems = append(problems, fmt.Errorf("course %s: %w", id, err))
		} else {
			summary.Title = course.Title
		}
		courses = append(courses, summary)
	}

	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, problems
}

// Edit overwrites the value at a slash-delimited key path. The file is only
// rewritten when the path resolves.
func (s *CourseStore) Edit(ctx context.Context, id, key string, value any) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}
	p, err := docpath.Parse(key)
	if err != nil {
		return err
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	doc, err := readJSONFile(path)
	if err != nil {
		return err
	}
	updated, err := docpath.Set(doc, p, value)
	if err != nil {
		return err
	}
	if err := writeJSONFile(path, updated); err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return nil
}

func (s *CourseStore) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func readJSONFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return DecodeDocument(data)
}

// DecodeDocument decodes JSON into a generic tree, keeping numbers exact.
func DecodeDocument(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid course document: %w", err)
	}
	return doc, nil
}

// writeJSONFile writes to a temp file next to path and renames it into place.
func writeJSONFile(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".course-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
