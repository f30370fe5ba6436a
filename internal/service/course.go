package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xiaot623/learnchat/internal/domain"
)

// SaveCourse stores a new course document and returns its id.
func (s *Service) SaveCourse(ctx context.Context, req *domain.SaveCourseRequest) (string, error) {
	if req == nil || strings.TrimSpace(req.Title) == "" || req.Content == nil {
		return "", fmt.Errorf("%w: Missing title or content", domain.ErrInvalidRequest)
	}
	id, err := s.courses.Save(ctx, req.Title, req.Content)
	if err != nil {
		return "", fmt.Errorf("failed to save course: %w", err)
	}
	s.logger.Info("course saved", "courseID", id, "title", req.Title)
	return id, nil
}

// GetCourse returns the stored course document as it is on disk.
func (s *Service) GetCourse(ctx context.Context, id string) (any, error) {
	return s.courses.Get(ctx, id)
}

// GetCanonicalCourse returns the course in its normalised shape.
func (s *Service) GetCanonicalCourse(ctx context.Context, id string) (*domain.Course, error) {
	doc, err := s.courses.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.NormalizeCourse(id, doc)
}

// ListCourses lists every stored course. Files that cannot be read are
// logged and listed with an empty title.
func (s *Service) ListCourses(ctx context.Context) []domain.CourseSummary {
	courses, problems := s.courses.List(ctx)
	for _, err := range problems {
		s.logger.Warn("unreadable course file", "error", err)
	}
	return courses
}

// EditCourse overwrites one value inside a stored course.
func (s *Service) EditCourse(ctx context.Context, req *domain.EditCourseRequest) error {
	if req == nil || req.ID == "" || req.Key == "" || len(req.Value) == 0 {
		return fmt.Errorf("%w: Missing id, key, or value", domain.ErrInvalidRequest)
	}
	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		return fmt.Errorf("%w: value is not valid JSON", domain.ErrInvalidRequest)
	}
	if err := s.courses.Edit(ctx, req.ID, req.Key, value); err != nil {
		return err
	}
	s.logger.Debug("course edited", "courseID", req.ID, "key", req.Key)
	return nil
}

// CoursePath returns the file backing a course, for the live stream.
func (s *Service) CoursePath(id string) (string, error) {
	return s.courses.Path(id)
}
