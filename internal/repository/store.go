package repository

import (
	"context"

	"github.com/xiaot623/learnchat/internal/domain"
)

// RunStore defines the interface for the chat run audit trail.
type RunStore interface {
	CreateRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	UpdateRunCompleted(ctx context.Context, runID string, status domain.RunStatus, steps int, errMsg string) error

	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvents(ctx context.Context, runID string, afterTs int64, types []string, limit int) ([]domain.Event, error)

	Close() error
}

var _ RunStore = (*SQLiteStore)(nil)

// CourseRepository defines the interface for course document storage.
type CourseRepository interface {
	Save(ctx context.Context, title string, content any) (string, error)
	Get(ctx context.Context, id string) (any, error)
	List(ctx context.Context) ([]domain.CourseSummary, []error)
	Edit(ctx context.Context, id, key string, value any) error
	Path(id string) (string, error)
}

var _ CourseRepository = (*CourseStore)(nil)
