package helpers

import (
	"testing"

	"github.com/xiaot623/learnchat/internal/repository"
)

func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func NewTestCourseStore(t *testing.T) *repository.CourseStore {
	t.Helper()

	s, err := repository.NewCourseStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create course store: %v", err)
	}
	return s
}
