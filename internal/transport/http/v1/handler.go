// Package v1 provides the HTTP handlers of the learnchat API.
package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/learnchat/internal/docpath"
	"github.com/xiaot623/learnchat/internal/domain"
	"github.com/xiaot623/learnchat/internal/live"
	"github.com/xiaot623/learnchat/internal/logger"
	"github.com/xiaot623/learnchat/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	live    *live.Registry
	logger  *logger.Logger
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, registry *live.Registry, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		service: svc,
		live:    registry,
		logger:  log.With("component", "v1"),
	}
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Chat
	e.POST("/api/chat", h.Chat)
	e.POST("/api/streamText", h.StreamText)
	e.GET("/api/chat/runs/:run_id", h.GetRun)
	e.GET("/api/chat/runs/:run_id/events", h.GetRunEvents)
	e.GET("/api/models", h.ListModels)

	// Structured generation
	e.POST("/api/generateCourseOutline", h.GenerateCourseOutline)
	e.POST("/api/generateTopics", h.GenerateTopics)
	e.POST("/api/generateQuote", h.GenerateQuote)
	e.POST("/api/generateCourseContent", h.GenerateCourseContent)
	e.POST("/api/imageVision", h.ImageVision)
	e.POST("/api/review", h.Review)

	// Courses
	e.GET("/api/course/blob", h.GetCourse)
	e.POST("/api/course/blob", h.SaveCourse)
	e.PUT("/api/course/blob", h.EditCourse)
	e.GET("/api/live-courses/:courseId", h.LiveCourse)

	// Files
	e.POST("/api/upload", h.Upload)
	e.POST("/api/extract", h.Extract)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// fail writes the JSON error response for err. message is what a 500
// reports; the underlying error goes into details.
func (h *Handler) fail(c echo.Context, err error, message string) error {
	var pathErr *docpath.PathError
	switch {
	case errors.As(err, &pathErr):
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   pathErr.Error(),
			"segment": pathErr.Segment,
		})
	case errors.Is(err, domain.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": clientMessage(err)})
	case errors.Is(err, domain.ErrInvalidCourseID):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid course id"})
	case errors.Is(err, domain.ErrCourseNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Course not found"})
	case errors.Is(err, domain.ErrRunNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	case errors.Is(err, domain.ErrUploadTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "File too large"})
	}

	h.logger.Error(message, "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error":   message,
		"details": err.Error(),
	})
}

// clientMessage strips the sentinel prefix from a validation error.
func clientMessage(err error) string {
	msg := err.Error()
	prefix := domain.ErrInvalidRequest.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": message})
}
