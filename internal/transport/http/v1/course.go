package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/learnchat/internal/domain"
)

// GetCourse returns one stored course, or the course list without an id.
// GET /api/course/blob?id=<id>[&view=canonical]
func (h *Handler) GetCourse(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.QueryParam("id")
	if id == "" {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"courses": h.service.ListCourses(ctx),
		})
	}

	if c.QueryParam("view") == "canonical" {
		course, err := h.service.GetCanonicalCourse(ctx, id)
		if err != nil {
			return h.fail(c, err, "Failed to retrieve course")
		}
		return c.JSON(http.StatusOK, course)
	}

	doc, err := h.service.GetCourse(ctx, id)
	if err != nil {
		return h.fail(c, err, "Failed to retrieve course")
	}
	return c.JSON(http.StatusOK, doc)
}

// SaveCourse stores a new course.
// POST /api/course/blob
func (h *Handler) SaveCourse(c echo.Context) error {
	var req domain.SaveCourseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	id, err := h.service.SaveCourse(c.Request().Context(), &req)
	if err != nil {
		return h.fail(c, err, "Failed to save course")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"id":      id,
	})
}

// EditCourse overwrites one value of a stored course.
// PUT /api/course/blob
func (h *Handler) EditCourse(c echo.Context) error {
	var req domain.EditCourseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.service.EditCourse(c.Request().Context(), &req); err != nil {
		return h.fail(c, err, "Failed to update course")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Course updated successfully",
	})
}
