package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/learnchat/internal/domain"
)

// GenerateCourseOutline handles POST /api/generateCourseOutline.
func (h *Handler) GenerateCourseOutline(c echo.Context) error {
	var req domain.CourseOutlineRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	out, err := h.service.GenerateCourseOutline(c.Request().Context(), &req)
	if err != nil {
		return h.fail(c, err, "Failed to generate course outline.")
	}
	return c.JSON(http.StatusOK, out)
}

// GenerateTopics handles POST /api/generateTopics.
func (h *Handler) GenerateTopics(c echo.Context) error {
	var req domain.TopicsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	out, err := h.service.GenerateTopics(c.Request().Context(), &req)
	if err != nil {
		return h.fail(c, err, "Failed to generate topics.")
	}
	return c.JSON(http.StatusOK, out)
}

// GenerateQuote handles POST /api/generateQuote.
func (h *Handler) GenerateQuote(c echo.Context) error {
	var req domain.QuoteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	out, err := h.service.GenerateQuote(c.Request().Context(), &req)
	if err != nil {
		return h.fail(c, err, "Failed to generate quote.")
	}
	return c.JSON(http.StatusOK, out)
}

// GenerateCourseContent handles POST /api/generateCourseContent.
func (h *Handler) GenerateCourseContent(c echo.Context) error {
	var req domain.CourseContentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	out, err := h.service.GenerateCourseContent(c.Request().Context(), &req)
	if err != nil {
		return h.fail(c, err, "Failed to generate course content.")
	}
	return c.JSON(http.StatusOK, out)
}

// ImageVision handles POST /api/imageVision.
func (h *Handler) ImageVision(c echo.Context) error {
	var req domain.ImageVisionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	out, err := h.service.AnalyzeImage(c.Request().Context(), &req)
	if err != nil {
		return h.fail(c, err, "Failed to analyze image")
	}
	return c.JSON(http.StatusOK, out)
}

// Review handles POST /api/review.
func (h *Handler) Review(c echo.Context) error {
	var req domain.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	out, err := h.service.ReviewRecipe(c.Request().Context(), &req)
	if err != nil {
		return h.fail(c, err, "Failed to review recipe.")
	}
	return c.JSON(http.StatusOK, out)
}
