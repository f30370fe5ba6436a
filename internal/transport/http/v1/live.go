package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ssePadding pushes the first bytes through proxies that buffer small responses.
var ssePadding = ":" + strings.Repeat(" ", 2048) + "\n"

// LiveCourse streams a course file as server-sent events: the current
// contents first, then the full document after every change.
// GET /api/live-courses/:courseId
func (h *Handler) LiveCourse(c echo.Context) error {
	courseID := c.Param("courseId")
	path, err := h.service.CoursePath(courseID)
	if err != nil {
		return h.fail(c, err, "Failed to open live course")
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache, no-transform")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	sub := h.live.Subscribe(path)
	defer h.live.Unsubscribe(sub)
	log := h.logger.With("courseID", courseID, "subscriber", sub.ID)
	log.Debug("live course viewer connected")

	if _, err := fmt.Fprint(res, ssePadding+"retry: 10000\nevent: open\n\n"); err != nil {
		return nil
	}
	res.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("live course viewer disconnected")
			return nil
		case payload, ok := <-sub.C:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", payload); err != nil {
				log.Debug("live course write failed", "error", err)
				return nil
			}
			res.Flush()
		}
	}
}
