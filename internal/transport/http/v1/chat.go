package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/learnchat/internal/domain"
)

// Chat streams an answer to a conversation.
// POST /api/chat
func (h *Handler) Chat(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	w := newDataStreamWriter(c.Response())
	err := h.service.Chat(c.Request().Context(), &req, w)
	return h.finishStream(c, w, err)
}

// StreamText streams an answer to a single query.
// POST /api/streamText
func (h *Handler) StreamText(c echo.Context) error {
	var req domain.StreamTextRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	w := newDataStreamWriter(c.Response())
	err := h.service.StreamText(c.Request().Context(), &req, w)
	return h.finishStream(c, w, err)
}

// finishStream reports a chat failure: as JSON while nothing has been sent,
// as an error frame once the stream is open.
func (h *Handler) finishStream(c echo.Context, w *dataStreamWriter, err error) error {
	if err == nil {
		return nil
	}
	if !w.Started() {
		return h.fail(c, err, "Failed to process chat request")
	}
	h.logger.Warn("chat stream failed", "runID", c.Response().Header().Get(HeaderRunID), "error", err)
	if werr := w.Error(err.Error()); werr != nil {
		h.logger.Debug("failed to write error frame", "error", werr)
	}
	return nil
}

// GetRun returns the audit record of a chat run.
// GET /api/chat/runs/:run_id
func (h *Handler) GetRun(c echo.Context) error {
	run, err := h.service.GetRun(c.Request().Context(), c.Param("run_id"))
	if err != nil {
		return h.fail(c, err, "Failed to get run")
	}
	return c.JSON(http.StatusOK, run)
}

// GetRunEvents retrieves events for a run.
// GET /api/chat/runs/:run_id/events
func (h *Handler) GetRunEvents(c echo.Context) error {
	runID := c.Param("run_id")
	limit := 100
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}
	afterTs := int64(0)
	if t := c.QueryParam("after_ts"); t != "" {
		if val, err := strconv.ParseInt(t, 10, 64); err == nil {
			afterTs = val
		}
	}
	var types []string
	if t := c.QueryParam("types"); t != "" {
		types = strings.Split(t, ",")
	}

	events, err := h.service.GetRunEvents(c.Request().Context(), runID, afterTs, types, limit)
	if err != nil {
		return h.fail(c, err, "Failed to get run events")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

// ListModels lists the models of the configured endpoint.
// GET /api/models
func (h *Handler) ListModels(c echo.Context) error {
	models, err := h.service.ListModels(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"object": "list",
		"data":   models,
	})
}
