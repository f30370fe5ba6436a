// Package ws serves live course updates over WebSocket.
package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/learnchat/internal/live"
	"github.com/xiaot623/learnchat/internal/logger"
	"github.com/xiaot623/learnchat/internal/service"
)

const (
	writeTimeout   = 10 * time.Second
	readTimeout    = 60 * time.Second
	pingInterval   = (readTimeout * 9) / 10
	maxMessageSize = 512
)

// Handler upgrades live course requests to WebSocket connections. Every text
// message sent to the client is the full course document.
type Handler struct {
	service  *service.Service
	live     *live.Registry
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler.
func NewHandler(svc *service.Service, registry *live.Registry, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		service: svc,
		live:    registry,
		logger:  log.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the WebSocket routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/live-courses/:courseId/ws", h.LiveCourse)
}

// LiveCourse handles GET /api/live-courses/:courseId/ws.
func (h *Handler) LiveCourse(c echo.Context) error {
	courseID := c.Param("courseId")
	path, err := h.service.CoursePath(courseID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid course id"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("failed to upgrade websocket", "courseID", courseID, "error", err)
		return nil
	}
	defer conn.Close()

	sub := h.live.Subscribe(path)
	defer h.live.Unsubscribe(sub)
	log := h.logger.With("courseID", courseID, "subscriber", sub.ID)
	log.Debug("live course websocket connected")

	closed := make(chan struct{})
	go readPump(conn, closed, log)
	writePump(conn, sub, closed, log)
	return nil
}

// readPump only processes control frames; it closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}, log *logger.Logger) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn("websocket read failed", "error", err)
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, sub *live.Subscription, closed <-chan struct{}, log *logger.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			log.Debug("live course websocket disconnected")
			return

		case payload, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
