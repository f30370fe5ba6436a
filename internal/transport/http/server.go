// Package http provides the HTTP server implementation for learnchat.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/learnchat/internal/live"
	"github.com/xiaot623/learnchat/internal/logger"
	"github.com/xiaot623/learnchat/internal/service"
	v1 "github.com/xiaot623/learnchat/internal/transport/http/v1"
	"github.com/xiaot623/learnchat/internal/transport/ws"
)

// NewServer creates the echo server with every API route, the live course
// streams and the static uploads directory.
func NewServer(svc *service.Service, registry *live.Registry, log *logger.Logger) *echo.Echo {
	if log == nil {
		log = logger.Nop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(requestLogger(log.With("component", "http")))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc, registry, log)
	wsHandler := ws.NewHandler(svc, registry, log)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	wsHandler.RegisterRoutes(e)

	e.Static("/uploads", svc.UploadsDir())

	return e
}

func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			kv := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latencyMs", v.Latency.Milliseconds(),
				"remoteIP", v.RemoteIP,
			}
			if runID := c.Response().Header().Get(v1.HeaderRunID); runID != "" {
				kv = append(kv, "runID", runID)
			}
			if v.Error != nil {
				log.Error("request failed", append(kv, "error", v.Error)...)
				return nil
			}
			log.Info("request", kv...)
			return nil
		},
	})
}
