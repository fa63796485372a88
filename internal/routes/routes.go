package routes

import (
	"net/http"

	"coachhub_backend/internal/handlers"
	"coachhub_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Setup mounts middleware and every route group on the engine.
func Setup(engine *gin.Engine, h *handlers.Registry) {
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.LoggingMiddleware())
	engine.Use(middleware.CORSMiddleware())
	engine.Use(gin.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Endpoints the web client invokes directly.
	functions := engine.Group("/functions/v1")
	h.Subscription.RegisterFunctionRoutes(functions)

	api := engine.Group("/api/v1")
	h.Auth.RegisterRoutes(api)
	h.Course.RegisterRoutes(api)
	h.Enrollment.RegisterRoutes(api)
	h.Subscription.RegisterRoutes(api)
	h.Notification.RegisterRoutes(api)
}
