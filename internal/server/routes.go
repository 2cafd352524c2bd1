package server

import (
	"github.com/cinegraph/backend/internal/server/middleware"
	"github.com/cinegraph/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	// Unprefixed routes kept for existing frontends
	e.POST("/chat", routes.ChatHandler, middleware.AuthMiddleware)
	e.GET("/graph/json", routes.GraphHandler, middleware.AuthMiddleware)

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	apiRoutes.POST("/chat", routes.ChatHandler)
	apiRoutes.GET("/graph/json", routes.GraphHandler)
	apiRoutes.GET("/schema", routes.SchemaHandler)
	apiRoutes.POST("/centrality/refresh", routes.RefreshCentralityHandler)
}
