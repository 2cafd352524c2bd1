package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinegraph/backend/internal/server/middleware"
	"github.com/cinegraph/backend/pkg/logger"
)

func SchemaHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	schema, err := app.Store.Schema(c.Request().Context())
	if err != nil {
		logger.Error("Failed to load schema", "err", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"message": "Failed to load schema"})
	}
	return c.JSON(http.StatusOK, map[string]string{"schema": schema})
}
