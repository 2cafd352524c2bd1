package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinegraph/backend/internal/server/middleware"
	"github.com/cinegraph/backend/pkg/logger"
	"github.com/cinegraph/backend/pkg/viz"
)

// GraphHandler returns the last visualization of a session, rendered again
// with current centrality scores.
func GraphHandler(c echo.Context) error {
	type graphParams struct {
		SessionID string `query:"session_id" validate:"omitempty,max=64"`
	}

	params := new(graphParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request params"})
	}

	cc := c.(*middleware.AppContext)
	key := cc.SessionKey(params.SessionID)
	if key == "" {
		return c.JSON(http.StatusOK, viz.Empty())
	}

	payload, err := cc.App.LastVisualization(c.Request().Context(), key)
	if err != nil {
		logger.Error("Failed to render graph", "session_id", key, "err", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"message": err.Error()})
	}
	return c.JSON(http.StatusOK, payload)
}
