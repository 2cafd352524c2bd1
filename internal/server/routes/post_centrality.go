package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinegraph/backend/internal/queue"
	"github.com/cinegraph/backend/internal/server/middleware"
	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/logger"
)

// RefreshCentralityHandler enqueues a centrality computation for the worker.
func RefreshCentralityHandler(c echo.Context) error {
	type refreshBody struct {
		Algorithms []string `json:"algorithms" validate:"dive,oneof=eigenvector pagerank degree"`
		TopN       int      `json:"top_n" validate:"min=0,max=100"`
	}

	type refreshResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	if app.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, refreshResponse{Message: "No queue configured"})
	}

	data := new(refreshBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, refreshResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, refreshResponse{Message: "Invalid request body"})
	}

	algorithms := make([]common.CentralityAlgorithm, 0, len(data.Algorithms))
	for _, a := range data.Algorithms {
		algorithms = append(algorithms, common.CentralityAlgorithm(a))
	}

	msg, err := queue.NewCentralityMsg("Refresh requested", algorithms, data.TopN)
	if err != nil {
		logger.Error("Failed to create centrality job", "err", err)
		return c.JSON(http.StatusInternalServerError, refreshResponse{Message: "Internal server error"})
	}
	body, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal centrality job", "err", err)
		return c.JSON(http.StatusInternalServerError, refreshResponse{Message: "Internal server error"})
	}

	if err := queue.PublishFIFO(app.Queue, queue.CentralityQueue, body); err != nil {
		logger.Error("Failed to publish centrality job", "err", err)
		return c.JSON(http.StatusServiceUnavailable, refreshResponse{Message: "Failed to enqueue job"})
	}

	return c.JSON(http.StatusAccepted, refreshResponse{
		Message:       "Centrality computation queued",
		CorrelationID: msg.CorrelationID,
	})
}
