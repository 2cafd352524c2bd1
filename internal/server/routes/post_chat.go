package routes

import (
	"errors"
	"net/http"
	"strings"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/cinegraph/backend/internal/server/middleware"
	"github.com/cinegraph/backend/pkg/ai"
	"github.com/cinegraph/backend/pkg/logger"
	"github.com/cinegraph/backend/pkg/query"
	"github.com/cinegraph/backend/pkg/session"
	"github.com/cinegraph/backend/pkg/viz"
)

type chatTurn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

type chatBody struct {
	Message   string     `json:"message" validate:"required"`
	History   []chatTurn `json:"history" validate:"max=50"`
	SessionID string     `json:"session_id" validate:"omitempty,max=64"`
}

type chatResponse struct {
	Nodes             []viz.Node               `json:"nodes"`
	Links             []viz.Link               `json:"links"`
	Query             string                   `json:"query"`
	CorrectedQuestion string                   `json:"corrected_question"`
	SessionID         string                   `json:"session_id"`
	Metrics           ai.ModelMetrics          `json:"metrics"`
	Trace             query.QueryTraceSnapshot `json:"trace"`
}

type chatError struct {
	Message string      `json:"message"`
	Stage   query.Stage `json:"stage,omitempty"`
}

// historyMessages turns {user, bot} pairs into alternating turns, oldest
// first. Empty halves are left out.
func historyMessages(turns []chatTurn) []ai.ChatMessage {
	msgs := make([]ai.ChatMessage, 0, len(turns)*2)
	for _, t := range turns {
		if u := strings.TrimSpace(t.User); u != "" {
			msgs = append(msgs, ai.ChatMessage{Role: ai.RoleUser, Message: u})
		}
		if b := strings.TrimSpace(t.Bot); b != "" {
			msgs = append(msgs, ai.ChatMessage{Role: ai.RoleAssistant, Message: b})
		}
	}
	return msgs
}

// ChatHandler answers one question and stores the records under the
// caller's session.
func ChatHandler(c echo.Context) error {
	data := new(chatBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, chatError{Message: "Invalid request body"})
	}
	data.Message = strings.TrimSpace(data.Message)
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, chatError{Message: "Invalid request body"})
	}

	cc := c.(*middleware.AppContext)
	app := cc.App

	sessionID := cc.SessionKey(data.SessionID)
	if sessionID == "" {
		id, err := session.NewID()
		if err != nil {
			logger.Error("Failed to create session id", "err", err)
			return c.JSON(http.StatusInternalServerError, chatError{Message: "Internal server error"})
		}
		sessionID = id
	}

	ctx, recorder := ai.WithMetricsRecorder(c.Request().Context())
	trace := query.NewQueryTrace()

	res, err := app.Query.Answer(ctx, data.Message, historyMessages(data.History), query.WithRequestTracer(trace))
	if err != nil {
		var stageErr *query.StageError
		if errors.As(err, &stageErr) {
			logger.Error("Failed to answer question", "stage", stageErr.Stage, "err", stageErr.Err)
			return c.JSON(http.StatusBadGateway, chatError{
				Message: stageErr.Err.Error(),
				Stage:   stageErr.Stage,
			})
		}
		logger.Error("Failed to answer question", "err", err)
		return c.JSON(http.StatusInternalServerError, chatError{Message: "Internal server error"})
	}

	app.Sessions.Put(sessionID, session.Entry{
		Question:          res.Question,
		CorrectedQuestion: res.CorrectedQuestion,
		Query:             res.Query,
		Records:           res.Records,
	})

	return c.JSON(http.StatusOK, chatResponse{
		Nodes:             res.Payload.Nodes,
		Links:             res.Payload.Links,
		Query:             res.Query,
		CorrectedQuestion: res.CorrectedQuestion,
		SessionID:         sessionID,
		Metrics:           recorder.Snapshot(),
		Trace:             trace.Snapshot(),
	})
}
