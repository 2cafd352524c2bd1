package middleware

import (
	"context"
	"errors"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/labstack/echo/v4"

	"github.com/cinegraph/backend/internal/queue"
	"github.com/cinegraph/backend/pkg/ai"
	"github.com/cinegraph/backend/pkg/query"
	"github.com/cinegraph/backend/pkg/session"
	"github.com/cinegraph/backend/pkg/store"
	"github.com/cinegraph/backend/pkg/viz"
)

type AppUser struct {
	UserID string
}

// App holds the long-lived dependencies shared by all requests. Queue and
// Key are nil when no broker or identity provider is configured.
type App struct {
	Store    store.GraphStorage
	AiClient ai.GraphAIClient
	Query    *query.Client
	Sessions *session.Store
	Queue    queue.Channel
	Key      keyfunc.Keyfunc
	APIKey   string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

// LastVisualization renders the records stored for sessionID again. An
// unknown session yields an empty payload.
func (a *App) LastVisualization(ctx context.Context, sessionID string) (viz.Payload, error) {
	entry, err := a.Sessions.Get(sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return viz.Empty(), nil
	}
	if err != nil {
		return viz.Payload{}, err
	}
	return a.Query.Render(ctx, entry.Records)
}

// SessionKey picks the key results are stored under: the authenticated user
// if there is one, else the id the caller sent.
func (c *AppContext) SessionKey(requested string) string {
	if c.User != nil && c.User.UserID != "" {
		return c.User.UserID
	}
	return requested
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
