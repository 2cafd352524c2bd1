package server

import (
	"context"
	"fmt"

	"github.com/cinegraph/backend/internal/queue"
	mid "github.com/cinegraph/backend/internal/server/middleware"
	"github.com/cinegraph/backend/internal/util"
	"github.com/cinegraph/backend/pkg/ai"
	oai "github.com/cinegraph/backend/pkg/ai/ollama"
	gai "github.com/cinegraph/backend/pkg/ai/openai"
	"github.com/cinegraph/backend/pkg/entity"
	"github.com/cinegraph/backend/pkg/query"
	"github.com/cinegraph/backend/pkg/session"
	"github.com/cinegraph/backend/pkg/store"

	"github.com/MicahParks/keyfunc/v3"
)

// NewAIClient creates the model client selected by AI_ADAPTER.
func NewAIClient() (ai.GraphAIClient, error) {
	switch util.GetEnv("AI_ADAPTER") {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			Model:   util.GetEnv("AI_CHAT_QUERY_MODEL"),
			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return client, nil
	default:
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			Model:   util.GetEnv("AI_CHAT_QUERY_MODEL"),
			ChatURL: util.GetEnv("AI_CHAT_URL"),
			ChatKey: util.GetEnv("AI_CHAT_KEY"),
		}), nil
	}
}

// matchThreshold reads ENTITY_MATCH_THRESHOLD. Unset leaves the resolver
// default in place; an explicit 0 is kept.
func matchThreshold() *float64 {
	if util.GetEnv("ENTITY_MATCH_THRESHOLD") == "" {
		return nil
	}
	v := util.GetEnvNumeric("ENTITY_MATCH_THRESHOLD", entity.DefaultThreshold)
	return &v
}

// NewApp wires the request dependencies from the environment. ch may be nil
// when no broker is configured.
func NewApp(ctx context.Context, graph store.GraphStorage, aiClient ai.GraphAIClient, ch queue.Channel) (*mid.App, error) {
	sessions, err := session.NewStore(util.GetEnvInt("SESSION_MAX", session.DefaultMaxSessions))
	if err != nil {
		return nil, err
	}

	var opts []query.ClientOption
	if util.GetEnvBool("DEBUG", false) {
		opts = append(opts, query.WithTracer(query.LogTracer{}))
	}

	client := query.NewClient(query.NewClientParams{
		Generator:      aiClient,
		Store:          graph,
		ExtractModel:   util.GetEnv("AI_CHAT_EXTRACT_MODEL"),
		QueryModel:     util.GetEnv("AI_CHAT_QUERY_MODEL"),
		ResultLimit:    util.GetEnvInt("QUERY_RESULT_LIMIT", 0),
		MatchThreshold: matchThreshold(),
		PersonIndex:    util.GetEnv("PERSON_INDEX"),
		MovieIndex:     util.GetEnv("MOVIE_INDEX"),
	}, opts...)

	app := &mid.App{
		Store:    graph,
		AiClient: aiClient,
		Query:    client,
		Sessions: sessions,
		Queue:    ch,
		APIKey:   util.GetEnv("API_KEY"),
	}

	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefaultCtx(ctx, []string{authURL + "/jwks"})
		if err != nil {
			return nil, fmt.Errorf("failed to load jwks keys: %w", err)
		}
		app.Key = k
	}
	return app, nil
}
