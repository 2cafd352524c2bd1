package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinegraph/backend/internal/queue"
	"github.com/cinegraph/backend/internal/server"
	"github.com/cinegraph/backend/internal/util"
	"github.com/cinegraph/backend/pkg/logger"
	"github.com/cinegraph/backend/pkg/logger/console"
	gs "github.com/cinegraph/backend/pkg/store/neo4j"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Format: util.GetEnvString("LOG_FORMAT", "text"),
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var graph *gs.GraphDBStorage
	err := util.RetryErrWithContext(ctx, 10, 3*time.Second, func(ctx context.Context) error {
		var err error
		graph, err = gs.NewGraphDBStorage(ctx, gs.NewGraphDBStorageParams{
			URI:      util.GetEnvString("NEO4J_URI", "neo4j://localhost:7687"),
			Username: util.GetEnvString("NEO4J_USERNAME", "neo4j"),
			Password: util.GetEnv("NEO4J_PASSWORD"),
			Database: util.GetEnv("NEO4J_DATABASE"),
		})
		if err != nil {
			logger.Warn("Graph store not reachable yet", "err", err)
		}
		return err
	})
	if err != nil {
		logger.Fatal("Failed to connect to graph store", "err", err)
	}
	defer graph.Close(context.Background())

	aiClient, err := server.NewAIClient()
	if err != nil {
		logger.Fatal("Failed to create AI client", "err", err)
	}

	var ch queue.Channel
	if queue.Enabled() {
		conn, err := queue.Dial(queue.ConnectionURL())
		if err != nil {
			logger.Fatal("Failed to connect to queue", "err", err)
		}
		defer conn.Close()

		amqpCh, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer amqpCh.Close()

		if err := queue.SetupQueues(amqpCh, []string{queue.CentralityQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		ch = amqpCh
	} else {
		logger.Info("No queue configured, centrality refresh is disabled")
	}

	app, err := server.NewApp(ctx, graph, aiClient, ch)
	if err != nil {
		logger.Fatal("Failed to create app", "err", err)
	}

	port := util.GetEnvString("PORT", "8080")
	if err := server.Run(ctx, server.New(app), port); err != nil {
		logger.Fatal("Server stopped", "err", err)
	}
}
