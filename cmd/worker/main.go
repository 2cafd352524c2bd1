package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinegraph/backend/internal/queue"
	"github.com/cinegraph/backend/internal/util"
	"github.com/cinegraph/backend/pkg/centrality"
	"github.com/cinegraph/backend/pkg/logger"
	"github.com/cinegraph/backend/pkg/logger/console"
	gs "github.com/cinegraph/backend/pkg/store/neo4j"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Format: util.GetEnvString("LOG_FORMAT", "text"),
	})
	logger.Init(consoleLogger)

	// graph store
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

	if util.GetEnvBool("CENTRALITY_ON_START", false) {
		start := time.Now()
		if _, err := centrality.Compute(ctx, graph, centrality.ComputeParams{}); err != nil {
			logger.Error("Initial centrality computation failed", "err", err)
		} else {
			logger.Info("Initial centrality computation done", "duration", time.Since(start).Round(time.Second))
		}
	}

	if !queue.Enabled() {
		logger.Info("No queue configured, exiting")
		return
	}

	// rabbitmq
	conn, err := queue.Dial(queue.ConnectionURL())
	if err != nil {
		logger.Fatal("Failed to connect to queue", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.CentralityQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	err = queue.Consume(ctx, conn, map[string]queue.HandlerFunc{
		queue.CentralityQueue: func(ctx context.Context, body []byte) error {
			_, err := queue.ProcessCentralityMessage(ctx, graph, ch, body)
			return err
		},
	})
	if err != nil {
		logger.Fatal("Consumer stopped", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}
