package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/cinegraph/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// HandlerFunc processes one message body.
type HandlerFunc func(ctx context.Context, body []byte) error

// Consume delivers messages of every queue in handlers to its handler, one at
// a time across all queues, until ctx is done or a delivery channel closes.
// Failed messages go through HandleProcessingError.
func Consume(ctx context.Context, conn *amqp091.Connection, handlers map[string]HandlerFunc) error {
	consumerCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	type queuedMessage struct {
		msg       amqp091.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)
	closed := make(chan string, len(handlers))

	for queueName := range handlers {
		msgs, err := consumerCh.Consume(
			queueName,
			queueName+"_consumer",
			false, // autoAck
			false, // exclusive
			false, // noLocal
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("failed to consume %s: %w", queueName, err)
		}

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-msgs:
					if !ok {
						closed <- queueName
						return
					}
					select {
					case messageChan <- queuedMessage{msg: msg, queueName: queueName}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	logger.Info("[Queue] Listening for messages")
	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping message processor")
			return nil
		case name := <-closed:
			return fmt.Errorf("delivery channel of %s closed", name)
		case qm := <-messageChan:
			start := time.Now()
			logger.Info("[Queue] Received message", "queue", qm.queueName)

			if err := handlers[qm.queueName](ctx, qm.msg.Body); err != nil {
				logger.Error("[Queue] Error processing message", "queue", qm.queueName, "err", err)
				HandleProcessingError(consumerCh, qm.msg, qm.queueName)
				continue
			}
			if err := qm.msg.Ack(false); err != nil {
				logger.Error("[Queue] Failed to ack message", "err", err)
			}
			logger.Info("[Queue] Message processed", "queue", qm.queueName, "duration", time.Since(start).Round(time.Millisecond))
		}
	}
}
