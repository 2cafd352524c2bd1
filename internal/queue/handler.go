package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cinegraph/backend/pkg/centrality"
	"github.com/cinegraph/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// MaxRetries is how often a failed message goes through _retry before it is
// parked in _dlq.
const MaxRetries = 10

// ProcessCentralityMessage runs the job in body and announces the result on
// TopicCentralityCompleted. A failed announcement is logged, not returned.
func ProcessCentralityMessage(
	ctx context.Context,
	computer centrality.Computer,
	ch Channel,
	body []byte,
) (centrality.Report, error) {
	msg, err := ParseCentralityMsg(body)
	if err != nil {
		return centrality.Report{}, err
	}

	logger.Info("[Queue] Computing centrality", "correlation_id", msg.CorrelationID, "algorithms", msg.Algorithms)
	start := time.Now()
	report, err := centrality.Compute(ctx, computer, centrality.ComputeParams{
		Algorithms: msg.Algorithms,
		TopN:       msg.TopN,
	})

	done := QueueCentralityDoneMsg{
		CorrelationID: msg.CorrelationID,
		Runs:          report.Runs,
		DurationMs:    time.Since(start).Milliseconds(),
	}
	if err != nil {
		done.Error = err.Error()
	}
	announce(ch, done)

	if err != nil {
		return report, fmt.Errorf("failed to compute centrality: %w", err)
	}
	return report, nil
}

func announce(ch Channel, done QueueCentralityDoneMsg) {
	if ch == nil {
		return
	}
	data, err := json.Marshal(done)
	if err != nil {
		logger.Warn("[Queue] Failed to marshal completion", "correlation_id", done.CorrelationID, "err", err)
		return
	}
	if err := PublishTopic(ch, TopicCentralityCompleted, data); err != nil {
		logger.Warn("[Queue] Failed to publish completion", "correlation_id", done.CorrelationID, "err", err)
	}
}

// RetryCount reads the x-retries header. The broker may hand integers back
// with a different width than they were published with.
func RetryCount(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int16:
		return int(v)
	case int8:
		return int(v)
	}
	return 0
}

// HandleProcessingError moves a failed delivery to queueName_retry, or to
// queueName_dlq once MaxRetries is reached, and acks the original. If the
// move fails the delivery is requeued.
func HandleProcessingError(ch Channel, msg amqp091.Delivery, queueName string) {
	retries := RetryCount(msg.Headers)

	target := queueName + "_retry"
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	if retries >= MaxRetries {
		target = queueName + "_dlq"
		logger.Info("[Queue] Sending message to DLQ", "dlq", target)
	} else {
		headers["x-retries"] = int32(retries + 1)
	}

	pubErr := ch.Publish(
		"",
		target,
		false,
		false,
		amqp091.Publishing{
			ContentType:  msg.ContentType,
			Body:         msg.Body,
			Headers:      headers,
			DeliveryMode: amqp091.Persistent,
		},
	)
	if pubErr != nil {
		logger.Error("[Queue] Failed to move message", "queue", target, "err", pubErr)
		if err := msg.Nack(false, true); err != nil {
			logger.Error("[Queue] Failed to nack message", "err", err)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
}
