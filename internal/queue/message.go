package queue

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/cinegraph/backend/pkg/common"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// TopicCentralityCompleted is published after a centrality job finished.
const TopicCentralityCompleted = "centrality.completed"

type QueueCentralityMsg struct {
	Message       string                       `json:"message"`
	CorrelationID string                       `json:"correlation_id"`
	Algorithms    []common.CentralityAlgorithm `json:"algorithms,omitempty"`
	TopN          int                          `json:"top_n,omitempty"`
	RequestedAt   time.Time                    `json:"requested_at"`
}

// NewCentralityMsg creates a job message with a fresh correlation id.
func NewCentralityMsg(message string, algorithms []common.CentralityAlgorithm, topN int) (QueueCentralityMsg, error) {
	id, err := gonanoid.New()
	if err != nil {
		return QueueCentralityMsg{}, err
	}
	return QueueCentralityMsg{
		Message:       message,
		CorrelationID: id,
		Algorithms:    algorithms,
		TopN:          topN,
		RequestedAt:   time.Now().UTC(),
	}, nil
}

// ParseCentralityMsg decodes body and rejects unknown algorithms.
func ParseCentralityMsg(body []byte) (QueueCentralityMsg, error) {
	var msg QueueCentralityMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return QueueCentralityMsg{}, fmt.Errorf("invalid centrality message: %w", err)
	}
	for _, algo := range msg.Algorithms {
		if !slices.Contains(common.AllCentralityAlgorithms, algo) {
			return QueueCentralityMsg{}, fmt.Errorf("invalid centrality message: unknown algorithm %q", algo)
		}
	}
	return msg, nil
}

type QueueCentralityDoneMsg struct {
	CorrelationID string                 `json:"correlation_id"`
	Runs          []common.CentralityRun `json:"runs"`
	DurationMs    int64                  `json:"duration_ms"`
	Error         string                 `json:"error,omitempty"`
}
