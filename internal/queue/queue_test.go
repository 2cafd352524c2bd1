package queue

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/cinegraph/backend/pkg/common"

	"github.com/rabbitmq/amqp091-go"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	queues     map[string]amqp091.Table
	exchanges  []string
	published  []published
	publishErr error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{queues: map[string]amqp091.Table{}}
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error) {
	f.queues[name] = args
	return amqp091.Queue{Name: name}, nil
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	f.exchanges = append(f.exchanges, name)
	return nil
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

type fakeAcknowledger struct {
	acks    int
	nacks   int
	requeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acks++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacks++
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return nil
}

type stubComputer struct {
	err  error
	runs []common.CentralityAlgorithm
}

func (s *stubComputer) ComputeCentrality(ctx context.Context, algo common.CentralityAlgorithm) (common.CentralityRun, error) {
	s.runs = append(s.runs, algo)
	if s.err != nil {
		return common.CentralityRun{}, s.err
	}
	return common.CentralityRun{Algorithm: algo, PropertiesWritten: 3}, nil
}

func (s *stubComputer) TopByCentrality(ctx context.Context, kind common.EntityKind, algo common.CentralityAlgorithm, limit int) ([]common.RankedEntity, error) {
	return nil, nil
}

func (s *stubComputer) SummarizeCentrality(ctx context.Context, kind common.EntityKind, algo common.CentralityAlgorithm) (common.ScoreSummary, error) {
	return common.ScoreSummary{}, nil
}

func TestSetupQueues_DeclaresCompanions(t *testing.T) {
	ch := newFakeChannel()
	if err := SetupQueues(ch, []string{CentralityQueue}); err != nil {
		t.Fatalf("SetupQueues() error = %v", err)
	}

	for _, name := range []string{CentralityQueue, CentralityQueue + "_retry", CentralityQueue + "_dlq"} {
		if _, ok := ch.queues[name]; !ok {
			t.Fatalf("SetupQueues() did not declare %s", name)
		}
	}
	retry := ch.queues[CentralityQueue+"_retry"]
	if retry["x-dead-letter-routing-key"] != CentralityQueue {
		t.Fatalf("retry queue routes to %v, want %s", retry["x-dead-letter-routing-key"], CentralityQueue)
	}
	if !reflect.DeepEqual(ch.exchanges, []string{EventExchange}) {
		t.Fatalf("SetupQueues() exchanges = %v", ch.exchanges)
	}
}

func TestParseCentralityMsg(t *testing.T) {
	msg, err := NewCentralityMsg("refresh", []common.CentralityAlgorithm{common.AlgorithmPageRank}, 5)
	if err != nil {
		t.Fatalf("NewCentralityMsg() error = %v", err)
	}
	if msg.CorrelationID == "" {
		t.Fatalf("NewCentralityMsg() has no correlation id")
	}
	body, _ := json.Marshal(msg)

	got, err := ParseCentralityMsg(body)
	if err != nil {
		t.Fatalf("ParseCentralityMsg() error = %v", err)
	}
	if got.CorrelationID != msg.CorrelationID || got.TopN != 5 || len(got.Algorithms) != 1 {
		t.Fatalf("ParseCentralityMsg() = %+v, want %+v", got, msg)
	}

	if _, err := ParseCentralityMsg([]byte(`{"algorithms": ["betweenness"]}`)); err == nil {
		t.Fatalf("ParseCentralityMsg() accepted unknown algorithm")
	}
	if _, err := ParseCentralityMsg([]byte(`not json`)); err == nil {
		t.Fatalf("ParseCentralityMsg() accepted invalid json")
	}
}

func TestProcessCentralityMessage_AnnouncesResult(t *testing.T) {
	ch := newFakeChannel()
	computer := &stubComputer{}

	report, err := ProcessCentralityMessage(context.Background(), computer, ch, []byte(`{"correlation_id": "abc"}`))
	if err != nil {
		t.Fatalf("ProcessCentralityMessage() error = %v", err)
	}
	if !reflect.DeepEqual(computer.runs, common.AllCentralityAlgorithms) {
		t.Fatalf("computed %v, want all algorithms", computer.runs)
	}
	if len(report.Runs) != 3 {
		t.Fatalf("report runs = %d, want 3", len(report.Runs))
	}

	if len(ch.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(ch.published))
	}
	p := ch.published[0]
	if p.exchange != EventExchange || p.key != TopicCentralityCompleted {
		t.Fatalf("published to %s/%s", p.exchange, p.key)
	}
	var done QueueCentralityDoneMsg
	if err := json.Unmarshal(p.msg.Body, &done); err != nil {
		t.Fatalf("completion is not json: %v", err)
	}
	if done.CorrelationID != "abc" || done.Error != "" || len(done.Runs) != 3 {
		t.Fatalf("completion = %+v", done)
	}
}

func TestProcessCentralityMessage_Failure(t *testing.T) {
	boom := errors.New("gds not installed")
	ch := newFakeChannel()

	_, err := ProcessCentralityMessage(context.Background(), &stubComputer{err: boom}, ch, []byte(`{}`))
	if !errors.Is(err, boom) {
		t.Fatalf("ProcessCentralityMessage() error = %v, want %v", err, boom)
	}

	var done QueueCentralityDoneMsg
	_ = json.Unmarshal(ch.published[0].msg.Body, &done)
	if done.Error == "" {
		t.Fatalf("completion does not report the failure")
	}
}

func TestRetryCount(t *testing.T) {
	tests := []struct {
		name    string
		headers amqp091.Table
		want    int
	}{
		{name: "missing", headers: nil, want: 0},
		{name: "int32", headers: amqp091.Table{"x-retries": int32(3)}, want: 3},
		{name: "int64", headers: amqp091.Table{"x-retries": int64(4)}, want: 4},
		{name: "int", headers: amqp091.Table{"x-retries": 5}, want: 5},
		{name: "string", headers: amqp091.Table{"x-retries": "6"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RetryCount(tt.headers); got != tt.want {
				t.Fatalf("RetryCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHandleProcessingError(t *testing.T) {
	tests := []struct {
		name        string
		retries     int32
		publishErr  error
		wantTarget  string
		wantRetries any
		wantAcks    int
		wantNacks   int
	}{
		{name: "retry", retries: 2, wantTarget: CentralityQueue + "_retry", wantRetries: int32(3), wantAcks: 1},
		{name: "dead letter", retries: MaxRetries, wantTarget: CentralityQueue + "_dlq", wantRetries: int32(MaxRetries), wantAcks: 1},
		{name: "publish fails", retries: 0, publishErr: errors.New("closed"), wantNacks: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := newFakeChannel()
			ch.publishErr = tt.publishErr
			ack := &fakeAcknowledger{}
			msg := amqp091.Delivery{
				Acknowledger: ack,
				Headers:      amqp091.Table{"x-retries": tt.retries},
				Body:         []byte(`{}`),
			}

			HandleProcessingError(ch, msg, CentralityQueue)

			if ack.acks != tt.wantAcks || ack.nacks != tt.wantNacks {
				t.Fatalf("acks = %d, nacks = %d, want %d, %d", ack.acks, ack.nacks, tt.wantAcks, tt.wantNacks)
			}
			if tt.publishErr != nil {
				if !ack.requeue {
					t.Fatalf("failed move must requeue")
				}
				return
			}
			p := ch.published[0]
			if p.key != tt.wantTarget {
				t.Fatalf("moved to %s, want %s", p.key, tt.wantTarget)
			}
			if p.msg.Headers["x-retries"] != tt.wantRetries {
				t.Fatalf("x-retries = %v, want %v", p.msg.Headers["x-retries"], tt.wantRetries)
			}
			if msg.Headers["x-retries"] != tt.retries {
				t.Fatalf("original headers modified")
			}
		})
	}
}
