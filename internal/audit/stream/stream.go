// Package stream mirrors task events onto a Kafka topic for downstream
// consumers. The mirror is best-effort and optional: it is only wired when
// brokers are configured, and a failed produce never affects the mutation or
// the history write.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"taskhub/internal/events"
)

// Mirror publishes each bus event as a JSON record keyed by task id, so all
// events for a task land in the same partition, in order.
type Mirror struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type message struct {
	TaskID        string    `json:"taskId"`
	EventName     string    `json:"eventName"`
	PreviousState string    `json:"previousState,omitempty"`
	NewState      string    `json:"newState,omitempty"`
	Author        string    `json:"author"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// NewMirror connects to the given brokers and returns a bus listener.
func NewMirror(brokers []string, topic string, logger *slog.Logger) (*Mirror, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}
	return &Mirror{client: client, topic: topic, logger: logger}, nil
}

// HandleEvent produces the event asynchronously. Produce failures are logged
// and dropped.
func (m *Mirror) HandleEvent(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(message{
		TaskID:        event.TaskID.String(),
		EventName:     event.Name,
		PreviousState: event.PreviousState,
		NewState:      event.NewState,
		Author:        event.AuthorID.String(),
		OccurredAt:    event.OccurredAt,
	})
	if err != nil {
		return err
	}

	record := &kgo.Record{
		Key:   []byte(event.TaskID.String()),
		Value: payload,
	}
	m.client.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		if err != nil {
			m.logger.Error("event stream produce failed",
				"task_id", event.TaskID,
				"event", event.Name,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes buffered records and releases the client.
func (m *Mirror) Close(ctx context.Context) error {
	defer m.client.Close()
	return m.client.Flush(ctx)
}
