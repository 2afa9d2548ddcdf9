// Package stream mirrors dispatched notifications onto Kafka so delivery
// channels (mail relays, websocket fanout) can consume them without
// touching the store. Best-effort, like the audit stream.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"peopleops/internal/notification"
)

type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the brokers. Returns nil if no brokers are configured
// (streaming disabled).
func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// PublishNotification produces asynchronously; failures are logged, never
// surfaced to the dispatch path.
func (p *Publisher) PublishNotification(n *notification.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		p.logger.Error("failed to marshal notification for stream", "error", err)
		return
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(n.TenantID),
		Value: payload,
	}
	p.client.Produce(context.Background(), record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("notification stream produce failed",
				"notification_id", n.ID.String(),
				"error", err,
			)
		}
	})
}

// Close releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
