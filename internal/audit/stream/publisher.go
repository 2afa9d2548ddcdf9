// Package stream publishes appended ledger entries to Kafka so downstream
// consumers (SIEM, warehouses) get the trail without polling the store.
// Publishing is strictly best-effort: the ledger's Append already succeeded
// by the time an entry reaches this package, and a full buffer drops the
// entry rather than blocking request handling.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"peopleops/internal/audit"
)

type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	inbox  chan *audit.Entry
	done   chan struct{}
}

// New connects to the brokers and starts the publish loop. Returns nil if
// no brokers are configured (streaming disabled).
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
	p := &Publisher{
		client: client,
		topic:  topic,
		logger: logger,
		inbox:  make(chan *audit.Entry, 1024),
		done:   make(chan struct{}),
	}
	go p.run()
	return p, nil
}

// Publish enqueues the entry for streaming. Never blocks; drops on a full
// buffer and logs the drop.
func (p *Publisher) Publish(entry *audit.Entry) {
	select {
	case p.inbox <- entry:
	default:
		p.logger.Warn("audit stream buffer full, dropping entry",
			"entry_id", entry.ID.String(),
			"action", entry.Action,
		)
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for entry := range p.inbox {
		payload, err := json.Marshal(entry)
		if err != nil {
			p.logger.Error("failed to marshal audit entry for stream", "error", err)
			continue
		}
		record := &kgo.Record{
			Topic: p.topic,
			Key:   []byte(entry.TenantID),
			Value: payload,
		}
		p.client.Produce(context.Background(), record, func(_ *kgo.Record, err error) {
			if err != nil {
				p.logger.Warn("audit stream produce failed",
					"entry_id", entry.ID.String(),
					"error", err,
				)
			}
		})
	}
}

// Close drains the inbox and releases the client.
func (p *Publisher) Close() {
	close(p.inbox)
	<-p.done
	p.client.Close()
}
