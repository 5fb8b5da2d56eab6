package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"convergo/internal/dedup/models"
)

// Kafka publishes merge events to a topic, keyed by winner identifier so
// all hand-offs into one survivor land on the same partition in order.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka constructs a publisher for the given brokers and topic. The
// topic is assumed to be provisioned.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic}, nil
}

func (p *Kafka) Publish(ctx context.Context, event models.MergeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal merge event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.WinnerID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce merge event: %w", err)
	}
	return nil
}

func (p *Kafka) Close() error {
	p.client.Close()
	return nil
}
