package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"lifebridge/internal/domain"
)

// KafkaPublisher mirrors notifications onto a Kafka topic so external
// consumers (mobile push, SMS gateways) can react without polling the API.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RecordRetries(3),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

type notificationEvent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Message      string    `json:"message"`
	AllocationID string    `json:"allocationId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (p *KafkaPublisher) Publish(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(notificationEvent{
		ID:           n.ID,
		UserID:       n.UserID,
		Message:      n.Message,
		AllocationID: n.AllocationID,
		CreatedAt:    n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(n.UserID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce notification event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}
