package storage

import (
	"context"
	"encoding/json"

	"coffee-menu/internal/domain"
	"coffee-menu/internal/service"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	Writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: writer}
}

func (p *KafkaPublisher) PublishMenuEvent(ctx context.Context, event domain.MenuEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ItemID),
		Value: payload,
	})
}

var _ service.MenuPublisher = (*KafkaPublisher)(nil)
