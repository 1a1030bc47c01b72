package producer

import (
	"context"

	"github.com/radieske/race-bet-platform/internal/shared/kafka"
	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

// KafkaPublisher publica eventos de corrida; a chave é o raceId, então os
// eventos de uma mesma corrida caem sempre na mesma partição e chegam em ordem
type KafkaPublisher struct {
	Writer *kafka.Writer
	Topic  string
}

func NewKafkaPublisher(w *kafka.Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e events.RaceEvent) error {
	return kafka.WriteJSON(ctx, p.Writer, e.RaceID, e)
}

func (p *KafkaPublisher) Close() error {
	return p.Writer.Close()
}
