// Package publisher pushes system statistics to a Kafka topic for consumers
// such as a live dashboard.
package publisher

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
)

// EventPublisher is implemented by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

// StatsPublisher is a gateway stats sink backed by Kafka.
type StatsPublisher struct {
	producer EventPublisher
}

func New(producer EventPublisher) *StatsPublisher {
	return &StatsPublisher{producer: producer}
}

func (p *StatsPublisher) Name() string { return "kafka" }

func (p *StatsPublisher) Publish(ctx context.Context, stats proto.SystemStats) error {
	return p.producer.Publish(ctx, kafka.Event{Key: "system-stats", Value: stats})
}
