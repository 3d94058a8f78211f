// Package eventsvc delivers fee audit events to Kafka. Delivery is
// best-effort; the fees service logs and moves on when a publish fails.
package eventsvc

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/fees"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

var _ fees.Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(conf *core.Config) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(conf.Kafka.Brokers...),
			Topic:    conf.Kafka.Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *KafkaPublisher) PublishFeeEvent(ctx context.Context, ev fees.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encoding fee event")
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.StudentID),
		Value: data,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
