package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

// Publisher writes payment events to Kafka, one topic per event kind.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:        kafka.TCP(brokers...),
			Balancer:    &kafka.LeastBytes{},
			Compression: kafka.Lz4,
		},
	}
}

func (p *Publisher) Publish(topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(
		context.Background(),
		kafka.Message{
			Topic: topic,
			Value: data,
		},
	)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
