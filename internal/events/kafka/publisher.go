package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"staffledger/backend/internal/domain"
)

const paymentRecordedTopic = "salary.payment_recorded"

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    paymentRecordedTopic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) PublishPaymentRecorded(event domain.PaymentRecordedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.StaffID),
		Value: data,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
