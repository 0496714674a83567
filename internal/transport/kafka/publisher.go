// Package kafka публикует сообщения в kafka через синхронный продюсер sarama.
package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
)

const defaultRetryMax = 3

// NewSyncProducer создает продюсер, ожидающий подтверждения от всех реплик.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	conf := sarama.NewConfig()
	conf.Producer.RequiredAcks = sarama.WaitForAll
	conf.Producer.Retry.Max = defaultRetryMax
	conf.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, conf)
	if err != nil {
		return nil, fmt.Errorf("[kafka] create sync producer: %w", err)
	}
	return producer, nil
}

type Publisher struct {
	producer sarama.SyncProducer
}

func NewPublisher(producer sarama.SyncProducer) *Publisher {
	return &Publisher{producer: producer}
}

// Publish отправляет сообщение и ждет подтверждения брокера. Отмена ctx проверяется только перед отправкой,
// sarama не поддерживает прерывание синхронной отправки.
func (p *Publisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("[kafka] publish to `%s`: %w", topic, err)
	}
	_, _, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("[kafka] publish to `%s`: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("[kafka] close producer: %w", err)
	}
	return nil
}
