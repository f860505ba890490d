package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/deusflow/linea/internal/news"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka emits one message per article, keyed by link, with the run id in a header.
type Kafka struct {
	w     messageWriter
	topic string
	log   *slog.Logger
	now   func() time.Time
}

func NewKafka(brokers []string, topic string, log *slog.Logger) *Kafka {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     brokers,
		Topic:       topic,
		MaxAttempts: 3,
		Balancer:    &kafka.Hash{},
	})
	return newKafka(w, topic, log)
}

func newKafka(w messageWriter, topic string, log *slog.Logger) *Kafka {
	if log == nil {
		log = slog.Default()
	}
	return &Kafka{w: w, topic: topic, log: log, now: time.Now}
}

func (k *Kafka) Publish(ctx context.Context, runID string, articles []news.Article) error {
	if len(articles) == 0 {
		return nil
	}
	now := k.now().UTC()
	msgs := make([]kafka.Message, 0, len(articles))
	for i, a := range articles {
		value, err := json.Marshal(newDocument(runID, i+1, a, now))
		if err != nil {
			return fmt.Errorf("marshal article: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(a.Link),
			Value: value,
			Headers: []kafka.Header{
				{Key: "run_id", Value: []byte(runID)},
			},
		})
	}
	if err := k.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write to %s: %w", k.topic, err)
	}
	k.log.Debug("published articles", slog.String("topic", k.topic), slog.Int("count", len(msgs)))
	return nil
}

func (k *Kafka) Close() error { return k.w.Close() }
