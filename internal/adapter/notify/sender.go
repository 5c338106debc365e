package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaSender publishes messages as JSON, keyed by order number, for the
// mail service that consumes the topic.
type KafkaSender struct {
	writer *kafka.Writer
}

func NewKafkaSender(brokersCSV, topic string) *KafkaSender {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return &KafkaSender{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (k *KafkaSender) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.OrderNumber),
		Value: data,
		Time:  time.Now().UTC(),
	})
}

func (k *KafkaSender) Close() error {
	return k.writer.Close()
}

// LogSender writes messages to the log. Used when no broker is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{logger: log}
}

func (l *LogSender) Send(_ context.Context, msg Message) error {
	l.logger.Info("Notification",
		zap.String("kind", string(msg.Kind)),
		zap.String("to", msg.To),
		zap.String("order", msg.OrderNumber),
		zap.Stringer("total", msg.Total),
		zap.Int("lines", len(msg.Lines)))
	return nil
}
