package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/bookingadmin/config"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AuditHandler receives each decoded audit event.
type AuditHandler func(ctx context.Context, event AuditEvent) error

// Consumer reads the audit topic. An offset is committed only after the
// handler accepted the event, so a failing handler sees it again after a
// restart. Undecodable messages are committed and skipped.
type Consumer struct {
	reader messageReader
	log    *logrus.Entry
}

func NewConsumer(cfg config.KafkaConfig, log *logrus.Entry) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           cfg.Brokers,
			GroupID:           cfg.GroupID,
			Topic:             cfg.AuditTopic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log: log,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume feeds audit events to handler until ctx is done or handler fails.
func (c *Consumer) Consume(ctx context.Context, handler AuditHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		event, err := DecodeAuditEvent(msg)
		if err != nil {
			c.log.WithFields(logrus.Fields{"partition": msg.Partition, "offset": msg.Offset, "error": err}).Warn("skipping undecodable audit event")
		} else if err := handler(ctx, event); err != nil {
			return fmt.Errorf("handle audit event at offset %d: %w", msg.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

// DecodeAuditEvent parses a message written by Producer.
func DecodeAuditEvent(msg kafka.Message) (AuditEvent, error) {
	var event AuditEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return AuditEvent{}, fmt.Errorf("decode audit event at offset %d: %w", msg.Offset, err)
	}
	if event.Type == "" {
		return AuditEvent{}, fmt.Errorf("decode audit event at offset %d: missing type", msg.Offset)
	}
	return event, nil
}
