package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/encorefm/encore/internal/config"
	"github.com/encorefm/encore/pkg/models"
)

// MessageBus publishes listening activity to Kafka for downstream consumers
// (analytics, trending aggregation). Publishing is best effort: a broker
// outage is logged and swallowed, it never fails the originating request.
// With no brokers configured the bus runs disabled and every publish is a
// debug-logged no-op.
type MessageBus struct {
	playWriter *kafka.Writer
	likeWriter *kafka.Writer
	logger     *logrus.Logger
}

func NewMessageBus(cfg *config.Config, logger *logrus.Logger) (*MessageBus, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("No Kafka brokers configured, event publishing disabled")
		return &MessageBus{logger: logger}, nil
	}

	playWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topics.PlayEvents,
		Balancer:     &kafka.Hash{}, // key by listener so one listener's events stay ordered
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	likeWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topics.LikeEvents,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	return &MessageBus{
		playWriter: playWriter,
		likeWriter: likeWriter,
		logger:     logger,
	}, nil
}

func (mb *MessageBus) PublishPlayEvent(event models.PlayEvent) {
	if mb.playWriter == nil {
		mb.logger.WithField("track_id", event.TrackID).Debug("Event publishing disabled, dropping play event")
		return
	}
	mb.publish(mb.playWriter, event.ListenerID.String(), event, "play event")
}

func (mb *MessageBus) PublishLikeEvent(event models.LikeEvent) {
	if mb.likeWriter == nil {
		mb.logger.WithField("track_id", event.TrackID).Debug("Event publishing disabled, dropping like event")
		return
	}
	mb.publish(mb.likeWriter, event.ListenerID.String(), event, "like event")
}

func (mb *MessageBus) publish(writer *kafka.Writer, key string, event any, kind string) {
	payload, err := json.Marshal(event)
	if err != nil {
		mb.logger.WithError(err).Errorf("Failed to marshal %s", kind)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	message := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "timestamp", Value: []byte(time.Now().Format(time.RFC3339))},
		},
	}

	if err := writer.WriteMessages(ctx, message); err != nil {
		mb.logger.WithError(err).WithFields(logrus.Fields{
			"topic": writer.Topic,
		}).Warnf("Failed to publish %s", kind)
		return
	}

	mb.logger.WithField("topic", writer.Topic).Debugf("Published %s", kind)
}

func (mb *MessageBus) Close() error {
	var errs []error

	if mb.playWriter != nil {
		if err := mb.playWriter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close play writer: %w", err))
		}
	}
	if mb.likeWriter != nil {
		if err := mb.likeWriter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close like writer: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing message bus: %v", errs)
	}
	return nil
}
