package messaging

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encorefm/encore/internal/config"
	"github.com/encorefm/encore/pkg/models"
)

func TestMessageBus_DisabledWithoutBrokers(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg := &config.Config{}
	bus, err := NewMessageBus(cfg, logger)
	require.NoError(t, err)

	// Publishing with no brokers is a silent no-op
	bus.PublishPlayEvent(models.PlayEvent{
		ListenerID: uuid.New(),
		TrackID:    uuid.New(),
		SessionID:  uuid.New(),
		Minutes:    2.5,
		Timestamp:  time.Now(),
	})
	bus.PublishLikeEvent(models.LikeEvent{
		ListenerID: uuid.New(),
		TrackID:    uuid.New(),
		Liked:      true,
		Timestamp:  time.Now(),
	})

	assert.NoError(t, bus.Close())
}

func TestMessageBus_WritersConfigured(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg := &config.Config{}
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.Topics.PlayEvents = "listening-events"
	cfg.Kafka.Topics.LikeEvents = "like-events"

	bus, err := NewMessageBus(cfg, logger)
	require.NoError(t, err)
	defer bus.Close()

	require.NotNil(t, bus.playWriter)
	require.NotNil(t, bus.likeWriter)
	assert.Equal(t, "listening-events", bus.playWriter.Topic)
	assert.Equal(t, "like-events", bus.likeWriter.Topic)
}
