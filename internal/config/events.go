package config

import (
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/classroom-session/internal/events"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	PublisherKafka     = "kafka"
	PublisherGoChannel = "gochannel"
	PublisherMock      = "mock"
)

// EventConfig selects where session and classroom events go.
type EventConfig struct {
	Enabled      bool
	Publisher    string
	KafkaBrokers string
	SessionTopic string
}

// GetKafkaBrokers splits KAFKA_BROKERS on commas, dropping blanks.
func (c *EventConfig) GetKafkaBrokers() []string {
	var brokers []string
	for _, broker := range strings.Split(c.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

// CreateEventPublisher builds the configured publisher. Disabled or unknown
// publishers fall back to the in-memory mock.
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Info("Event publishing disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	switch strings.ToLower(c.Publisher) {
	case PublisherKafka:
		logger.Info("Creating Kafka event publisher", "brokers", c.KafkaBrokers, "topic", c.SessionTopic)
		return events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			TopicName:    c.SessionTopic,
			Logger:       logger,
		})
	case PublisherGoChannel:
		logger.Info("Creating in-process event publisher", "topic", c.SessionTopic)
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
		return events.NewWatermillEventPublisher(pubSub, c.SessionTopic, logger), nil
	case PublisherMock:
		return events.NewMockEventPublisher(logger), nil
	}

	logger.Warn("Unknown event publisher, falling back to mock", "publisher", c.Publisher)
	return events.NewMockEventPublisher(logger), nil
}
