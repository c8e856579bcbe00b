// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/observability/metrics"
	"voice-outbound-service/internal/schema"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes call events to separate Kafka topics.
type Publisher struct {
	writerGenerated messageWriter
	writerFailed    messageWriter
	principal       string
	topicGenerated  string
	topicFailed     string
	enabled         bool
	validator       *schema.Validator
	metrics         *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers        []string
	TopicGenerated string
	TopicFailed    string
	Principal      string
	Enabled        bool
}

// New creates a Kafka event publisher with separate topics for generated and failed calls.
// Events are validated against their schema before they are written.
func New(cfg *Config, validator *schema.Validator) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			validator: validator,
			metrics:   m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:      cfg.Principal,
			topicGenerated: cfg.TopicGenerated,
			topicFailed:    cfg.TopicFailed,
			validator:      validator,
			metrics:        m,
		}
	}

	// Longer dial timeout for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicGenerated", cfg.TopicGenerated).
		Str("topicFailed", cfg.TopicFailed).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerGenerated: newWriter(cfg.TopicGenerated),
		writerFailed:    newWriter(cfg.TopicFailed),
		principal:       cfg.Principal,
		topicGenerated:  cfg.TopicGenerated,
		topicFailed:     cfg.TopicFailed,
		enabled:         true,
		validator:       validator,
		metrics:         m,
	}
}

// PublishGenerated publishes a call-generated event keyed by run ID.
func (p *Publisher) PublishGenerated(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerGenerated, p.topicGenerated, models.EventCallGenerated, key, event)
}

// PublishFailed publishes a call-failed event keyed by run ID.
func (p *Publisher) PublishFailed(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerFailed, p.topicFailed, models.EventCallFailed, key, event)
}

func (p *Publisher) publish(ctx context.Context, writer messageWriter, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	if p.validator != nil {
		if err := p.validator.Validate(eventType, event); err != nil {
			log.Error().Err(err).Str("topic", topic).Str("key", key).Msg("Event failed schema validation")
			p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
			return fmt.Errorf("invalid event: %w", err)
		}
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerGenerated != nil {
		if e := p.writerGenerated.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing generated writer")
			err = e
		}
	}
	if p.writerFailed != nil {
		if e := p.writerFailed.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing failed writer")
			err = e
		}
	}
	return err
}
