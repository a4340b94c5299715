package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"

	"github.com/mdubravic83/POtranslate/internal/events"
)

// Publisher writes job events to a Kafka topic, keyed by job id.
type Publisher struct {
	config   kafka.ConfigMap
	producer *kafka.Producer
	topic    string
	brokers  string
	logger   *zap.Logger

	statsMu sync.RWMutex
	stats   events.Stats
}

// ParseURI builds the producer config from kafka://broker:9092/topic?key=value.
// Query parameters are passed through as librdkafka settings.
func ParseURI(uri *url.URL) (kafka.ConfigMap, string, error) {
	topic := strings.TrimPrefix(uri.Path, "/")
	if topic == "" {
		return nil, "", fmt.Errorf("topic must be specified in URL path")
	}
	if uri.Host == "" {
		return nil, "", fmt.Errorf("broker must be specified in URL host")
	}

	config := kafka.ConfigMap{
		"bootstrap.servers": uri.Host,
		"client.id":         "potranslate",

		"acks":                "1",
		"retries":             "3",
		"linger.ms":           "5",
		"compression.type":    "snappy",
		"request.timeout.ms":  "5000",
		"delivery.timeout.ms": "10000",
	}
	for key, values := range uri.Query() {
		if len(values) > 0 {
			config[key] = values[0]
		}
	}
	return config, topic, nil
}

func NewPublisher(uri *url.URL, logger *zap.Logger) (*Publisher, error) {
	config, topic, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		config:  config,
		topic:   topic,
		brokers: uri.Host,
		logger:  logger,
	}, nil
}

// Connect creates the producer and starts draining its delivery reports.
func (p *Publisher) Connect(ctx context.Context) error {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	producer, err := kafka.NewProducer(&p.config)
	if err != nil {
		p.stats.ConnectionHealthy = false
		p.stats.LastError = err.Error()
		return err
	}

	p.producer = producer
	p.stats.ConnectionHealthy = true
	p.stats.LastError = ""

	go func() {
		defer p.logger.Info("producer event loop closed")

		for e := range producer.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					p.recordError(ev.TopicPartition.Error)
					p.logger.Error("delivery failed", zap.Error(ev.TopicPartition.Error))
				} else {
					p.logger.Debug("event delivered",
						zap.String("topic", *ev.TopicPartition.Topic),
						zap.Int32("partition", ev.TopicPartition.Partition),
						zap.Int64("offset", int64(ev.TopicPartition.Offset)))
				}
			case kafka.Error:
				p.logger.Error("producer error", zap.Error(ev))
			}
		}
	}()

	p.logger.Info("kafka publisher connected",
		zap.String("topic", p.topic),
		zap.String("brokers", p.brokers))

	return nil
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	if p.producer == nil {
		return fmt.Errorf("kafka publisher not connected")
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.recordError(err)
		return err
	}

	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &p.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}

	if err := p.producer.Produce(message, nil); err != nil {
		p.recordError(err)
		return err
	}

	p.statsMu.Lock()
	p.stats.TotalEvents++
	p.stats.LastWriteAt = time.Now()
	p.stats.LastError = ""
	p.statsMu.Unlock()

	return nil
}

func (p *Publisher) recordError(err error) {
	p.statsMu.Lock()
	p.stats.ErrorCount++
	p.stats.LastError = err.Error()
	p.statsMu.Unlock()
}

// Close flushes outstanding messages for up to five seconds.
func (p *Publisher) Close(ctx context.Context) error {
	if p.producer != nil {
		if remaining := p.producer.Flush(5000); remaining > 0 {
			p.logger.Warn("unflushed events on close", zap.Int("remaining", remaining))
		}
		p.producer.Close()
	}

	p.statsMu.Lock()
	p.stats.ConnectionHealthy = false
	p.statsMu.Unlock()

	return nil
}

func (p *Publisher) Stats() events.Stats {
	p.statsMu.RLock()
	defer p.statsMu.RUnlock()
	return p.stats
}
