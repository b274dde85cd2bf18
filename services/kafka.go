package services

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"fees-module/logger"

	"github.com/segmentio/kafka-go"
)

// Publisher publishes ledger events to Kafka. Publishing is best-effort:
// a nil or unconfigured publisher silently drops events so the payment
// path never depends on the broker being up.
type Publisher struct {
	mu       sync.Mutex
	writer   *kafka.Writer
	topic    string
	disabled bool
}

// NewPublisher builds a Publisher from a comma-separated broker list.
// An empty broker list disables publishing.
func NewPublisher(brokerList, topic string) *Publisher {
	p := &Publisher{topic: topic}

	var brokers []string
	for _, b := range strings.Split(brokerList, ",") {
		if b := strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	if len(brokers) == 0 {
		logger.Info("Kafka is disabled (KAFKA_BROKERS is empty)")
		p.disabled = true
		return p
	}

	p.writer = &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
		Async:    false,
		// Set a reasonable write timeout
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
	}

	logger.Info("Kafka producer initialized. Brokers=%v, Topic=%s", brokers, topic)
	return p
}

// Publish marshals value to JSON and publishes it keyed by key.
// Uses exponential backoff retry logic (3 attempts).
func (p *Publisher) Publish(key string, value interface{}) error {
	if p == nil || p.disabled {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		logger.Error("Error marshaling Kafka message: %v", err)
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(key),
		Value: payload,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := p.writer.WriteMessages(ctx, msg)
		cancel()

		if err == nil {
			return nil
		}

		lastErr = err
		if attempt < 2 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			logger.Warn("Kafka publish attempt %d/3 failed, retrying in %v: %v", attempt+1, backoff, err)
			time.Sleep(backoff)
		} else {
			logger.Error("Kafka publish failed after 3 attempts: %v", err)
		}
	}

	return lastErr
}

// Close gracefully closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Close()
}
