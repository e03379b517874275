// Package rabbitmq publishes triggered alerts to an AMQP topic exchange so
// downstream consumers (dashboards, notification fan-out) can react without
// polling. Publishing is best-effort: a broker failure is logged and the
// analysis request proceeds.
package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/apex/log"
	"github.com/streadway/amqp"

	"cattle-monitor-service/models"
)

const (
	// ExchangeName is the topic exchange alerts are published to.
	ExchangeName = "cattle-alerts"
	contentType  = "application/json"
)

// Publisher publishes alert events to RabbitMQ.
type Publisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher connects to the broker and declares the alert exchange.
func NewPublisher(amqpURL string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.Infof("RabbitMQ publisher connected, exchange %q declared", ExchangeName)
	return &Publisher{conn: conn, channel: channel}, nil
}

// PublishAlert publishes a triggered alert. The routing key is
// "alerts.<severity>" so consumers can bind to the severities they care
// about.
func (p *Publisher) PublishAlert(event models.AlertEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.Publish(
		ExchangeName,
		"alerts."+event.Severity,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: contentType,
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is still open.
func (p *Publisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil && !p.conn.IsClosed()
}

// Close shuts down the channel and connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
