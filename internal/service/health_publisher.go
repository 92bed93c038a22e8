// Package service publishes domain events to RabbitMQ.  Errors are logged
// and returned so callers can ignore failures without interrupting the main
// request flow.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/experiment-server/internal/health"
	q "github.com/iliyamo/experiment-server/internal/queue"
)

// HealthPublisher sends every health report to a durable queue.
type HealthPublisher struct {
	URL     string
	Queue   string
	Timeout time.Duration
	Host    string

	dial func(url string) (*amqp.Connection, error)
}

// NewHealthPublisher builds a publisher for the given broker and queue.
func NewHealthPublisher(url, queue string, timeout time.Duration) *HealthPublisher {
	host, _ := os.Hostname()
	if queue == "" {
		queue = q.DefaultHealthQueue
	}
	return &HealthPublisher{URL: url, Queue: queue, Timeout: timeout, Host: host, dial: amqp.Dial}
}

// Notify publishes report in the background, bounded by p.Timeout, so the
// health response never waits on the broker.
func (p *HealthPublisher) Notify(report health.Report) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.Timeout)
		defer cancel()
		_ = p.Publish(ctx, report)
	}()
}

// Publish sends one HealthReportedEvent.  A connection is opened per call;
// messages are marked as persistent.
func (p *HealthPublisher) Publish(ctx context.Context, report health.Report) error {
	dial := p.dial
	if dial == nil {
		dial = amqp.Dial
	}
	conn, err := dial(p.URL)
	if err != nil {
		slog.Warn("rabbitmq: dial failed", "error", err)
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		slog.Warn("rabbitmq: channel open failed", "error", err)
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		p.Queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		slog.Warn("rabbitmq: queue declare failed", "queue", p.Queue, "error", err)
		return fmt.Errorf("queue declare: %w", err)
	}

	body, err := encodeEvent(p.Host, report, time.Now())
	if err != nil {
		slog.Warn("rabbitmq: marshal event failed", "error", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		slog.Warn("rabbitmq: publish failed", "queue", p.Queue, "error", err)
		return fmt.Errorf("publish: %w", err)
	}

	slog.Debug("health report published", "queue", p.Queue, "status", report.Status)
	return nil
}

func encodeEvent(host string, report health.Report, at time.Time) ([]byte, error) {
	body, err := json.Marshal(q.NewHealthReportedEvent(host, report, at))
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return body, nil
}
