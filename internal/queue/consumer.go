package queue

// consumer.go holds the background consumer that listens to the
// health.reported queue and appends one line per report to logs/health.log.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumerConfig describes where to read from and where to write.
type ConsumerConfig struct {
	URL    string
	Queue  string
	LogDir string
}

// StartHealthConsumer connects to RabbitMQ, declares the queue (durable), and
// consumes messages until ctx is cancelled.  Each message is appended to
// <LogDir>/health.log in a single-line, human-friendly format.  Dial and
// channel failures are retried with exponential backoff capped at 30s;
// malformed messages are logged and rejected without requeue.
func StartHealthConsumer(ctx context.Context, cfg ConsumerConfig) error {
	if cfg.Queue == "" {
		cfg.Queue = DefaultHealthQueue
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "logs"
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			slog.Warn("health-consumer: failed to dial broker", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, cfg)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("health-consumer: consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		slog.Warn("health-consumer: set QoS failed", "error", err)
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	slog.Info("health-consumer: consuming", "queue", cfg.Queue, "log_dir", cfg.LogDir)

	for d := range msgs {
		if err := handleMessage(cfg.LogDir, d.Body); err != nil {
			slog.Error("health-consumer: handle message failed", "error", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(logDir string, body []byte) error {
	var ev HealthReportedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join(logDir, "health.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// formatLine renders e.g.
// [2026-01-02T15:04:05Z] Health reported | host="web-1" | status=DOWN | checks=[a=UP,b=DOWN]
func formatLine(ev HealthReportedEvent) string {
	checks := make([]string, 0, len(ev.Checks))
	for _, c := range ev.Checks {
		checks = append(checks, fmt.Sprintf("%s=%s", c.ID, c.Status))
	}
	return fmt.Sprintf("[%s] Health reported | host=%q | status=%s | checks=[%s]\n",
		ev.ReportedAt, ev.Host, ev.Status, strings.Join(checks, ","))
}
