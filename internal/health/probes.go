package health

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// Builtin returns the two illustrative probes every server registers.  They
// measure nothing: one always passes with a fixed memory figure, the other
// always fails with a fixed load figure.
func Builtin(timeout time.Duration) []Probe {
	return []Probe{
		{
			Name:    "my-procedure-name",
			Timeout: timeout,
			Check: func(ctx context.Context) (Result, error) {
				return OK(map[string]any{"available-memory": "2mb"}), nil
			},
		},
		{
			Name:    "my-second-procedure-name",
			Timeout: timeout,
			Check: func(ctx context.Context) (Result, error) {
				return KO(map[string]any{"load": 99}), nil
			},
		},
	}
}

// RedisProbe pings a Redis server.
func RedisProbe(rdb redis.UniversalClient, timeout time.Duration) Probe {
	return Probe{
		Name:    "redis",
		Timeout: timeout,
		Check: func(ctx context.Context) (Result, error) {
			start := time.Now()
			if err := rdb.Ping(ctx).Err(); err != nil {
				return Result{}, err
			}
			return OK(map[string]any{"latency-ms": time.Since(start).Milliseconds()}), nil
		},
	}
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// MySQLProbe pings a database pool.
func MySQLProbe(db Pinger, timeout time.Duration) Probe {
	return Probe{
		Name:    "mysql",
		Timeout: timeout,
		Check: func(ctx context.Context) (Result, error) {
			start := time.Now()
			if err := db.PingContext(ctx); err != nil {
				return Result{}, err
			}
			return OK(map[string]any{"latency-ms": time.Since(start).Milliseconds()}), nil
		},
	}
}

// RabbitMQProbe opens and closes a broker connection.  No connection is kept
// between checks.
func RabbitMQProbe(url string, timeout time.Duration) Probe {
	return Probe{
		Name:    "rabbitmq",
		Timeout: timeout,
		Check: func(ctx context.Context) (Result, error) {
			start := time.Now()
			conn, err := amqp.DialConfig(url, amqp.Config{
				Dial: amqp.DefaultDial(timeout),
			})
			if err != nil {
				return Result{}, err
			}
			defer func() { _ = conn.Close() }()
			props := conn.Properties
			data := map[string]any{"latency-ms": time.Since(start).Milliseconds()}
			if v, ok := props["version"].(string); ok {
				data["version"] = v
			}
			return OK(data), nil
		},
	}
}
