package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/healthrun/health"
)

// RedisConfig configures a Redis probe. URL takes precedence over Addr.
type RedisConfig struct {
	// Name is the check name. Default: "redis"
	Name string

	// URL is a redis:// or rediss:// connection URL.
	URL string

	// Addr is the host:port of the server when URL is empty.
	Addr string

	// Password authenticates when URL is empty.
	Password string

	// DB selects the database when URL is empty.
	DB int

	// Timeout bounds dial, read and write. Default: 5s
	Timeout time.Duration

	// SlowThreshold marks a successful but slow ping as Degraded.
	SlowThreshold time.Duration
}

// Redis pings a Redis server. The client is long-lived; call Close when
// done.
type Redis struct {
	name   string
	slow   time.Duration
	client *redis.Client
}

// NewRedis creates a Redis probe. No connection is made until Check.
func NewRedis(config RedisConfig) (*Redis, error) {
	var opts *redis.Options
	switch {
	case config.URL != "":
		parsed, err := redis.ParseURL(config.URL)
		if err != nil {
			return nil, fmt.Errorf("redis: invalid URL: %w", err)
		}
		opts = parsed
	case config.Addr != "":
		opts = &redis.Options{
			Addr:     config.Addr,
			Password: config.Password,
			DB:       config.DB,
		}
	default:
		return nil, fmt.Errorf("redis: url or addr is required")
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts.DialTimeout = timeout
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout
	opts.PoolSize = 1
	opts.MaxRetries = -1

	name := config.Name
	if name == "" {
		name = "redis"
	}

	return &Redis{name: name, slow: config.SlowThreshold, client: redis.NewClient(opts)}, nil
}

// Name returns the check name.
func (r *Redis) Name() string { return r.name }

// Kind returns "redis".
func (r *Redis) Kind() string { return "redis" }

// Check sends PING.
func (r *Redis) Check(ctx context.Context) (health.Result, error) {
	start := time.Now()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return health.Result{}, fmt.Errorf("redis ping failed: %w", err)
	}
	took := time.Since(start)

	data := health.NewData().
		Set("addr", r.client.Options().Addr).
		Set("db", r.client.Options().DB)
	return latencyResult("PONG", took, r.slow, data), nil
}

// Close releases the client's connections.
func (r *Redis) Close() error {
	return r.client.Close()
}
