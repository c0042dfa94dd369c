package checks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonwraymond/healthrun/health"
)

// PostgresConfig configures a Postgres probe.
type PostgresConfig struct {
	// Name is the check name. Default: "postgres"
	Name string

	// DSN is a libpq connection string or postgres:// URL.
	DSN string

	// Query runs after connecting. Default: "SELECT 1"
	Query string

	// Timeout bounds connect and query. Default: 5s
	Timeout time.Duration

	// SlowThreshold marks a successful but slow probe as Degraded.
	SlowThreshold time.Duration
}

// Postgres opens a connection per probe, runs Query and closes it.
type Postgres struct {
	config  PostgresConfig
	connCfg *pgx.ConnConfig
}

// NewPostgres parses the DSN up front so a malformed one fails at startup.
func NewPostgres(config PostgresConfig) (*Postgres, error) {
	if config.DSN == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	connCfg, err := pgx.ParseConfig(config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if config.Name == "" {
		config.Name = "postgres"
	}
	if config.Query == "" {
		config.Query = "SELECT 1"
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	connCfg.ConnectTimeout = config.Timeout
	return &Postgres{config: config, connCfg: connCfg}, nil
}

// Name returns the check name.
func (p *Postgres) Name() string { return p.config.Name }

// Kind returns "postgres".
func (p *Postgres) Kind() string { return "postgres" }

// Check connects and runs the probe query.
func (p *Postgres) Check(ctx context.Context) (health.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	start := time.Now()
	conn, err := pgx.ConnectConfig(ctx, p.connCfg.Copy())
	if err != nil {
		return health.Result{}, fmt.Errorf("failed to connect to instance: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer closeCancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, p.config.Query); err != nil {
		return health.Result{}, fmt.Errorf("query failed: %w", err)
	}
	took := time.Since(start)

	data := health.NewData().
		Set("host", p.connCfg.Host).
		Set("database", p.connCfg.Database).
		Set("server_version", conn.PgConn().ParameterStatus("server_version"))
	return latencyResult("query succeeded", took, p.config.SlowThreshold, data), nil
}
