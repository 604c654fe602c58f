package postgres

import (
	"context"
	"time"

	"github.com/exaring/otelpgx"
	pgxuuid "github.com/jackc/pgx-gofrs-uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/pitstrategy/log"
)

type PoolConfigOption func(cfg *pgxpool.Config)

// WithTracer logs all sql statements with the given level
func WithTracer(logger *log.Logger, level log.Level) PoolConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.Tracer = &myQueryTracer{log: logger, level: level}
	}
}

// WithOtlpTracer creates spans for sql statements
func WithOtlpTracer() PoolConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.Tracer = otelpgx.NewTracer()
	}
}

func WithMaxConns(n int32) PoolConfigOption {
	return func(cfg *pgxpool.Config) {
		if n > 0 {
			cfg.MaxConns = n
		}
	}
}

// InitWithURL creates the connection pool. The process is terminated if the
// database cannot be reached.
func InitWithURL(url string, opts ...PoolConfigOption) *pgxpool.Pool {
	dbConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		log.Fatal("Unable to parse database config", log.ErrorField(err))
	}

	dbConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}
	for _, opt := range opts {
		opt(dbConfig)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatal("Unable to create the database pool", log.ErrorField(err))
	}
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal("Unable to get a valid database connection", log.ErrorField(err))
	}
	return pool
}

type (
	myQueryTracer struct {
		log   *log.Logger
		level log.Level
	}
	startKey struct{}
)

//nolint:whitespace // can't make the linters happy
func (tracer *myQueryTracer) TraceQueryStart(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	tracer.log.Log(tracer.level, "Executing",
		log.String("sql", data.SQL), log.Any("args", data.Args))
	return context.WithValue(ctx, startKey{}, time.Now())
}

//nolint:whitespace // can't make the linters happy
func (tracer *myQueryTracer) TraceQueryEnd(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryEndData,
) {
	fields := []log.Field{log.String("tag", data.CommandTag.String())}
	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		fields = append(fields, log.Duration("duration", time.Since(start)))
	}
	if data.Err != nil {
		tracer.log.Warn("Query failed", append(fields, log.ErrorField(data.Err))...)
		return
	}
	tracer.log.Log(tracer.level, "Done", fields...)
}
