package util

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/config"
	"github.com/mpapenbr/pitstrategy/pkg/db/migrate"
	"github.com/mpapenbr/pitstrategy/pkg/db/postgres"
	"github.com/mpapenbr/pitstrategy/pkg/repository/api"
	pgplan "github.com/mpapenbr/pitstrategy/pkg/repository/postgres/plan"
	sqliteplan "github.com/mpapenbr/pitstrategy/pkg/repository/sqlite/plan"
	"github.com/mpapenbr/pitstrategy/pkg/utils"
)

// IsPostgres reports whether the configured DB is a postgres url
func IsPostgres(db string) bool {
	return strings.HasPrefix(db, "postgres://") || strings.HasPrefix(db, "postgresql://")
}

// ParseDuration returns defaultVal (with a warning) if s is not a valid duration
func ParseDuration(name, s string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warn("Invalid duration value. Using default",
			log.String("name", name),
			log.String("value", s),
			log.Duration("default", defaultVal))
		return defaultVal
	}
	return d
}

// WaitForRequiredServices waits for postgres and nats (if configured).
// The process is terminated if a service is not available in time.
func WaitForRequiredServices(ctx context.Context) {
	timeout := ParseDuration("wait-for-services", config.WaitForServices, 60*time.Second)

	wg := sync.WaitGroup{}
	checkTCP := func(addr string) {
		defer wg.Done()
		if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
			log.Fatal("required services not ready", log.ErrorField(err))
		}
	}

	for _, addr := range []string{
		utils.ExtractFromDBURL(config.DB),
		utils.ExtractFromNatsURL(config.NatsURL),
	} {
		if addr != "" {
			wg.Add(1)
			go checkTCP(addr)
		}
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}

// NewPlanRepository creates the plan history for config.DB.
// An empty value disables the history (nil is returned).
// The postgres schema is migrated if migrateDB is set.
//
//nolint:whitespace // editor/linter issue
func NewPlanRepository(
	ctx context.Context, migrateDB, telemetry bool,
) (api.PlanRepository, error) {
	switch {
	case config.DB == "":
		log.Info("Plan history disabled")
		return nil, nil
	case IsPostgres(config.DB):
		if migrateDB {
			if err := migrate.MigrateDb(config.DB); err != nil {
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		traceOption := postgres.WithTracer(sqlLogger(), log.DebugLevel)
		if telemetry {
			traceOption = postgres.WithOtlpTracer()
		}
		log.Info("Using postgres plan history")
		return pgplan.NewPlanRepository(postgres.InitWithURL(config.DB, traceOption)), nil
	default:
		log.Info("Using sqlite plan history", log.String("file", config.DB))
		return sqliteplan.NewPlanRepository(ctx, config.DB)
	}
}

// ConnectNats returns nil if no NatsURL is configured
func ConnectNats() (*nats.Conn, error) {
	if config.NatsURL == "" {
		return nil, nil
	}
	l := log.Default().Named("nats")
	return nats.Connect(config.NatsURL,
		nats.Name("pitstrategy"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			l.Warn("disconnected", log.ErrorField(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			l.Info("reconnected", log.String("url", c.ConnectedUrl()))
		}),
	)
}

// StartProfiling serves pprof data on localhost if port is positive
func StartProfiling(port int) {
	if port <= 0 {
		return
	}
	log.Info("Starting profiling server on port", log.Int("port", port))
	go func() {
		//nolint:gosec // no timeouts needed for pprof
		err := http.ListenAndServe(fmt.Sprintf("localhost:%d", port), nil)
		if err != nil {
			log.Error("Profiling server stopped", log.ErrorField(err))
		}
	}()
}

func SetupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func sqlLogger() *log.Logger {
	level, err := log.ParseLevel(config.SQLLogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1)}
	var l *log.Logger
	if config.LogFormat == "json" {
		l = log.New(os.Stderr, level, opts...)
	} else {
		l = log.DevLogger(os.Stderr, level, opts...)
	}
	return l.Named("sql")
}
