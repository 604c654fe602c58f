package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // served on localhost only
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/otelconnect"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/announce"
	"github.com/mpapenbr/pitstrategy/pkg/auth"
	"github.com/mpapenbr/pitstrategy/pkg/cmd/util"
	"github.com/mpapenbr/pitstrategy/pkg/config"
	"github.com/mpapenbr/pitstrategy/pkg/metrics"
	"github.com/mpapenbr/pitstrategy/pkg/permission"
	natspublish "github.com/mpapenbr/pitstrategy/pkg/publish/nats"
	planservice "github.com/mpapenbr/pitstrategy/pkg/service/plan"
	"github.com/mpapenbr/pitstrategy/pkg/service/strategy"
	"github.com/mpapenbr/pitstrategy/pkg/service/strategyconnect"
	serviceutil "github.com/mpapenbr/pitstrategy/pkg/service/util"
)

var migrateDB bool

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the strategy rpc server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"server-addr",
		"a",
		"localhost:8080",
		"server listen address (h2c)")
	cmd.Flags().StringVar(&config.TLSServerAddr,
		"tls-server-addr",
		"",
		"TLS server listen address, requires cert and key")
	cmd.Flags().StringVar(&config.TLSCertFile,
		"tls-cert",
		"",
		"file containing the TLS certificate")
	cmd.Flags().StringVar(&config.TLSKeyFile,
		"tls-key",
		"",
		"file containing the TLS key")
	cmd.Flags().StringVar(&config.TLSCAFile,
		"tls-ca",
		"",
		"file containing the root CA for client certificates")
	cmd.Flags().StringVar(&config.TraefikCerts,
		"traefik-certs",
		"",
		"traefik acme file to read the certificate from")
	cmd.Flags().StringVar(&config.TraefikCertDomain,
		"traefik-cert-domain",
		"",
		"domain to lookup in the traefik acme file")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (\"stdout\" prints the data)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().StringVar(&config.AdminToken,
		"admin-token",
		"",
		"admin token value")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"nats server receiving created plans (empty disables publishing)")
	cmd.Flags().StringVar(&config.TelegramToken,
		"telegram-token",
		"",
		"telegram bot token used for announcements")
	cmd.Flags().Int64SliceVar(&config.AnnounceChats,
		"announce-chats",
		[]int64{},
		"telegram chats receiving new plans")
	cmd.Flags().StringVar(&config.PlanCacheTTL,
		"plan-cache-ttl",
		"5m",
		"duration plans are kept in the cache")
	cmd.Flags().StringVar(&config.PlanRetention,
		"plan-retention",
		"",
		"plans older than this duration are purged periodically (empty keeps all)")
	cmd.Flags().BoolVar(&migrateDB,
		"migrate",
		true,
		"migrate a postgres database on startup")
	return cmd
}

//nolint:funlen,cyclop // by design
func startServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = log.AddToContext(ctx, log.Default())

	log.Debug("Config:",
		log.String("db", config.DB),
		log.String("addr", config.ServerAddr),
		log.String("nats", config.NatsURL),
	)
	util.StartProfiling(config.ProfilingPort)
	util.WaitForRequiredServices(ctx)

	var telemetry *config.Telemetry
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(ctx); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		} else {
			defer telemetry.Shutdown()
		}
	}

	repo, err := util.NewPlanRepository(ctx, migrateDB, telemetry != nil)
	if err != nil {
		return err
	}
	if repo != nil {
		defer repo.Close()
	}
	listeners, cleanup, err := setupListeners()
	if err != nil {
		return err
	}
	defer cleanup()

	m := metrics.New()
	svc := planservice.NewPlanService(
		planservice.WithRepository(repo),
		planservice.WithListener(listeners...),
		planservice.WithMetrics(m),
		planservice.WithCacheExpiration(
			util.ParseDuration("plan-cache-ttl", config.PlanCacheTTL, 5*time.Minute)),
	)
	if config.PlanRetention != "" && svc.HasHistory() {
		go runRetention(ctx, svc,
			util.ParseDuration("plan-retention", config.PlanRetention, 30*24*time.Hour))
	}

	mux := newMux(svc, m)
	handler := h2c.NewHandler(newCORS().Handler(mux), &http2.Server{})
	servers := []*http.Server{}
	errCh := make(chan error, 2)

	//nolint:gosec // by design
	plain := &http.Server{Addr: config.ServerAddr, Handler: handler}
	servers = append(servers, plain)
	go func() {
		log.Info("Starting server", log.String("addr", config.ServerAddr))
		errCh <- plain.ListenAndServe()
	}()

	if config.TLSServerAddr != "" {
		tlsConfig := NewTLSConfigProvider(ctx)
		if tlsConfig == nil {
			return errors.New("TLS server requires a certificate")
		}
		//nolint:gosec // by design
		secure := &http.Server{
			Addr:      config.TLSServerAddr,
			Handler:   newCORS().Handler(mux),
			TLSConfig: tlsConfig,
		}
		servers = append(servers, secure)
		go func() {
			log.Info("Starting TLS server", log.String("addr", config.TLSServerAddr))
			errCh <- secure.ListenAndServeTLS("", "")
		}()
	}
	util.SetupGoRoutinesDump()

	select {
	case <-ctx.Done():
		log.Debug("Got signal, shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server could not be started", log.ErrorField(err))
			return err
		}
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown", log.String("addr", s.Addr), log.ErrorField(err))
		}
	}
	log.Info("Server terminated")
	return nil
}

func newMux(svc *planservice.PlanService, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	interceptors := []connect.Interceptor{
		serviceutil.NewTraceIDInterceptor(),
		serviceutil.NewVersionCheckInterceptor(""),
		auth.NewAuthInterceptor(auth.WithAdminToken(config.AdminToken)),
	}
	if otelInterceptor, err := otelconnect.NewInterceptor(); err == nil {
		interceptors = append([]connect.Interceptor{otelInterceptor}, interceptors...)
	} else {
		log.Warn("Could not create otel interceptor", log.ErrorField(err))
	}

	strategyService := strategy.NewServer(
		strategy.WithPlanService(svc),
		strategy.WithPermissionEvaluator(permission.NewPermissionEvaluator()))
	path, handler := strategyconnect.NewStrategyServiceHandler(
		strategyService,
		connect.WithInterceptors(interceptors...),
	)
	mux.Handle(path, handler)
	mux.Handle(grpchealth.NewHandler(
		grpchealth.NewStaticChecker(strategyconnect.StrategyServiceName)))
	mux.Handle("/metrics", m.Handler())
	return mux
}

// setupListeners creates the nats publisher and the telegram announcer if
// configured. The returned cleanup function closes their connections.
func setupListeners() (ret []planservice.PlanListener, cleanup func(), err error) {
	cleanup = func() {}
	conn, err := util.ConnectNats()
	if err != nil {
		return nil, cleanup, fmt.Errorf("connect nats: %w", err)
	}
	if conn != nil {
		log.Info("Publishing plans to nats", log.String("url", conn.ConnectedUrl()))
		ret = append(ret, natspublish.NewPublisher(conn))
		cleanup = func() {
			if err := conn.Drain(); err != nil {
				log.Warn("nats drain", log.ErrorField(err))
			}
		}
	}
	if config.TelegramToken != "" && len(config.AnnounceChats) > 0 {
		api, err := tgbotapi.NewBotAPI(config.TelegramToken)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("telegram: %w", err)
		}
		log.Info("Announcing plans",
			log.String("bot", api.Self.UserName),
			log.Any("chats", config.AnnounceChats))
		ret = append(ret, announce.NewAnnouncer(
			announce.NewTelegram(api, config.AnnounceChats...)))
	}
	return ret, cleanup, nil
}

func runRetention(ctx context.Context, svc *planservice.PlanService, retention time.Duration) {
	l := log.Default().Named("retention")
	if retention <= 0 {
		l.Warn("plan retention must be positive, plans are kept",
			log.Duration("retention", retention))
		return
	}
	interval := min(retention, time.Hour)
	l.Info("Purging old plans periodically",
		log.Duration("retention", retention),
		log.Duration("interval", interval))
	purge := func() {
		n, err := svc.Purge(ctx, time.Now().Add(-retention))
		if err != nil {
			l.Warn("purge failed", log.ErrorField(err))
			return
		}
		l.Debug("purged plans", log.Int("deleted", n))
	}
	purge()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purge()
		}
	}
}

func newCORS() *cors.Cors {
	// Browser clients may call the service from any origin.
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			// Content-Type is in the default safelist.
			"Accept",
			"Accept-Encoding",
			"Accept-Post",
			"Connect-Accept-Encoding",
			"Connect-Content-Encoding",
			"Content-Encoding",
			"Grpc-Accept-Encoding",
			"Grpc-Encoding",
			"Grpc-Message",
			"Grpc-Status",
			"Grpc-Status-Details-Bin",
			serviceutil.TraceIDHeader,
		},
		// FF caps this value at 24h, Chrome at 2h.
		MaxAge: int(2 * time.Hour / time.Second),
	})
}
