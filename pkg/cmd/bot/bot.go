package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/bot"
	"github.com/mpapenbr/pitstrategy/pkg/cmd/util"
	"github.com/mpapenbr/pitstrategy/pkg/config"
	"github.com/mpapenbr/pitstrategy/pkg/metrics"
	"github.com/mpapenbr/pitstrategy/pkg/permission"
	natspublish "github.com/mpapenbr/pitstrategy/pkg/publish/nats"
	planservice "github.com/mpapenbr/pitstrategy/pkg/service/plan"
)

var (
	historyLimit int
	debugAPI     bool
)

func NewBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "starts the telegram bot",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if config.TelegramToken == "" {
				return errors.New("telegram token is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return startBot(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&config.TelegramToken,
		"telegram-token",
		"",
		"telegram bot token")
	cmd.Flags().Int64SliceVar(&config.AllowedChats,
		"allowed-chats",
		[]int64{},
		"chats allowed to use the bot (empty allows all chats)")
	cmd.Flags().StringVar(&config.MetricsAddr,
		"metrics-addr",
		":5000",
		"listen address for prometheus metrics (empty disables metrics)")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"nats server receiving created plans (empty disables publishing)")
	cmd.Flags().StringVar(&config.PlanCacheTTL,
		"plan-cache-ttl",
		"5m",
		"duration plans are kept in the cache")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().IntVar(&historyLimit,
		"history-limit",
		5,
		"number of plans shown by /history")
	cmd.Flags().BoolVar(&debugAPI,
		"debug-api",
		false,
		"logs the raw telegram api traffic")
	return cmd
}

//nolint:funlen // by design
func startBot(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	util.StartProfiling(config.ProfilingPort)
	util.WaitForRequiredServices(ctx)

	api, err := tgbotapi.NewBotAPI(config.TelegramToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	api.Debug = debugAPI
	log.Info("Authorized on account", log.String("bot", api.Self.UserName))

	repo, err := util.NewPlanRepository(ctx, true, false)
	if err != nil {
		return err
	}
	if repo != nil {
		defer repo.Close()
	}

	m := metrics.New()
	opts := []planservice.Option{
		planservice.WithRepository(repo),
		planservice.WithMetrics(m),
		planservice.WithCacheExpiration(
			util.ParseDuration("plan-cache-ttl", config.PlanCacheTTL, 5*time.Minute)),
	}
	conn, err := util.ConnectNats()
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	if conn != nil {
		defer conn.Close()
		opts = append(opts, planservice.WithListener(natspublish.NewPublisher(conn)))
	}

	if config.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              config.MetricsAddr,
			Handler:           m.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("Serving metrics", log.String("addr", config.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", log.ErrorField(err))
			}
		}()
		defer srv.Close()
	}

	b := bot.NewBot(api,
		bot.WithPlanService(planservice.NewPlanService(opts...)),
		bot.WithPermissionEvaluator(
			permission.NewPermissionEvaluator(config.AllowedChats...)),
		bot.WithMetrics(m),
		bot.WithHistoryLimit(historyLimit),
	)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	util.SetupGoRoutinesDump()

	b.Run(ctx, updates)
	api.StopReceivingUpdates()
	log.Info("Bot terminated")
	return nil
}
