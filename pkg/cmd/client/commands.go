package client

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/cmd/util"
	"github.com/mpapenbr/pitstrategy/pkg/config"
	"github.com/mpapenbr/pitstrategy/pkg/model"
	natspublish "github.com/mpapenbr/pitstrategy/pkg/publish/nats"
	"github.com/mpapenbr/pitstrategy/pkg/strategy/parse"
)

func newCalcCmd() *cobra.Command {
	var requester string
	cmd := &cobra.Command{
		Use:   "calc " + parse.Usage,
		Short: "calculates and stores a plan on the server",
		Args:  cobra.RangeArgs(4, 6),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parse.ParseArgs(args)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()
			res, err := newClient().Calculate(ctx, newRequest(&model.CalculateRequest{
				Input:     model.FromInput(in),
				Requester: requester,
			}))
			if err != nil {
				return err
			}
			return printPlan(cmd.OutOrStdout(), res.Msg.Plan)
		},
	}
	cmd.Flags().StringVar(&requester, "requester", "", "requester stored with the plan")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <plan id>",
		Short: "shows a stored plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()
			res, err := newClient().GetPlan(ctx,
				newRequest(&model.GetPlanRequest{ID: args[0]}))
			if err != nil {
				return err
			}
			return printPlan(cmd.OutOrStdout(), res.Msg.Plan)
		},
	}
}

func newListCmd() *cobra.Command {
	req := model.ListPlansRequest{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "lists the latest plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()
			res, err := newClient().ListPlans(ctx, newRequest(&req))
			if err != nil {
				return err
			}
			return printPlans(cmd.OutOrStdout(), res.Msg.Plans)
		},
	}
	cmd.Flags().StringVar(&req.Source, "source", "", "only plans of this source (bot, server)")
	cmd.Flags().StringVar(&req.Requester, "requester", "", "only plans of this requester")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "max number of plans (0 uses the server default)")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <plan id>",
		Short: "deletes a stored plan (requires admin token)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()
			res, err := newClient().DeletePlan(ctx,
				newRequest(&model.DeletePlanRequest{ID: args[0]}))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted: %d\n", res.Msg.Deleted)
			return err
		},
	}
}

func newPurgeCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "deletes all plans older than the given duration (requires admin token)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()
			res, err := newClient().PurgePlans(ctx, newRequest(&model.PurgePlansRequest{
				OlderThan: time.Now().Add(-olderThan).UTC(),
			}))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted: %d\n", res.Msg.Deleted)
			return err
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "age of the plans to delete, e.g. 720h")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "prints plans published on nats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.NatsURL == "" {
				return fmt.Errorf("--nats-url is required")
			}
			conn, err := util.ConnectNats()
			if err != nil {
				return err
			}
			defer conn.Close()
			out := cmd.OutOrStdout()
			sub, err := natspublish.Subscribe(conn, source, func(p *model.Plan) {
				if err := printPlan(out, p); err != nil {
					log.Warn("could not print plan", log.ErrorField(err))
				}
			})
			if err != nil {
				return err
			}
			defer sub.Unsubscribe() //nolint:errcheck // exiting anyway
			log.Info("Watching plans", log.String("subject", sub.Subject))

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			<-sigChan
			return nil
		},
	}
	cmd.Flags().StringVar(&config.NatsURL, "nats-url", "nats://localhost:4222", "nats server")
	cmd.Flags().StringVar(&source, "source", "", "only plans of this source (empty watches all)")
	return cmd
}
