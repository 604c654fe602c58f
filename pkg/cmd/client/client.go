package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/pitstrategy/pkg/auth"
	"github.com/mpapenbr/pitstrategy/pkg/model"
	"github.com/mpapenbr/pitstrategy/pkg/render"
	"github.com/mpapenbr/pitstrategy/pkg/service/strategyconnect"
	"github.com/mpapenbr/pitstrategy/pkg/service/util"
	"github.com/mpapenbr/pitstrategy/pkg/strategy"
	"github.com/mpapenbr/pitstrategy/version"
)

type clientConfig struct {
	addr    string
	token   string
	asJSON  bool
	timeout time.Duration
}

var cfg = clientConfig{}

func NewClientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "calls a running strategy server",
	}
	cmd.PersistentFlags().StringVar(&cfg.addr,
		"addr",
		"http://localhost:8080",
		"url of the strategy server")
	cmd.PersistentFlags().StringVar(&cfg.token,
		"token",
		"",
		"api token sent to the server")
	cmd.PersistentFlags().BoolVar(&cfg.asJSON,
		"json",
		false,
		"print the raw response as json")
	cmd.PersistentFlags().DurationVar(&cfg.timeout,
		"timeout",
		10*time.Second,
		"timeout for a single request")

	cmd.AddCommand(newCalcCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newPurgeCmd())
	cmd.AddCommand(newWatchCmd())
	return cmd
}

func newClient() strategyconnect.StrategyServiceClient {
	return strategyconnect.NewStrategyServiceClient(
		http.DefaultClient,
		cfg.addr,
		connect.WithInterceptors(util.NewVersionCheckInterceptor(version.Version)),
	)
}

func newRequest[T any](msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if cfg.token != "" {
		req.Header().Set(auth.TokenHeader, cfg.token)
	}
	return req
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, cfg.timeout)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPlan(out io.Writer, p *model.Plan) error {
	if cfg.asJSON {
		return printJSON(out, p)
	}
	fmt.Fprintf(out, "Plan %s (%s, %s)\n", p.ID, p.Source, p.Created.Local().Format(time.DateTime))
	strategies := lo.Map(p.Strategies, func(s model.Strategy, _ int) strategy.Strategy {
		return s.ToStrategy()
	})
	_, err := fmt.Fprint(out, render.Styled(strategies))
	return err
}

func printPlans(out io.Writer, plans []*model.Plan) error {
	if cfg.asJSON {
		return printJSON(out, plans)
	}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Created", "Source", "Requester", "Strategies"})
	for _, p := range plans {
		kinds := lo.Map(p.Strategies, func(s model.Strategy, _ int) string { return s.Kind })
		t.AppendRow(table.Row{
			p.ID, p.Created.Local().Format(time.DateTime), p.Source, p.Requester,
			strings.Join(kinds, ", "),
		})
	}
	t.Render()
	return nil
}
