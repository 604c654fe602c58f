package calc

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/model"
	"github.com/mpapenbr/pitstrategy/pkg/render"
	"github.com/mpapenbr/pitstrategy/pkg/strategy"
	"github.com/mpapenbr/pitstrategy/pkg/strategy/parse"
)

const (
	OutputText  = "text"
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

type (
	options struct {
		output string
		query  string
	}
	result struct {
		Input      model.Input      `json:"input" yaml:"input"`
		Strategies []model.Strategy `json:"strategies" yaml:"strategies"`
	}
)

func NewCalcCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "calc " + parse.Usage,
		Short: "calculates pit stop strategies",
		Long: `Calculates pit stop strategies for the given race.

Use "-" for the optional arguments to leave them unset.
Example: pitstrategy calc 1:30 1:45.5 2.8 60 2 -`,
		Args: cobra.RangeArgs(4, 6),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output,
		"output",
		"o",
		OutputText,
		"output format (text, table, json, yaml)")
	cmd.Flags().StringVarP(&opts.query,
		"query",
		"q",
		"",
		"JSONPath expression applied to the json output, e.g. $.strategies[*].stops")
	return cmd
}

func run(out io.Writer, args []string, opts options) error {
	in, err := parse.ParseArgs(args)
	if err != nil {
		return err
	}
	res, err := strategy.Calculate(in)
	if err != nil {
		return err
	}
	log.Debug("calculated strategies",
		log.Int("count", len(res)),
		log.Int("requiredStints", in.RequiredStints()))

	if opts.query != "" && opts.output != OutputJSON {
		return fmt.Errorf("--query requires output %q", OutputJSON)
	}
	switch opts.output {
	case OutputText:
		_, err = fmt.Fprintln(out, render.Text(res))
	case OutputTable:
		_, err = fmt.Fprint(out, render.Styled(res))
	case OutputJSON:
		err = writeJSON(out, toResult(in, res), opts.query)
	case OutputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err = enc.Encode(toResult(in, res)); err == nil {
			err = enc.Close()
		}
	default:
		err = fmt.Errorf("unknown output format %q", opts.output)
	}
	return err
}

func toResult(in strategy.Input, res []strategy.Strategy) result {
	return result{
		Input:      model.FromInput(in),
		Strategies: model.FromStrategies(res),
	}
}

func writeJSON(out io.Writer, r result, query string) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	obj, err := oj.Parse(data)
	if err != nil {
		return err
	}
	var v any = obj
	if query != "" {
		path, err := jp.ParseString(query)
		if err != nil {
			return fmt.Errorf("invalid query: %w", err)
		}
		v = path.Get(obj)
	}
	_, err = fmt.Fprintln(out, oj.JSON(v, &oj.Options{Indent: 2}))
	return err
}
