package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/auth"
	"github.com/mpapenbr/pitstrategy/pkg/model"
	"github.com/mpapenbr/pitstrategy/pkg/permission"
	"github.com/mpapenbr/pitstrategy/pkg/render"
	"github.com/mpapenbr/pitstrategy/pkg/repository/api"
	planservice "github.com/mpapenbr/pitstrategy/pkg/service/plan"
	"github.com/mpapenbr/pitstrategy/pkg/strategy"
	"github.com/mpapenbr/pitstrategy/pkg/strategy/parse"
)

const (
	commandStrategy      = "strategy"
	commandStrategyShort = "s"
	commandTable         = "table"
	commandTableShort    = "t"
	commandHistory       = "history"
)

const notAllowed = "This chat is not allowed to use this command\\."

type strategyApp struct {
	b *Bot
}

func (s *strategyApp) AcceptCommand(command string) (bool, HandlerFunc) {
	switch command {
	case commandStrategy, commandStrategyShort:
		return true, s.calculate(render.MarkdownV2)
	case commandTable, commandTableShort:
		return true, s.calculate(render.TableMarkdownV2)
	case commandHistory:
		return true, s.history
	}
	return false, nil
}

func (s *strategyApp) allowed(p permission.Permission, chatID int64) bool {
	if s.b.pe == nil {
		return p.IsPublic()
	}
	return s.b.pe.HasChatPermission(p, chatID)
}

// calculate replies one message per strategy rendered by fn
//
//nolint:whitespace // editor/linter issue
func (s *strategyApp) calculate(
	fn func(st strategy.Strategy) string,
) HandlerFunc {
	return func(ctx context.Context, msg *tgbotapi.Message) error {
		chatID := msg.Chat.ID
		if !s.allowed(permission.PermissionCalculate, chatID) {
			if err := s.b.send(chatID, notAllowed, tgbotapi.ModeMarkdownV2); err != nil {
				return err
			}
			return auth.ErrPermissionDenied
		}
		in, err := parse.ParseArgs(strings.Fields(msg.CommandArguments()))
		if err != nil {
			text := render.EscapeMarkdownV2(err.Error()) + "\n\n" + usageText()
			if sendErr := s.b.send(chatID, text, tgbotapi.ModeMarkdownV2); sendErr != nil {
				return sendErr
			}
			return err
		}
		p, err := s.b.service.Calculate(ctx, Source, requester(chatID), in)
		if err != nil {
			text := render.EscapeMarkdownV2("Could not calculate: " + err.Error())
			if sendErr := s.b.send(chatID, text, tgbotapi.ModeMarkdownV2); sendErr != nil {
				return sendErr
			}
			return err
		}
		for i := range p.Strategies {
			text := fn(p.Strategies[i].ToStrategy())
			if err := s.b.send(chatID, text, tgbotapi.ModeMarkdownV2); err != nil {
				return err
			}
		}
		return nil
	}
}

func (s *strategyApp) history(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if !s.allowed(permission.PermissionReadPlan, chatID) {
		if err := s.b.send(chatID, notAllowed, tgbotapi.ModeMarkdownV2); err != nil {
			return err
		}
		return auth.ErrPermissionDenied
	}
	plans, err := s.b.service.List(ctx, api.Filter{
		Source:    Source,
		Requester: requester(chatID),
		Limit:     s.b.historyLimit,
	})
	if errors.Is(err, planservice.ErrNoHistory) {
		return s.b.send(chatID, render.EscapeMarkdownV2("History is not enabled."),
			tgbotapi.ModeMarkdownV2)
	}
	if err != nil {
		s.b.l.Error("could not load history", log.ErrorField(err))
		return err
	}
	if len(plans) == 0 {
		return s.b.send(chatID, render.EscapeMarkdownV2("No calculations yet."),
			tgbotapi.ModeMarkdownV2)
	}
	return s.b.send(chatID, formatHistory(plans), tgbotapi.ModeMarkdownV2)
}

func formatHistory(plans []*model.Plan) string {
	lines := lo.Map(plans, func(p *model.Plan, _ int) string {
		in := p.Input.ToStrategyInput()
		args := fmt.Sprintf("%s %s %s %d",
			formatHHMM(in.RaceDuration.Minutes()),
			formatMMSS(in.AvgLaptime.Seconds()),
			strconv.FormatFloat(p.Input.FuelPerLap, 'f', -1, 64),
			p.Input.FuelCapacity)
		if p.Input.MandatoryPits != nil || p.Input.MaxStint != nil {
			pits, stint := parse.NotSet, parse.NotSet
			if p.Input.MandatoryPits != nil {
				pits = strconv.Itoa(int(*p.Input.MandatoryPits))
			}
			if p.Input.MaxStint != nil {
				stint = formatHHMM(*p.Input.MaxStint / 60)
			}
			args += " " + pits + " " + stint
		}
		kinds := strings.Join(lo.Map(p.Strategies, func(s model.Strategy, _ int) string {
			return s.Title
		}), ", ")
		return fmt.Sprintf("%s `%s`\n%s",
			render.EscapeMarkdownV2(p.Created.Format("2006-01-02 15:04")),
			args,
			render.EscapeMarkdownV2(kinds))
	})
	return strings.Join(lines, "\n\n")
}

func formatHHMM(minutes float64) string {
	m := int(minutes)
	return fmt.Sprintf("%d:%02d", m/60, m%60)
}

func formatMMSS(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func requester(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
