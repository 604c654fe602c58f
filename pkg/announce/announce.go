package announce

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nikoksr/notify"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/model"
	"github.com/mpapenbr/pitstrategy/pkg/render"
)

// Announcer sends newly created plans to the configured notifiers
type Announcer struct {
	n *notify.Notify
	l *log.Logger
}

func NewAnnouncer(services ...notify.Notifier) *Announcer {
	return &Announcer{
		n: notify.NewWithServices(services...),
		l: log.Default().Named("announce"),
	}
}

func (a *Announcer) PlanCreated(ctx context.Context, p *model.Plan) error {
	subject, message := Format(p)
	if err := a.n.Send(ctx, subject, message); err != nil {
		return err
	}
	a.l.Debug("plan announced", log.String("id", p.ID.String()))
	return nil
}

// Format creates the MarkdownV2 subject and message for a plan
func Format(p *model.Plan) (subject, message string) {
	subject = "*" + render.EscapeMarkdownV2(
		fmt.Sprintf("New pit strategy (%s)", p.ID.String()[:8])) + "*"
	parts := make([]string, 0, len(p.Strategies)+1)
	parts = append(parts, render.EscapeMarkdownV2(fmt.Sprintf(
		"Race %s, lap %s, %s L/lap, tank %d L",
		render.HumanDuration(p.Input.ToStrategyInput().RaceDuration),
		render.HumanDuration(p.Input.ToStrategyInput().AvgLaptime),
		strconv.FormatFloat(p.Input.FuelPerLap, 'f', -1, 64),
		p.Input.FuelCapacity)))
	for i := range p.Strategies {
		parts = append(parts, render.MarkdownV2(p.Strategies[i].ToStrategy()))
	}
	return subject, strings.Join(parts, "\n\n")
}
