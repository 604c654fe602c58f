package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mpapenbr/pitstrategy/pkg/render"
	"github.com/mpapenbr/pitstrategy/pkg/strategy/parse"
)

const (
	commandStart = "start"
	commandHelp  = "help"
)

type helpApp struct {
	b *Bot
}

func (h *helpApp) AcceptCommand(command string) (bool, HandlerFunc) {
	if command == commandStart || command == commandHelp {
		return true, h.renderHelp
	}
	return false, nil
}

func (h *helpApp) renderHelp(ctx context.Context, msg *tgbotapi.Message) error {
	return h.b.send(msg.Chat.ID, helpText(), tgbotapi.ModeMarkdownV2)
}

func helpText() string {
	var b strings.Builder
	b.WriteString(render.EscapeMarkdownV2(
		"I calculate pit stop strategies for endurance races."))
	b.WriteString("\n\n")
	b.WriteString(usageText())
	b.WriteString("\n\n")
	b.WriteString(render.EscapeMarkdownV2(
		"/table - same arguments, shows the stints as table\n" +
			"/history - shows the latest calculations of this chat\n" +
			"Example: /strategy 240 2:18 3.25 110 2 -"))
	return b.String()
}

func usageText() string {
	return render.EscapeMarkdownV2("/strategy (or /s) ") +
		"`" + strings.ReplaceAll(parse.Usage, "`", "") + "`"
}
