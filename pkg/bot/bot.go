package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/metrics"
	"github.com/mpapenbr/pitstrategy/pkg/permission"
	planservice "github.com/mpapenbr/pitstrategy/pkg/service/plan"
)

// Source is used for plans created by the bot
const Source = "bot"

type (
	// Sender is the part of the telegram api used by the bot
	Sender interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	}
	HandlerFunc func(ctx context.Context, msg *tgbotapi.Message) error

	// Accepter returns a handler if it is responsible for the command
	Accepter interface {
		AcceptCommand(command string) (bool, HandlerFunc)
	}
)

type (
	Option func(*Bot)
	Bot    struct {
		sender       Sender
		service      *planservice.PlanService
		pe           permission.PermissionEvaluator
		metrics      *metrics.Metrics
		historyLimit int
		accepters    []Accepter
		mu           sync.Mutex
		chats        map[int64]struct{}
		l            *log.Logger
	}
)

func NewBot(sender Sender, opts ...Option) *Bot {
	ret := &Bot{
		sender:       sender,
		historyLimit: 5,
		chats:        map[int64]struct{}{},
		l:            log.Default().Named("bot"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.service == nil {
		ret.service = planservice.NewPlanService()
	}
	ret.accepters = []Accepter{
		&helpApp{b: ret},
		&strategyApp{b: ret},
	}
	return ret
}

func WithPlanService(s *planservice.PlanService) Option {
	return func(b *Bot) {
		b.service = s
	}
}

func WithPermissionEvaluator(pe permission.PermissionEvaluator) Option {
	return func(b *Bot) {
		b.pe = pe
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bot) {
		b.metrics = m
	}
}

func WithHistoryLimit(n int) Option {
	return func(b *Bot) {
		b.historyLimit = n
	}
}

// Run processes updates until ctx is done or the channel is closed
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	b.l.Info("Start listening for updates")
	for {
		select {
		case <-ctx.Done():
			b.l.Info("Stop listening for updates")
			return
		case update, ok := <-updates:
			if !ok {
				b.l.Info("Update channel closed")
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	msg := update.Message
	command := msg.Command()
	b.chatSeen(msg.Chat.ID)

	handler := b.lookup(command)
	if handler == nil {
		b.l.Debug("unknown command",
			log.String("command", command),
			log.Int64("chat", msg.Chat.ID))
		return
	}
	err := handler(ctx, msg)
	if err != nil {
		b.l.Warn("command failed",
			log.String("command", command),
			log.Int64("chat", msg.Chat.ID),
			log.ErrorField(err))
	}
	if b.metrics != nil {
		b.metrics.CommandExecuted(command, err == nil)
	}
}

func (b *Bot) lookup(command string) HandlerFunc {
	for _, a := range b.accepters {
		if ok, handler := a.AcceptCommand(command); ok {
			return handler
		}
	}
	return nil
}

func (b *Bot) chatSeen(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.chats[chatID]; ok {
		return
	}
	b.chats[chatID] = struct{}{}
	if b.metrics != nil {
		b.metrics.SetChatsSeen(len(b.chats))
	}
}

func (b *Bot) send(chatID int64, text, parseMode string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	_, err := b.sender.Send(msg)
	return errors.Wrapf(err, "send message to chat %d", chatID)
}
