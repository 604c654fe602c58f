package announce

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nikoksr/notify"
	"github.com/pkg/errors"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram is a notify.Notifier sending messages with MarkdownV2 parse mode.
// subject and message are expected to be escaped already.
type Telegram struct {
	client    sender
	receivers []int64
}

var _ notify.Notifier = (*Telegram)(nil)

func NewTelegram(client sender, receivers ...int64) *Telegram {
	return &Telegram{client: client, receivers: receivers}
}

func (t *Telegram) SetClient(client sender) {
	t.client = client
}

func (t *Telegram) AddReceivers(chatIDs ...int64) {
	t.receivers = append(t.receivers, chatIDs...)
}

func (t *Telegram) Send(ctx context.Context, subject, message string) error {
	text := subject + "\n\n" + message
	for _, chatID := range t.receivers {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		if _, err := t.client.Send(msg); err != nil {
			return errors.Wrapf(err, "send announcement to chat %d", chatID)
		}
	}
	return nil
}
