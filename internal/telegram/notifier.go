package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"taskline/internal/workers"
)

// MessageNotifier delivers worker-produced texts to a chat. In private
// chats the chat id equals the owner id.
type MessageNotifier struct {
	api *tgbotapi.BotAPI
}

// NewMessageNotifier creates a notifier over an authorized bot client.
func NewMessageNotifier(api *tgbotapi.BotAPI) *MessageNotifier {
	return &MessageNotifier{api: api}
}

// Notify sends a plain text message to the owner's chat.
func (n *MessageNotifier) Notify(_ context.Context, ownerID int64, text string) error {
	_, err := n.api.Send(tgbotapi.NewMessage(ownerID, text))
	return err
}

var _ workers.Notifier = (*MessageNotifier)(nil)
