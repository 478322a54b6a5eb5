// Package telegram binds the dialogue controller to the Telegram Bot API:
// it classifies updates into controller events and renders the
// controller's instructions back into messages and keyboards.
package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"taskline/internal/dialog"
)

// Bot runs the long-polling update loop. Updates are handled one at a
// time, which also serializes events per chat as the controller expects.
type Bot struct {
	api        *tgbotapi.BotAPI
	controller *dialog.Controller
	sessions   *dialog.Sessions
	throttle   *Throttle
	logger     *zap.Logger

	updateTimeout  int
	handleDeadline time.Duration
}

// Options configures the bot loop.
type Options struct {
	UpdateTimeout  int
	HandleDeadline time.Duration
	Throttle       *Throttle
}

// New creates the bot binding.
func New(api *tgbotapi.BotAPI, controller *dialog.Controller, sessions *dialog.Sessions, logger *zap.Logger, opts Options) *Bot {
	if opts.UpdateTimeout <= 0 {
		opts.UpdateTimeout = 30
	}
	if opts.HandleDeadline <= 0 {
		opts.HandleDeadline = 15 * time.Second
	}
	return &Bot{
		api:            api,
		controller:     controller,
		sessions:       sessions,
		throttle:       opts.Throttle,
		logger:         logger,
		updateTimeout:  opts.UpdateTimeout,
		handleDeadline: opts.HandleDeadline,
	}
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = b.updateTimeout

	updates := b.api.GetUpdatesChan(cfg)
	b.logger.Info("bot_started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	in, ok := classify(update)
	if !ok {
		return
	}

	handleCtx, cancel := context.WithTimeout(ctx, b.handleDeadline)
	defer cancel()

	if b.throttle != nil {
		allowed, err := b.throttle.Allow(handleCtx, in.event.OwnerID)
		if err != nil {
			b.logger.Warn("throttle_check_failed", zap.Error(err))
		} else if !allowed {
			b.answerCallback(in, "⏳ Slow down a little", false)
			return
		}
	}

	sess := b.sessions.Get(in.event.OwnerID)
	render := b.controller.Handle(handleCtx, sess, in.event)
	b.apply(in, render)
}

// inbound couples a classified event with the transport context needed to
// answer it (chat, message to edit, callback to acknowledge).
type inbound struct {
	event      dialog.Event
	chatID     int64
	messageID  int
	callbackID string
}

// classify maps a Telegram update onto the controller's event union.
func classify(update tgbotapi.Update) (inbound, bool) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		in := inbound{
			chatID:     cq.From.ID,
			callbackID: cq.ID,
			event: dialog.Event{
				Kind:    dialog.EventButton,
				OwnerID: cq.From.ID,
				Payload: cq.Data,
			},
		}
		if cq.Message != nil {
			in.chatID = cq.Message.Chat.ID
			in.messageID = cq.Message.MessageID
		}
		return in, true

	case update.Message != nil:
		msg := update.Message
		in := inbound{chatID: msg.Chat.ID}
		ev := dialog.Event{OwnerID: msg.From.ID}

		switch {
		case msg.IsCommand():
			ev.Kind = dialog.EventCommand
			ev.Command = msg.Command()
		case msg.Text != "":
			if command, ok := replyButtonCommand(msg.Text); ok {
				ev.Kind = dialog.EventCommand
				ev.Command = command
			} else {
				ev.Kind = dialog.EventText
				ev.Text = msg.Text
			}
		default:
			ev.Kind = dialog.EventNonText
		}

		in.event = ev
		return in, true
	}

	return inbound{}, false
}

// replyButtonCommand maps main reply-keyboard labels to commands. The
// cancel label is intentionally left as plain text so the flows can answer
// it with flow-specific cancellation notices.
func replyButtonCommand(text string) (string, bool) {
	switch text {
	case dialog.MainButtonNewTask:
		return "new_task", true
	case dialog.MainButtonMyTasks:
		return "my_tasks", true
	case dialog.MainButtonTimezone:
		return "set_timezone", true
	}
	return "", false
}

// apply delivers a render instruction back to Telegram.
func (b *Bot) apply(in inbound, render dialog.Render) {
	if in.callbackID != "" {
		b.answerCallback(in, render.Notice, render.Alert)
	} else if render.Notice != "" && render.Text != "" {
		// No callback to answer; fold the notice into the message itself
		render.Text = render.Notice + "\n\n" + render.Text
	}

	switch render.Mode {
	case dialog.RenderNone:

	case dialog.RenderSend:
		b.send(in.chatID, render)

	case dialog.RenderReplace:
		// Replacing only works on the message the button was attached to;
		// text-triggered renders degrade to a fresh message
		if in.messageID == 0 {
			b.send(in.chatID, render)
			return
		}
		edit := tgbotapi.NewEditMessageText(in.chatID, in.messageID, render.Text)
		if markup := inlineMarkup(render.Keyboard); markup != nil {
			edit.ReplyMarkup = markup
		}
		if _, err := b.api.Send(edit); err != nil {
			b.logger.Warn("failed_to_edit_message",
				zap.Int64("chat_id", in.chatID),
				zap.Error(err),
			)
		}

	case dialog.RenderKeyboardOnly:
		markup := inlineMarkup(render.Keyboard)
		if in.messageID == 0 || markup == nil {
			return
		}
		edit := tgbotapi.NewEditMessageReplyMarkup(in.chatID, in.messageID, *markup)
		if _, err := b.api.Send(edit); err != nil {
			b.logger.Warn("failed_to_edit_keyboard",
				zap.Int64("chat_id", in.chatID),
				zap.Error(err),
			)
		}
	}
}

func (b *Bot) send(chatID int64, render dialog.Render) {
	msg := tgbotapi.NewMessage(chatID, render.Text)
	if kb := render.Keyboard; kb != nil {
		if kb.Reply {
			msg.ReplyMarkup = replyMarkup(kb)
		} else if markup := inlineMarkup(kb); markup != nil {
			msg.ReplyMarkup = *markup
		}
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed_to_send_message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (b *Bot) answerCallback(in inbound, text string, alert bool) {
	if in.callbackID == "" {
		return
	}
	var cb tgbotapi.CallbackConfig
	if alert {
		cb = tgbotapi.NewCallbackWithAlert(in.callbackID, text)
	} else {
		cb = tgbotapi.NewCallback(in.callbackID, text)
	}
	if _, err := b.api.Request(cb); err != nil {
		b.logger.Warn("failed_to_answer_callback", zap.Error(err))
	}
}
