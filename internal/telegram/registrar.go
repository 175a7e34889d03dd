package telegram

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"solana-buy-alert/internal/storage"
)

const (
	// updatesTimeout is the getUpdates long-poll in seconds. It stays below
	// DefaultTimeout so the HTTP client does not cut the poll short.
	updatesTimeout = 20
	retryDelay     = 3 * time.Second
)

// Registrar records every chat the bot sees in a destination registry, and
// drops chats the bot was removed from.
type Registrar struct {
	bot   *tgbotapi.BotAPI
	store storage.DestinationStore
	log   logrus.FieldLogger
	after func(time.Duration) <-chan time.Time
}

// Registrar returns a Registrar that shares the sink's bot.
func (s *Sink) Registrar(store storage.DestinationStore) *Registrar {
	return &Registrar{
		bot:   s.bot,
		store: store,
		log:   s.log.WithField("component", "registrar"),
		after: time.After,
	}
}

// Run long-polls getUpdates until ctx is done. Bot API errors are logged and
// retried after a delay.
func (r *Registrar) Run(ctx context.Context) {
	offset := 0
	for ctx.Err() == nil {
		cfg := tgbotapi.NewUpdate(offset)
		cfg.Timeout = updatesTimeout

		updates, err := r.bot.GetUpdates(cfg)
		if err != nil {
			r.log.WithError(err).Warn("get updates failed")
			select {
			case <-ctx.Done():
				return
			case <-r.after(retryDelay):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			r.Handle(ctx, u)
		}
	}
}

// Handle applies one update to the registry.
func (r *Registrar) Handle(ctx context.Context, u tgbotapi.Update) {
	if m := u.MyChatMember; m != nil && (m.NewChatMember.WasKicked() || m.NewChatMember.HasLeft()) {
		err := r.store.Remove(ctx, m.Chat.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			r.log.WithError(err).WithField("chat_id", m.Chat.ID).Warn("failed to unregister chat")
		default:
			r.log.WithField("chat_id", m.Chat.ID).Info("unregistered chat")
		}
		return
	}

	chat := chatOf(u)
	if chat == nil {
		return
	}
	if err := r.store.Add(ctx, chat.ID); err != nil {
		r.log.WithError(err).WithField("chat_id", chat.ID).Warn("failed to register chat")
		return
	}
	r.log.WithFields(logrus.Fields{"chat_id": chat.ID, "title": chat.Title}).Debug("chat seen")
}

func chatOf(u tgbotapi.Update) *tgbotapi.Chat {
	switch {
	case u.Message != nil:
		return u.Message.Chat
	case u.EditedMessage != nil:
		return u.EditedMessage.Chat
	case u.ChannelPost != nil:
		return u.ChannelPost.Chat
	case u.MyChatMember != nil:
		return &u.MyChatMember.Chat
	default:
		return nil
	}
}
