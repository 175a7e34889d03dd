// Package telegram delivers alerts through the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"solana-buy-alert/internal/alert"
)

// DefaultTimeout bounds a single Bot API request.
const DefaultTimeout = 30 * time.Second

// Options configures the Bot API client.
type Options struct {
	Endpoint   string // API endpoint format, default tgbotapi.APIEndpoint
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// Sink implements alert.Sink on top of a Telegram bot.
type Sink struct {
	bot *tgbotapi.BotAPI
	log logrus.FieldLogger
}

// Compile-time interface check.
var _ alert.Sink = (*Sink)(nil)

// New authenticates token against the Bot API and returns a Sink.
func New(token string, opts Options) (*Sink, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect bot api: %w", err)
	}
	return NewWithBot(bot, opts.Logger), nil
}

// NewWithBot wraps an existing bot.
func NewWithBot(bot *tgbotapi.BotAPI, logger logrus.FieldLogger) *Sink {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Sink{
		bot: bot,
		log: logger.WithFields(logrus.Fields{"component": "telegram", "bot": bot.Self.UserName}),
	}
}

// Username returns the bot's username.
func (s *Sink) Username() string {
	return s.bot.Self.UserName
}

// Send posts the alert as a photo with caption, or as plain text when no
// image is configured.
func (s *Sink) Send(ctx context.Context, destination int64, caption string, image alert.Image) (alert.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return alert.MessageRef{}, err
	}

	var msg tgbotapi.Chattable
	switch {
	case image.Path != "":
		photo := tgbotapi.NewPhoto(destination, tgbotapi.FilePath(image.Path))
		photo.Caption = caption
		msg = photo
	case image.URL != "":
		photo := tgbotapi.NewPhoto(destination, tgbotapi.FileURL(image.URL))
		photo.Caption = caption
		msg = photo
	default:
		msg = tgbotapi.NewMessage(destination, caption)
	}

	sent, err := s.bot.Send(msg)
	if err != nil {
		return alert.MessageRef{}, fmt.Errorf("send to %d: %w", destination, err)
	}
	return alert.MessageRef{Destination: destination, MessageID: sent.MessageID}, nil
}

// Delete removes a previously sent message.
func (s *Sink) Delete(ctx context.Context, ref alert.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.bot.Request(tgbotapi.NewDeleteMessage(ref.Destination, ref.MessageID)); err != nil {
		return fmt.Errorf("delete message %d in %d: %w", ref.MessageID, ref.Destination, err)
	}
	return nil
}
