// Package telegram adapts the Telegram Bot API to the transport contract and
// dispatches inbound updates onto the application services. Everything here
// is I/O glue; session semantics live in runtime and services.
package telegram

import (
	"anonchat/domain"
	"anonchat/errors"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
)

// Client wraps the Bot API behind contract.Transport. The underlying HTTP
// client carries the delivery timeout, so no call outlives its deadline even
// though the Bot API library predates context support.
type Client struct {
	api *tgbotapi.BotAPI
	log *slog.Logger
}

func NewClient(token string, timeout time.Duration, log *slog.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram authorization failed: %w", err)
	}
	log.Info("Authorized on Telegram", "account", api.Self.UserName)
	return &Client{api: api, log: log}, nil
}

func (c *Client) Send(ctx context.Context, to domain.UserHandle, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Send(toChattable(int64(to), msg)); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrDeliveryFailed, err)
	}
	return nil
}

func (c *Client) LookupDisplayInfo(ctx context.Context, h domain.UserHandle) (domain.DisplayInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.DisplayInfo{}, err
	}
	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: int64(h)},
	})
	if err != nil {
		return domain.DisplayInfo{}, fmt.Errorf("chat lookup failed: %w", err)
	}
	name := strings.TrimSpace(chat.FirstName + " " + chat.LastName)
	if name == "" {
		name = chat.UserName
	}
	return domain.DisplayInfo{Name: name}, nil
}

// InviteLink exports the invite link of the configured community group.
func (c *Client) InviteLink(chatID int64) (string, error) {
	return c.api.GetInviteLink(tgbotapi.ChatInviteLinkConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
}

// Poll switches the bot to long-polling mode and returns the update stream.
func (c *Client) Poll(timeoutSeconds int) (tgbotapi.UpdatesChannel, error) {
	if _, err := c.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return nil, fmt.Errorf("failed to clear webhook: %w", err)
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSeconds
	return c.api.GetUpdatesChan(u), nil
}

// ListenWebhook registers the webhook with Telegram and returns the update
// stream fed by the handler mounted at path. The caller owns the HTTP server.
func (c *Client) ListenWebhook(publicURL, path string) (tgbotapi.UpdatesChannel, error) {
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(publicURL, "/") + path)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url: %w", err)
	}
	if _, err := c.api.Request(wh); err != nil {
		return nil, fmt.Errorf("failed to register webhook: %w", err)
	}
	return c.api.ListenForWebhook(path), nil
}

func (c *Client) StopPolling() {
	c.api.StopReceivingUpdates()
}

// AnswerCallback acknowledges a button press so the client stops its spinner.
func (c *Client) AnswerCallback(callbackID, text string) {
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		c.log.Warn("Callback answer failed", "error", err)
	}
}

// EditText rewrites the prompt message after a callback resolved, removing
// its keyboard so the buttons cannot be pressed twice.
func (c *Client) EditText(chatID int64, messageID int, text string) {
	if _, err := c.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		c.log.Warn("Message edit failed", "error", err)
	}
}

func toChattable(chatID int64, msg domain.Message) tgbotapi.Chattable {
	if msg.Media != nil {
		file := tgbotapi.FileID(msg.Media.FileID)
		switch msg.Media.Kind {
		case domain.MediaPhoto:
			return tgbotapi.NewPhoto(chatID, file)
		case domain.MediaDocument:
			return tgbotapi.NewDocument(chatID, file)
		case domain.MediaVoice:
			return tgbotapi.NewVoice(chatID, file)
		case domain.MediaVideo:
			return tgbotapi.NewVideo(chatID, file)
		case domain.MediaSticker:
			return tgbotapi.NewSticker(chatID, file)
		case domain.MediaAnimation:
			return tgbotapi.NewAnimation(chatID, file)
		}
	}

	m := tgbotapi.NewMessage(chatID, msg.Text)
	if msg.Markdown {
		m.ParseMode = tgbotapi.ModeMarkdown
	}
	if len(msg.Buttons) > 0 {
		m.ReplyMarkup = toKeyboard(msg.Buttons)
	}
	return m
}

func toKeyboard(rows [][]domain.Button) tgbotapi.InlineKeyboardMarkup {
	keyboard := lo.Map(rows, func(row []domain.Button, _ int) []tgbotapi.InlineKeyboardButton {
		return lo.Map(row, func(b domain.Button, _ int) tgbotapi.InlineKeyboardButton {
			return tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Payload)
		})
	})
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}
