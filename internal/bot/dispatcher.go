package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nagger/internal/model"
	"nagger/internal/service"
)

// messageSender is the part of *tgbotapi.BotAPI the dispatcher needs.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Dispatcher delivers reminder messages through Telegram.
type Dispatcher struct {
	api messageSender
}

func NewDispatcher(api messageSender) *Dispatcher {
	return &Dispatcher{api: api}
}

func (d *Dispatcher) Send(ctx context.Context, chatID int64, text string, flavor model.Flavor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := d.api.Send(msg); err != nil {
		return classifySendError(err, flavor)
	}
	return nil
}

// classifySendError separates permanent Telegram failures (bot blocked, chat gone)
// from transient ones.
func classifySendError(err error, flavor model.Flavor) error {
	code, message := 0, ""
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		code, message = apiErr.Code, apiErr.Message
	}

	lower := strings.ToLower(message)
	if code == 403 || (code == 400 && (strings.Contains(lower, "chat not found") || strings.Contains(lower, "user is deactivated"))) {
		return fmt.Errorf("send %s reminder: %w: %s", flavor, service.ErrDestinationUnreachable, message)
	}
	return fmt.Errorf("send %s reminder: %w", flavor, err)
}
