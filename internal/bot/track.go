package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nagger/internal/logger"
)

type commandHandler func(ctx context.Context, msg *tgbotapi.Message) error

// track wraps a command handler and logs its name, duration and outcome. A panic
// in the handler is turned into an error.
func track(log *logger.Logger, command string, next commandHandler) commandHandler {
	return func(ctx context.Context, msg *tgbotapi.Message) (err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("command /%s panicked: %v", command, r)
			}
			var userID int64
			if msg.From != nil {
				userID = msg.From.ID
			}
			if err != nil {
				log.Error("command failed", "command", command, "user_id", userID, "duration", time.Since(start), "outcome", "error", "error", err)
				return
			}
			log.Info("command handled", "command", command, "user_id", userID, "duration", time.Since(start), "outcome", "ok")
		}()
		return next(ctx, msg)
	}
}
