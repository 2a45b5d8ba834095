package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nagger/internal/logger"
	"nagger/internal/model"
	"nagger/internal/repository"
	"nagger/internal/service"
)

const (
	cbDonePrefix = "done:"
	cbClearYes   = "clear:yes"
	cbClearNo    = "clear:no"
)

const (
	menuLabelTasks = "📋 Tasks"
	menuLabelHelp  = "ℹ️ Help"
)

const historyLimit = 10

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /q title | deadline | frequency [| HH:MM-HH:MM] [| esc N] [| note text] [| say text] — add a task\n" +
	"   e.g. <code>/q Pay rent | 2025-11-30 18:00 | 2h | 09:00-21:00 | esc 120</code>\n" +
	"   deadline: <code>2025-11-30 18:00</code>, <code>30.11.2025 18:00</code>, <code>2025-11-30</code>, <code>in 3 hours</code>\n" +
	"   frequency: <code>30m</code>, <code>2h</code>, <code>daily</code>, <code>every 45 minutes</code>\n" +
	"• /remind N | frequency [| options] — add another reminder to task N\n" +
	"• /list — active tasks\n" +
	"• /done N — mark task N as complete\n" +
	"• /delete N — delete task N\n" +
	"• /test N — send a sample reminder for task N\n" +
	"• /history N — last reminders sent for task N\n" +
	"• /timezone [Area/City] — show or set your time zone\n" +
	"• /clear — delete all your tasks"

// Bot aggregates Telegram API with services.
type Bot struct {
	api       *tgbotapi.BotAPI
	userRepo  *repository.UserRepository
	taskSvc   *service.TaskService
	reminders *service.ReminderService
	zones     *service.ZoneResolver
	log       *logger.Logger
	commands  map[string]commandHandler
	now       func() time.Time
}

func New(api *tgbotapi.BotAPI, userRepo *repository.UserRepository, taskSvc *service.TaskService, reminders *service.ReminderService, zones *service.ZoneResolver, log *logger.Logger) *Bot {
	b := &Bot{
		api:       api,
		userRepo:  userRepo,
		taskSvc:   taskSvc,
		reminders: reminders,
		zones:     zones,
		log:       log.With("component", "bot"),
		now:       time.Now,
	}

	handlers := map[string]commandHandler{
		"start":    b.handleStart,
		"help":     b.handleHelp,
		"q":        b.handleQuickAdd,
		"remind":   b.handleRemind,
		"list":     b.handleList,
		"done":     b.handleDone,
		"delete":   b.handleDelete,
		"test":     b.handleTest,
		"history":  b.handleHistory,
		"timezone": b.handleTimezone,
		"clear":    b.handleClear,
	}
	b.commands = make(map[string]commandHandler, len(handlers))
	for name, h := range handlers {
		b.commands[name] = track(b.log, name, h)
	}

	b.log.Info("bot authorized", "account", api.Self.UserName)
	return b
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error("handle callback", "error", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error("handle message", "error", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		handler, ok := b.commands[msg.Command()]
		if !ok {
			return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
		}
		return handler(ctx, msg)
	}

	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case strings.ToLower(menuLabelTasks):
		return b.commands["list"](ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return b.commands["help"](ctx, msg)
	}
	return b.sendText(msg.Chat.ID, "I did not get that. Add a task with /q or see /help.")
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I will nag you about your tasks until they are done.</b>\n"+
		"Your time zone is <b>%s</b>, change it with /timezone.\n\n%s",
		escape(name), b.userLocation(user).String(), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(_ context.Context, msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, helpText)
}

func (b *Bot) handleQuickAdd(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	loc := b.userLocation(user)

	input, err := parseQuickAdd(msg.CommandArguments(), b.now(), loc)
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}

	task, err := b.taskSvc.CreateTask(ctx, user, input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Cannot save the task: %s", escape(err.Error())))
		}
		return err
	}

	b.log.Info("task created", "task_id", task.ID, "user_id", user.ID, "user_task_id", task.UserTaskID)
	return b.sendText(msg.Chat.ID, "✅ <b>Task saved</b>\n"+formatTask(*task, b.now(), loc))
}

func (b *Bot) handleRemind(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	number, input, err := parseRemind(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}

	policy, err := b.taskSvc.AttachPolicy(ctx, user, number, input)
	if err != nil {
		return b.replyTaskError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🔁 Reminder added to #%d: %s", number, describePolicy(*policy)))
}

func (b *Bot) handleList(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	number, err := parseTaskNumber(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give me the task number: /done 3")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.completeTask(ctx, msg.Chat.ID, user, number)
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, user *model.User, number uint) error {
	task, changed, err := b.taskSvc.CompleteTask(ctx, user, number)
	if err != nil {
		return b.replyTaskError(chatID, err)
	}
	if !changed {
		return b.sendText(chatID, fmt.Sprintf("Task #%d is already completed.", number))
	}
	b.log.Info("task completed", "task_id", task.ID, "user_id", user.ID)
	return b.sendText(chatID, fmt.Sprintf("✅ Task #%d «%s» completed. No more reminders for it.", number, escape(task.Title)))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	number, err := parseTaskNumber(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give me the task number: /delete 3")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.DeleteTask(ctx, user, number)
	if err != nil {
		return b.replyTaskError(msg.Chat.ID, err)
	}
	b.log.Info("task deleted", "task_id", task.ID, "user_id", user.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Task #%d «%s» deleted.", number, escape(task.Title)))
}

func (b *Bot) handleTest(ctx context.Context, msg *tgbotapi.Message) error {
	number, err := parseTaskNumber(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give me the task number: /test 3")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, user, number)
	if err != nil {
		return b.replyTaskError(msg.Chat.ID, err)
	}
	return b.reminders.SendTest(ctx, *user, *task)
}

func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message) error {
	number, err := parseTaskNumber(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give me the task number: /history 3")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	task, records, err := b.taskSvc.History(ctx, user, number, historyLimit)
	if err != nil {
		return b.replyTaskError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, formatHistory(*task, records, b.userLocation(user)))
}

func (b *Bot) handleTimezone(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		loc := b.userLocation(user)
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🌍 Your time zone is <b>%s</b> (now %s). Change it with <code>/timezone Europe/Berlin</code>.",
			loc.String(), b.now().In(loc).Format("15:04")))
	}

	loc, err := b.zones.Lookup(name)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Unknown time zone %s. Use an IANA name such as <code>Europe/Berlin</code>.", escape(name)))
	}
	if err := b.userRepo.SetTimezone(ctx, user, loc.String()); err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🌍 Time zone set to <b>%s</b>. Local time is %s.", loc.String(), b.now().In(loc).Format("15:04")))
}

func (b *Bot) handleClear(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, "Delete <b>all</b> your tasks and their reminder history?", clearKeyboard())
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", "error", err)
	}

	chatID := cb.Message.Chat.ID
	switch data := cb.Data; {
	case strings.HasPrefix(data, cbDonePrefix):
		number, err := strconv.ParseUint(strings.TrimPrefix(data, cbDonePrefix), 10, 32)
		if err != nil {
			return nil
		}
		user, err := b.ensureUser(ctx, cb.From)
		if err != nil {
			return err
		}
		return b.completeTask(ctx, chatID, user, uint(number))
	case data == cbClearYes:
		user, err := b.ensureUser(ctx, cb.From)
		if err != nil {
			return err
		}
		n, err := b.taskSvc.ClearAll(ctx, user)
		if err != nil {
			return err
		}
		b.log.Info("tasks cleared", "user_id", user.ID, "count", n)
		return b.sendText(chatID, fmt.Sprintf("🧹 Deleted %d tasks.", n))
	case data == cbClearNo:
		return b.sendText(chatID, "Nothing deleted.")
	default:
		return nil
	}
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.taskSvc.ListActive(ctx, user)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "You have no active tasks. Add one with /q.")
	}

	now := b.now()
	loc := b.userLocation(user)

	var builder strings.Builder
	builder.WriteString("📋 <b>Active tasks</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		builder.WriteString(formatTask(task, now, loc))
		builder.WriteByte('\n')
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.UserTaskID, shortTitle(task.Title, 24)), fmt.Sprintf("%s%d", cbDonePrefix, task.UserTaskID)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

// replyTaskError answers user-caused failures and passes the rest up.
func (b *Bot) replyTaskError(chatID int64, err error) error {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		return b.sendText(chatID, "Task not found. See /list for your task numbers.")
	case errors.Is(err, service.ErrInvalidInput):
		return b.sendText(chatID, escape(err.Error()))
	default:
		return err
	}
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) userLocation(user *model.User) *time.Location {
	return b.zones.Resolve(user.Timezone)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func clearKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete everything", cbClearYes),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Keep", cbClearNo),
		),
	)
}
