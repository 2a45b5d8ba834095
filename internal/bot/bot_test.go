package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/datatypes"

	"nagger/internal/logger"
	"nagger/internal/model"
)

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestTrack(t *testing.T) {
	log, logs := observedLogger()
	msg := &tgbotapi.Message{From: &tgbotapi.User{ID: 7}}

	ok := track(log, "list", func(context.Context, *tgbotapi.Message) error { return nil })
	require.NoError(t, ok(context.Background(), msg))

	failing := track(log, "done", func(context.Context, *tgbotapi.Message) error { return errors.New("db down") })
	assert.EqualError(t, failing(context.Background(), msg), "db down")

	panicking := track(log, "q", func(context.Context, *tgbotapi.Message) error { panic("boom") })
	err := panicking(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "list", entries[0].ContextMap()["command"])
	assert.Equal(t, "ok", entries[0].ContextMap()["outcome"])
	assert.Equal(t, int64(7), entries[0].ContextMap()["user_id"])
	assert.Equal(t, "error", entries[1].ContextMap()["outcome"])
	assert.Equal(t, "q", entries[2].ContextMap()["command"])
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestFormatTask(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	policy := model.ReminderPolicy{
		FrequencyKind: model.FrequencyMinutes, FrequencyValue: 30,
		EscalationEnabled: true, EscalationThreshold: 60,
		CustomMessages: datatypes.JSONSlice[string]{"a", "b"},
	}
	policy.SetWindow(&model.ActiveHours{Start: model.Clock(8, 0), End: model.Clock(22, 0)})
	task := model.Task{UserTaskID: 3, Title: "Call <bank>", Deadline: now.Add(5 * time.Hour), Policies: []model.ReminderPolicy{policy}}

	text := formatTask(task, now, time.FixedZone("UTC+2", 2*60*60))
	assert.True(t, strings.HasPrefix(text, iconDue+" <b>#3</b> Call &lt;bank&gt;"))
	assert.Contains(t, text, "2025-03-10 21:00 · 5h 0m left")
	assert.Contains(t, text, "every 30 min · 08:00-22:00 · escalates 60m before · 2 custom messages")

	overdue := formatTask(model.Task{UserTaskID: 4, Title: "Late", Deadline: now.Add(-time.Minute)}, now, time.UTC)
	assert.Contains(t, overdue, iconOverdue)
	assert.Contains(t, overdue, "overdue")

	later := formatTask(model.Task{UserTaskID: 5, Title: "Later", Deadline: now.Add(72 * time.Hour)}, now, time.UTC)
	assert.True(t, strings.HasPrefix(later, iconDefault))
}

func TestFormatHistory(t *testing.T) {
	task := model.Task{UserTaskID: 2, Title: "Gym"}
	sent := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	empty := formatHistory(task, nil, time.UTC)
	assert.Contains(t, empty, "No reminders sent yet.")

	text := formatHistory(task, []model.DeliveryRecord{
		{SentAt: sent, Flavor: model.FlavorEscalated},
		{SentAt: sent.Add(-time.Hour), Flavor: model.FlavorNormal},
	}, time.UTC)
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "🚨 2025-03-10 14:00 escalated", lines[1])
	assert.Equal(t, "🔔 2025-03-10 13:00 normal", lines[2])
}

func TestDescribeFrequency(t *testing.T) {
	assert.Equal(t, "every 2 h", describeFrequency(model.ReminderPolicy{FrequencyKind: model.FrequencyHours, FrequencyValue: 2}))
	assert.Equal(t, "daily", describeFrequency(model.ReminderPolicy{FrequencyKind: model.FrequencyDaily, FrequencyValue: 1}))
	assert.Equal(t, "every 15 min (custom)", describeFrequency(model.ReminderPolicy{FrequencyKind: model.FrequencyCustom, FrequencyValue: 15}))
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "short", shortTitle("  short ", 10))
	assert.Equal(t, "abcd…", shortTitle("abcdefgh", 5))
}
