package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"nagger/internal/model"
)

func TestNextFireHint(t *testing.T) {
	last := baseNow.Add(-10 * time.Minute)
	tests := []struct {
		name string
		kind model.FrequencyKind
		val  int
		want time.Time
	}{
		{name: "minutes", kind: model.FrequencyMinutes, val: 30, want: last.Add(30 * time.Minute)},
		{name: "hours", kind: model.FrequencyHours, val: 3, want: last.Add(3 * time.Hour)},
		{name: "daily", kind: model.FrequencyDaily, val: 1, want: last.Add(24 * time.Hour)},
		{name: "specific times", kind: model.FrequencySpecificTimes, val: 15, want: last.Add(15 * time.Minute)},
		{name: "custom", kind: model.FrequencyCustom, val: 50, want: last.Add(50 * time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := model.ReminderPolicy{FrequencyKind: tt.kind, FrequencyValue: tt.val, LastFiredAt: &last}
			assert.Equal(t, tt.want, NextFireHint(p, baseNow))
		})
	}
}

func TestNextFireHint_NeverFired(t *testing.T) {
	p := model.ReminderPolicy{FrequencyKind: model.FrequencyHours, FrequencyValue: 1}
	assert.Equal(t, baseNow, NextFireHint(p, baseNow))
}

func TestVariantIndex(t *testing.T) {
	assert.Equal(t, 0, VariantIndex(nil, 3))
	assert.Equal(t, 0, VariantIndex(ago(time.Minute), 1))
	assert.Equal(t, 0, VariantIndex(ago(time.Minute), 0))

	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		last := ago(time.Duration(i) * time.Minute)
		idx := VariantIndex(last, 3)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 3)
		assert.Equal(t, idx, VariantIndex(last, 3))
		seen[idx] = true
	}
	assert.Len(t, seen, 3)
}

func TestRender_Normal(t *testing.T) {
	task := model.Task{UserTaskID: 4, Title: "Pay <rent>", Description: "bank app", Deadline: time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)}
	p := model.ReminderPolicy{FrequencyKind: model.FrequencyMinutes, FrequencyValue: 30}

	msg := Render(task, p, model.FlavorNormal, baseNow, time.FixedZone("UTC+3", 3*60*60))
	assert.Contains(t, msg, "🔔 <b>Reminder</b>: Pay &lt;rent&gt;")
	assert.Contains(t, msg, "bank app")
	assert.Contains(t, msg, "⏰ Deadline: 2025-03-10 21:30")
	assert.Contains(t, msg, "/done 4")
}

func TestRender_CustomVariant(t *testing.T) {
	task := model.Task{UserTaskID: 4, Title: "Stretch", Description: "ignored", Deadline: baseNow.Add(time.Hour)}
	p := model.ReminderPolicy{
		FrequencyKind:  model.FrequencyMinutes,
		FrequencyValue: 30,
		CustomMessages: datatypes.JSONSlice[string]{"Stand up!", "Move a bit"},
		LastFiredAt:    ago(30 * time.Minute),
	}

	msg := Render(task, p, model.FlavorNormal, baseNow, nil)
	want := p.CustomMessages[VariantIndex(p.LastFiredAt, 2)]
	assert.Contains(t, msg, want)
	assert.NotContains(t, msg, "ignored")
}

func TestRender_Escalated(t *testing.T) {
	task := model.Task{UserTaskID: 9, Title: "Submit form", Description: "portal", Deadline: baseNow.Add(45 * time.Minute)}
	p := model.ReminderPolicy{
		FrequencyKind:  model.FrequencyMinutes,
		FrequencyValue: 30,
		CustomMessages: datatypes.JSONSlice[string]{"custom text"},
	}

	msg := Render(task, p, model.FlavorEscalated, baseNow, time.UTC)
	assert.Contains(t, msg, "🚨 <b>URGENT REMINDER</b>: Submit form")
	assert.Contains(t, msg, "(45m left)")
	assert.Contains(t, msg, "portal")
	assert.NotContains(t, msg, "custom text")
	assert.Contains(t, msg, "/done 9")
}

func TestRenderTest(t *testing.T) {
	task := model.Task{UserTaskID: 2, Title: "Call mom", Deadline: baseNow.Add(time.Hour)}
	p := model.ReminderPolicy{FrequencyKind: model.FrequencyHours, FrequencyValue: 1, CustomMessages: datatypes.JSONSlice[string]{"first", "second"}, LastFiredAt: ago(time.Hour)}

	msg := RenderTest(task, p, time.UTC)
	assert.Contains(t, msg, "Test reminder")
	assert.Contains(t, msg, "first")
}

func TestFormatLeft(t *testing.T) {
	assert.Equal(t, "45m", FormatLeft(45*time.Minute))
	assert.Equal(t, "2h 5m", FormatLeft(2*time.Hour+5*time.Minute+30*time.Second))
	assert.Equal(t, "0m", FormatLeft(-time.Minute))
}
