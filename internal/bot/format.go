package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"nagger/internal/model"
	"nagger/internal/reminder"
)

const displayLayout = "2006-01-02 15:04"

const (
	iconDefault = "🟢"
	iconDue     = "⏳"
	iconOverdue = "⚠️"
)

func formatTask(task model.Task, now time.Time, loc *time.Location) string {
	var sb strings.Builder

	icon := iconDefault
	left := task.Remaining(now)
	switch {
	case task.Overdue(now):
		icon = iconOverdue
	case left <= 24*time.Hour:
		icon = iconDue
	}

	sb.WriteString(fmt.Sprintf("%s <b>#%d</b> %s", icon, task.UserTaskID, escape(task.Title)))
	deadline := task.Deadline.In(loc).Format(displayLayout)
	if task.Overdue(now) {
		sb.WriteString(fmt.Sprintf("\n   ⏰ %s · <b>overdue</b>", deadline))
	} else {
		sb.WriteString(fmt.Sprintf("\n   ⏰ %s · %s left", deadline, reminder.FormatLeft(left)))
	}
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", escape(task.Description)))
	}
	for _, policy := range task.Policies {
		sb.WriteString(fmt.Sprintf("\n   🔁 %s", describePolicy(policy)))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func describePolicy(p model.ReminderPolicy) string {
	parts := []string{describeFrequency(p)}
	if w, ok := p.Window(); ok {
		parts = append(parts, w.String())
	}
	if p.EscalationEnabled {
		parts = append(parts, fmt.Sprintf("escalates %dm before", p.EscalationThreshold))
	}
	if n := len(p.CustomMessages); n > 0 {
		parts = append(parts, fmt.Sprintf("%d custom messages", n))
	}
	return strings.Join(parts, " · ")
}

func describeFrequency(p model.ReminderPolicy) string {
	switch f := p.Frequency().(type) {
	case model.Minutes:
		return fmt.Sprintf("every %d min", f.N)
	case model.Hours:
		return fmt.Sprintf("every %d h", f.N)
	case model.Daily:
		return "daily"
	case model.SpecificTimes:
		return fmt.Sprintf("every %d min (specific times)", f.N)
	case model.Custom:
		return fmt.Sprintf("every %d min (custom)", f.N)
	default:
		return string(p.FrequencyKind)
	}
}

func formatHistory(task model.Task, records []model.DeliveryRecord, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📜 <b>History of #%d</b> %s\n", task.UserTaskID, escape(task.Title)))
	if len(records) == 0 {
		sb.WriteString("No reminders sent yet.")
		return sb.String()
	}
	for _, rec := range records {
		icon := "🔔"
		if rec.Flavor == model.FlavorEscalated {
			icon = "🚨"
		}
		sb.WriteString(fmt.Sprintf("%s %s %s\n", icon, rec.SentAt.In(loc).Format(displayLayout), rec.Flavor))
	}
	return strings.TrimSpace(sb.String())
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
