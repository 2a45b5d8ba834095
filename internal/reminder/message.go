package reminder

import (
	"fmt"
	"hash/fnv"
	"html"
	"strconv"
	"strings"
	"time"

	"nagger/internal/model"
)

const deadlineLayout = "2006-01-02 15:04"

// Render builds the HTML message for a due reminder. Deadlines are shown in loc.
func Render(task model.Task, policy model.ReminderPolicy, flavor model.Flavor, now time.Time, loc *time.Location) string {
	if flavor == model.FlavorEscalated {
		return renderEscalated(task, now, loc)
	}
	return renderNormal(task, policy, policy.LastFiredAt, loc)
}

// RenderTest builds the message sent by /test. It always uses the first custom variant.
func RenderTest(task model.Task, policy model.ReminderPolicy, loc *time.Location) string {
	return "🧪 <b>Test reminder</b>\n\n" + renderNormal(task, policy, nil, loc)
}

// VariantIndex picks a custom message deterministically from the last fire time.
// It returns 0 for the first reminder and is always within [0, n).
func VariantIndex(lastFired *time.Time, n int) int {
	if n <= 1 || lastFired == nil {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(lastFired.Unix(), 10)))
	return int(h.Sum32() % uint32(n))
}

func renderNormal(task model.Task, policy model.ReminderPolicy, lastFired *time.Time, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>Reminder</b>: %s\n\n", escape(task.Title)))

	body := strings.TrimSpace(task.Description)
	if n := len(policy.CustomMessages); n > 0 {
		body = strings.TrimSpace(policy.CustomMessages[VariantIndex(lastFired, n)])
	}
	if body != "" {
		b.WriteString(escape(body))
		b.WriteString("\n\n")
	}

	b.WriteString(fmt.Sprintf("⏰ Deadline: %s\n\n", formatDeadline(task.Deadline, loc)))
	b.WriteString(fmt.Sprintf("<i>Reply /done %d to mark as complete</i>", task.UserTaskID))
	return b.String()
}

func renderEscalated(task model.Task, now time.Time, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚨 <b>URGENT REMINDER</b>: %s\n\n", escape(task.Title)))
	if desc := strings.TrimSpace(task.Description); desc != "" {
		b.WriteString(escape(desc))
		b.WriteString("\n\n")
	}
	b.WriteString(fmt.Sprintf("⏰ Deadline: %s (%s left)\n\n", formatDeadline(task.Deadline, loc), FormatLeft(task.Remaining(now))))
	b.WriteString("<i>This task is approaching its deadline!</i>\n")
	b.WriteString(fmt.Sprintf("<i>Reply /done %d to mark as complete</i>", task.UserTaskID))
	return b.String()
}

// FormatLeft renders a remaining duration as "2h 5m" or "40m".
func FormatLeft(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func formatDeadline(deadline time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return deadline.In(loc).Format(deadlineLayout)
}

func escape(s string) string {
	return html.EscapeString(s)
}
