package reminder

import (
	"time"

	"nagger/internal/model"
)

// NextFireHint estimates when the policy will next be due. It is recorded for
// observability only and never consulted by ShouldFire.
func NextFireHint(policy model.ReminderPolicy, now time.Time) time.Time {
	if policy.LastFiredAt == nil {
		return now
	}
	last := *policy.LastFiredAt
	switch f := policy.Frequency().(type) {
	case model.Minutes:
		return last.Add(span(f.N, time.Minute))
	case model.Hours:
		return last.Add(span(f.N, time.Hour))
	case model.Daily:
		return last.AddDate(0, 0, 1)
	default:
		return last.Add(span(policy.FrequencyValue, time.Minute))
	}
}
