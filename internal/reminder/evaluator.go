// Package reminder decides when a task's owner must be nudged and what the nudge says.
// Everything here is pure: no I/O, no clocks, no mutation of the inputs.
package reminder

import (
	"fmt"
	"time"

	"nagger/internal/model"
)

// MinEscalatedInterval is the floor applied when escalation halves an interval.
const MinEscalatedInterval = 5 * time.Minute

// Decision is the outcome of evaluating one (task, policy) pair at a point in time.
type Decision struct {
	Fire      bool
	Escalated bool
}

func (d Decision) Flavor() model.Flavor {
	if d.Escalated {
		return model.FlavorEscalated
	}
	return model.FlavorNormal
}

// Evaluate combines ShouldFire with the flavor decision.
func Evaluate(task model.Task, policy model.ReminderPolicy, now time.Time, loc *time.Location) Decision {
	if !ShouldFire(task, policy, now, loc) {
		return Decision{}
	}
	return Decision{Fire: true, Escalated: IsEscalated(task, policy, now)}
}

// ShouldFire reports whether a reminder must go out at now. loc is the owner's zone
// and only matters for the active-hours check; nil means UTC.
func ShouldFire(task model.Task, policy model.ReminderPolicy, now time.Time, loc *time.Location) bool {
	if task.IsCompleted {
		return false
	}
	// No reminders past the deadline.
	if task.Overdue(now) {
		return false
	}
	if window, ok := policy.Window(); ok {
		if loc == nil {
			loc = time.UTC
		}
		if !window.Contains(model.ClockOf(now.In(loc))) {
			return false
		}
	}
	if policy.LastFiredAt == nil {
		return true
	}
	elapsed := now.Sub(*policy.LastFiredAt)
	return elapsed >= Interval(policy, IsEscalated(task, policy, now))
}

// IsEscalated is true when escalation is on and the deadline is within the threshold.
func IsEscalated(task model.Task, policy model.ReminderPolicy, now time.Time) bool {
	return policy.EscalationEnabled && task.Remaining(now) <= policy.EscalationWindow()
}

// Interval is the minimum spacing between two reminders of the policy. Escalation
// halves minute and hour based frequencies down to MinEscalatedInterval; a daily
// frequency is never shortened.
func Interval(policy model.ReminderPolicy, escalated bool) time.Duration {
	switch f := policy.Frequency().(type) {
	case model.Minutes:
		return minutesInterval(f.N, escalated)
	case model.Hours:
		if escalated {
			return halved(span(f.N, time.Hour))
		}
		return span(f.N, time.Hour)
	case model.Daily:
		return 24 * time.Hour
	case model.SpecificTimes:
		return minutesInterval(f.N, escalated)
	case model.Custom:
		return minutesInterval(f.N, escalated)
	default:
		panic(fmt.Sprintf("reminder: unhandled frequency %q", policy.FrequencyKind))
	}
}

func minutesInterval(n int, escalated bool) time.Duration {
	if escalated {
		return halved(span(n, time.Minute))
	}
	return span(n, time.Minute)
}

// span is n units as a duration, saturated at model.MaxIntervalMinutes.
func span(n int, unit time.Duration) time.Duration {
	limit := time.Duration(model.MaxIntervalMinutes) * time.Minute
	if n <= 0 {
		return 0
	}
	if int64(n) > int64(limit/unit) {
		return limit
	}
	return time.Duration(n) * unit
}

func halved(full time.Duration) time.Duration {
	d := (full / 2).Truncate(time.Minute)
	if d < MinEscalatedInterval {
		return MinEscalatedInterval
	}
	return d
}
