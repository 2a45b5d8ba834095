package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a local time of day in minutes after midnight (0..1439).
type ClockTime int

// ParseClock accepts "H:MM" or "HH:MM".
func ParseClock(raw string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	if len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return Clock(hour, minute), nil
}

func Clock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ClockOf returns the minute-of-day of t in its own location; seconds are dropped.
func ClockOf(t time.Time) ClockTime {
	return Clock(t.Hour(), t.Minute())
}

func (c ClockTime) Valid() bool {
	return c >= 0 && c < 24*60
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// ActiveHours is the local window during which reminders may go out. Start > End
// means the window wraps past midnight.
type ActiveHours struct {
	Start ClockTime
	End   ClockTime
}

// Contains tests membership inclusively at both ends.
func (w ActiveHours) Contains(t ClockTime) bool {
	if w.Start <= w.End {
		return w.Start <= t && t <= w.End
	}
	return t >= w.Start || t <= w.End
}

func (w ActiveHours) String() string {
	return w.Start.String() + "-" + w.End.String()
}
