package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ErrInvalidPolicy marks a ReminderPolicy that breaks its invariants.
var ErrInvalidPolicy = errors.New("invalid reminder policy")

// DefaultEscalationThreshold is used when escalation is switched on without a value.
const DefaultEscalationThreshold = 60

// ReminderPolicy governs how often and when a Task's owner is nudged.
type ReminderPolicy struct {
	ID             uint          `gorm:"primaryKey"`
	TaskID         uint          `gorm:"index;not null"`
	FrequencyKind  FrequencyKind `gorm:"size:32;not null"`
	FrequencyValue int           `gorm:"not null"`
	// ActiveStart and ActiveEnd are set together or not at all; unset means 24/7.
	ActiveStart         *ClockTime
	ActiveEnd           *ClockTime
	EscalationEnabled   bool `gorm:"default:false"`
	EscalationThreshold int  `gorm:"default:60"`
	CustomMessages      datatypes.JSONSlice[string]
	LastFiredAt         *time.Time
	// NextFireAt is advisory only; due-ness is always re-derived from LastFiredAt.
	NextFireAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p ReminderPolicy) Frequency() Frequency {
	return NewFrequency(p.FrequencyKind, p.FrequencyValue)
}

// Window returns the active-hours window, if one is configured.
func (p ReminderPolicy) Window() (ActiveHours, bool) {
	if p.ActiveStart == nil || p.ActiveEnd == nil {
		return ActiveHours{}, false
	}
	return ActiveHours{Start: *p.ActiveStart, End: *p.ActiveEnd}, true
}

func (p *ReminderPolicy) SetWindow(w *ActiveHours) {
	if w == nil {
		p.ActiveStart, p.ActiveEnd = nil, nil
		return
	}
	start, end := w.Start, w.End
	p.ActiveStart, p.ActiveEnd = &start, &end
}

// EscalationWindow is the threshold as a duration, capped at MaxIntervalMinutes.
func (p ReminderPolicy) EscalationWindow() time.Duration {
	return time.Duration(min(p.EscalationThreshold, MaxIntervalMinutes)) * time.Minute
}

// Validate checks the invariants the decision engine relies on.
func (p ReminderPolicy) Validate() error {
	if !p.FrequencyKind.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidPolicy, p.FrequencyKind)
	}
	if p.FrequencyValue <= 0 {
		return fmt.Errorf("%w: frequency must be positive, got %d", ErrInvalidPolicy, p.FrequencyValue)
	}
	if limit := p.FrequencyKind.MaxValue(); p.FrequencyValue > limit {
		return fmt.Errorf("%w: %s frequency above %d, got %d", ErrInvalidPolicy, p.FrequencyKind, limit, p.FrequencyValue)
	}
	if p.EscalationEnabled && p.EscalationThreshold <= 0 {
		return fmt.Errorf("%w: escalation threshold must be positive, got %d", ErrInvalidPolicy, p.EscalationThreshold)
	}
	if p.EscalationThreshold > MaxIntervalMinutes {
		return fmt.Errorf("%w: escalation threshold above %d minutes, got %d", ErrInvalidPolicy, MaxIntervalMinutes, p.EscalationThreshold)
	}
	if (p.ActiveStart == nil) != (p.ActiveEnd == nil) {
		return fmt.Errorf("%w: active hours need both start and end", ErrInvalidPolicy)
	}
	if p.ActiveStart != nil && (!p.ActiveStart.Valid() || !p.ActiveEnd.Valid()) {
		return fmt.Errorf("%w: active hours out of range", ErrInvalidPolicy)
	}
	return nil
}
