package model

import "time"

// Task is a user-owned unit of work with a deadline.
type Task struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"index;uniqueIndex:idx_user_task_seq"`
	UserTaskID  uint `gorm:"uniqueIndex:idx_user_task_seq"`
	User        User `gorm:"constraint:OnDelete:CASCADE"`
	Title       string
	Description string
	Deadline    time.Time `gorm:"index;not null"`
	IsCompleted bool      `gorm:"default:false"`
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Policies []ReminderPolicy `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// Remaining reports how long is left until the deadline; negative once overdue.
func (t Task) Remaining(now time.Time) time.Duration {
	return t.Deadline.Sub(now)
}

// Overdue is true once now is strictly past the deadline.
func (t Task) Overdue(now time.Time) bool {
	return now.After(t.Deadline)
}
