package model

import "time"

// Flavor tags a reminder message as normal or escalated.
type Flavor string

const (
	FlavorNormal    Flavor = "normal"
	FlavorEscalated Flavor = "escalated"
)

// DeliveryRecord is an append-only audit row written after each sent reminder.
type DeliveryRecord struct {
	ID     uint      `gorm:"primaryKey"`
	TaskID uint      `gorm:"index;not null"`
	SentAt time.Time `gorm:"not null"`
	Flavor Flavor    `gorm:"size:16;not null"`
}

// PendingReminder is one (task, policy) pair eligible for evaluation, together with
// the task owner needed to address and localize the message.
type PendingReminder struct {
	Task   Task
	Policy ReminderPolicy
	Owner  User
}
