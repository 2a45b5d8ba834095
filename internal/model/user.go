package model

import "time"

// User stores Telegram user metadata.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	// Timezone is an IANA zone name; empty means the service default.
	Timezone string
	// TaskSeq is the last per-user task number handed out.
	TaskSeq   uint `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
