package models

import "time"

type Participant struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	TelegramID int64     `gorm:"not null;uniqueIndex" json:"telegram_id"`
	Handle     string    `gorm:"size:64" json:"handle,omitempty"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}
