package models

import (
	"time"

	"gorm.io/datatypes"
)

// Prompt records that the daily prompt for a date went out to a user.
// A row is only written after the provider accepted the message.
type Prompt struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_prompt_user_day,priority:1" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	When      datatypes.Date `gorm:"column:prompt_date;not null;uniqueIndex:idx_prompt_user_day,priority:2" json:"when"`
	MessageID string         `gorm:"size:255;not null" json:"message_id"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (Prompt) TableName() string {
	return "prompt"
}
