package models

import (
	"time"

	"gorm.io/datatypes"
)

// Entry stores the user's writing for one calendar day.
type Entry struct {
	ID        uint           `gorm:"primaryKey" json:"-"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_entry_user_day,priority:1" json:"-"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	When      datatypes.Date `gorm:"column:entry_date;not null;uniqueIndex:idx_entry_user_day,priority:2" json:"when"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time      `gorm:"not null" json:"-"`
	UpdatedAt time.Time      `gorm:"not null" json:"-"`
}

func (Entry) TableName() string {
	return "entry"
}

// Day returns the entry date as a UTC midnight time.
func (e Entry) Day() time.Time {
	return DateOf(time.Time(e.When))
}

// ExportedEntry is the shape of an entry in a user's JSON export.
type ExportedEntry struct {
	When string `json:"when"`
	Body string `json:"body"`
}
