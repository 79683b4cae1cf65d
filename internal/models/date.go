package models

import (
	"time"

	"gorm.io/datatypes"
)

// DateOf drops the clock and zone from t, keeping its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LocalDate is the calendar date of now as seen in loc.
func LocalDate(now time.Time, loc *time.Location) time.Time {
	return DateOf(now.In(loc))
}

// Day converts a calendar date into the column type used for entries and prompts.
func Day(t time.Time) datatypes.Date {
	return datatypes.Date(DateOf(t))
}
