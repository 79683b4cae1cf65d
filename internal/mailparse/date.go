package mailparse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrParseFailure means no usable calendar date was found in a subject.
var ErrParseFailure = errors.New("no date found in subject")

const monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

type dateForm struct {
	re               *regexp.Regexp
	year, month, day int
	numericMonth     bool
}

// Forms the prompt subjects have used, plus the numeric ones mail clients
// sometimes rewrite them into.
var dateForms = []dateForm{
	// Nov. 15, 2023 / November 15th 2023
	{re: regexp.MustCompile(`(?i)\b` + monthPattern + `\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`), month: 1, day: 2, year: 3},
	// 15 Nov 2023 / 15th November, 2023
	{re: regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+` + monthPattern + `,?\s+(\d{4})\b`), day: 1, month: 2, year: 3},
	// 2023-11-15
	{re: regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`), year: 1, month: 2, day: 3, numericMonth: true},
	// 11/15/2023
	{re: regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`), month: 1, day: 2, year: 3, numericMonth: true},
}

// ParsePromptDate finds the first calendar date written in subject, skipping
// any surrounding prose such as "RE: It's Wednesday, ... How are you?".
// The result is midnight UTC on that date.
func ParsePromptDate(subject string) (time.Time, error) {
	start := -1
	var groups []string
	var form dateForm
	for _, f := range dateForms {
		loc := f.re.FindStringSubmatchIndex(subject)
		if loc == nil || (start >= 0 && loc[0] >= start) {
			continue
		}
		start = loc[0]
		form = f
		groups = make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = subject[loc[2*i]:loc[2*i+1]]
			}
		}
	}
	if start < 0 {
		return time.Time{}, ErrParseFailure
	}

	year, _ := strconv.Atoi(groups[form.year])
	day, _ := strconv.Atoi(groups[form.day])
	var month time.Month
	if form.numericMonth {
		m, _ := strconv.Atoi(groups[form.month])
		month = time.Month(m)
	} else {
		month = months[strings.ToLower(groups[form.month])[:3]]
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range values, so Feb 30 comes back as March.
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, ErrParseFailure
	}
	return t, nil
}
