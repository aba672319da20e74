package nlu

import (
	"regexp"
	"strconv"
	"time"
)

// Date expressions resolve against the evaluation clock supplied by the
// caller, never the process wall clock, so extraction stays deterministic.

var (
	explicitDateRe = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	sinceDateRe    = regexp.MustCompile(`(?i)\bsince\s+(\d{4}-\d{2}-\d{2})\b`)
	lastNDaysRe    = regexp.MustCompile(`(?i)\b(?:last|past)\s+(\d+)\s+days?\b`)
	todayRe        = regexp.MustCompile(`(?i)\btoday\b`)
	yesterdayRe    = regexp.MustCompile(`(?i)\byesterday\b`)
	thisWeekRe     = regexp.MustCompile(`(?i)\bthis\s+week\b`)
	lastWeekRe     = regexp.MustCompile(`(?i)\b(?:last|past)\s+week\b`)
	thisMonthRe    = regexp.MustCompile(`(?i)\bthis\s+month\b`)
	lastMonthRe    = regexp.MustCompile(`(?i)\b(?:last|past)\s+month\b`)
)

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	day := truncateDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// resolveDateRange extracts a date range from the text relative to clock.
// It returns nil when the text carries no date expression.
func resolveDateRange(text string, clock time.Time) *DateRange {
	day := truncateDay(clock)

	switch {
	case sinceDateRe.MatchString(text):
		m := sinceDateRe.FindStringSubmatch(text)
		if start, err := time.ParseInLocation("2006-01-02", m[1], clock.Location()); err == nil {
			return &DateRange{Start: start, End: day}
		}
	case yesterdayRe.MatchString(text):
		y := day.AddDate(0, 0, -1)
		return &DateRange{Start: y, End: y}
	case todayRe.MatchString(text):
		return &DateRange{Start: day, End: day}
	case lastWeekRe.MatchString(text):
		thisMon := startOfWeek(day)
		return &DateRange{Start: thisMon.AddDate(0, 0, -7), End: thisMon.AddDate(0, 0, -1)}
	case thisWeekRe.MatchString(text):
		return &DateRange{Start: startOfWeek(day), End: day}
	case lastMonthRe.MatchString(text):
		firstOfThis := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return &DateRange{Start: firstOfThis.AddDate(0, -1, 0), End: firstOfThis.AddDate(0, 0, -1)}
	case thisMonthRe.MatchString(text):
		return &DateRange{Start: time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location()), End: day}
	case lastNDaysRe.MatchString(text):
		m := lastNDaysRe.FindStringSubmatch(text)
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > 3650 {
			return nil
		}
		return &DateRange{Start: day.AddDate(0, 0, -(n - 1)), End: day}
	}

	// Explicit dates: one is a single day, two are a range.
	dates := explicitDateRe.FindAllString(text, 2)
	switch len(dates) {
	case 1:
		if d, err := time.ParseInLocation("2006-01-02", dates[0], clock.Location()); err == nil {
			return &DateRange{Start: d, End: d}
		}
	case 2:
		d1, err1 := time.ParseInLocation("2006-01-02", dates[0], clock.Location())
		d2, err2 := time.ParseInLocation("2006-01-02", dates[1], clock.Location())
		if err1 == nil && err2 == nil {
			if d2.Before(d1) {
				d1, d2 = d2, d1
			}
			return &DateRange{Start: d1, End: d2}
		}
	}
	return nil
}
