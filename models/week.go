package models

import (
	"time"
)

const (
	MinWeek = 1
	MaxWeek = 53
	MinYear = 2020
	MaxYear = 2030
)

// WeeksInYear returns 52 or 53, the number of ISO weeks in year.
func WeeksInYear(year int) int {
	// Dec 28 always lies in the last ISO week of its year.
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// WeekStart returns the Monday of ISO week `week` in ISO year `year`.
func WeekStart(year, week int) Date {
	// Jan 4 is always in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := int(jan4.Weekday()+6) % 7
	monday := jan4.AddDate(0, 0, -offset+(week-1)*7)
	return DateOf(monday)
}

// WeekEnd returns the Sunday closing the ISO week.
func WeekEnd(year, week int) Date {
	return DateOf(WeekStart(year, week).AddDate(0, 0, 6))
}

func CurrentWeek(now time.Time) (year, week int) {
	return now.UTC().ISOWeek()
}
