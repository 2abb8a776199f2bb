// Package calendar builds the month grid of the date picker and the
// birthday widget. No date after today can be selected or navigated to.
package calendar

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"churchattend/internal/model"
)

var (
	ErrFutureDate  = errors.New("date is in the future")
	ErrFutureMonth = errors.New("month starts in the future")
)

// Day drops the time of day, keeping t's location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsFuture reports whether d falls on a later day than today. today is
// converted to d's location first.
func IsFuture(d, today time.Time) bool {
	return Day(d).After(Day(today.In(d.Location())))
}

// DaysIn returns the number of days in month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Cell is one day of the grid.
type Cell struct {
	Date      string           `json:"date"`
	Day       int              `json:"day"`
	Future    bool             `json:"future"`
	Today     bool             `json:"today"`
	Selected  bool             `json:"selected"`
	Birthdays []model.Birthday `json:"birthdays,omitempty"`
}

// Month is the grid for one month. Offset is the weekday of the 1st with
// Sunday as 0, i.e. the number of blank cells before it.
type Month struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Offset      int    `json:"offset"`
	DaysInMonth int    `json:"daysInMonth"`
	CanPrev     bool   `json:"canPrev"`
	CanNext     bool   `json:"canNext"`
	Days        []Cell `json:"days"`
}

// Grid lays out year/month as seen on today, marking selected and the
// birthdays that fall on each day.
func Grid(year int, month time.Month, today, selected time.Time, birthdays []model.Birthday) Month {
	loc := today.Location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	n := DaysIn(year, month)
	m := Month{
		Year:        year,
		Month:       int(month),
		Offset:      int(first.Weekday()),
		DaysInMonth: n,
		CanPrev:     true,
		CanNext:     CanNavigate(first.AddDate(0, 1, 0), today),
		Days:        make([]Cell, 0, n),
	}
	t0 := Day(today)
	sel := Day(selected.In(loc))
	for d := 1; d <= n; d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, loc)
		m.Days = append(m.Days, Cell{
			Date:      date.Format(time.DateOnly),
			Day:       d,
			Future:    IsFuture(date, today),
			Today:     date.Equal(t0),
			Selected:  date.Equal(sel),
			Birthdays: BirthdaysOn(birthdays, month, d),
		})
	}
	return m
}

// CanNavigate reports whether the month containing target may be shown:
// its first day must not be after today.
func CanNavigate(target, today time.Time) bool {
	first := time.Date(target.Year(), target.Month(), 1, 0, 0, 0, 0, target.Location())
	return !IsFuture(first, today)
}

// Select validates a date picked from the grid.
func Select(d, today time.Time) (time.Time, error) {
	if IsFuture(d, today) {
		return time.Time{}, ErrFutureDate
	}
	return Day(d), nil
}

// MonthDay extracts month and day from "YYYY-MM-DD", "MM-DD" or "MMDD".
func MonthDay(s string) (time.Month, int, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 10 {
		s = s[5:10]
	}
	s = strings.ReplaceAll(s, "-", "")
	if len(s) != 4 {
		return 0, 0, false
	}
	m, err1 := strconv.Atoi(s[:2])
	d, err2 := strconv.Atoi(s[2:])
	if err1 != nil || err2 != nil || m < 1 || m > 12 || d < 1 || d > 31 {
		return 0, 0, false
	}
	return time.Month(m), d, true
}

// BirthdaysOn returns the entries born on month/day.
func BirthdaysOn(list []model.Birthday, month time.Month, day int) []model.Birthday {
	var out []model.Birthday
	for _, b := range list {
		if m, d, ok := MonthDay(b.Birthday); ok && m == month && d == day {
			out = append(out, b)
		}
	}
	return out
}
