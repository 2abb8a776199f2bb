package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchattend/internal/model"
)

var kst = time.FixedZone("KST", 9*3600)

func TestIsFutureZeroesTimeOfDay(t *testing.T) {
	today := time.Date(2026, 10, 19, 23, 59, 0, 0, kst)
	assert.False(t, IsFuture(time.Date(2026, 10, 19, 0, 0, 0, 0, kst), today))
	assert.False(t, IsFuture(time.Date(2026, 10, 19, 23, 59, 59, 0, kst), time.Date(2026, 10, 19, 0, 0, 1, 0, kst)), "today is never future")
	assert.True(t, IsFuture(time.Date(2026, 10, 20, 0, 0, 0, 0, kst), today))
	assert.False(t, IsFuture(time.Date(2026, 9, 30, 12, 0, 0, 0, kst), today))
}

func TestGridMatchesFutureRule(t *testing.T) {
	today := time.Date(2026, 10, 19, 14, 0, 0, 0, kst)
	for _, month := range []time.Month{time.February, time.October, time.November} {
		g := Grid(2026, month, today, today, nil)
		require.Len(t, g.Days, g.DaysInMonth)
		for _, c := range g.Days {
			d := time.Date(2026, month, c.Day, 0, 0, 0, 0, kst)
			assert.Equal(t, d.After(Day(today)), c.Future, c.Date)
		}
	}
}

func TestGridLayout(t *testing.T) {
	today := time.Date(2026, 10, 19, 9, 0, 0, 0, kst)
	g := Grid(2026, time.October, today, time.Date(2026, 10, 11, 0, 0, 0, 0, kst), []model.Birthday{
		{Name: "윤하은", Birthday: "2012-10-03"},
		{Name: "Lee", Birthday: "10-03"},
		{Name: "오늘", Birthday: "2010-10-19"},
	})

	assert.Equal(t, 4, g.Offset, "1 Oct 2026 is a Thursday")
	assert.Equal(t, 31, g.DaysInMonth)
	assert.False(t, g.CanNext)
	assert.Len(t, g.Days[2].Birthdays, 2)
	assert.True(t, g.Days[18].Today)
	assert.False(t, g.Days[18].Future)
	assert.True(t, g.Days[19].Future)
	assert.True(t, g.Days[10].Selected)
}

func TestDaysInLeapYear(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2028, time.February))
	assert.Equal(t, 28, DaysIn(2026, time.February))
}

func TestCanNavigate(t *testing.T) {
	today := time.Date(2026, 10, 19, 0, 0, 0, 0, kst)
	assert.True(t, CanNavigate(time.Date(2026, 10, 31, 0, 0, 0, 0, kst), today))
	assert.False(t, CanNavigate(time.Date(2026, 11, 1, 0, 0, 0, 0, kst), today))
	assert.True(t, CanNavigate(time.Date(2025, 12, 1, 0, 0, 0, 0, kst), today))

	// on the 1st itself the month is reachable
	assert.True(t, CanNavigate(time.Date(2026, 11, 1, 0, 0, 0, 0, kst), time.Date(2026, 11, 1, 0, 0, 0, 0, kst)))
}

func TestSelect(t *testing.T) {
	today := time.Date(2026, 10, 19, 8, 0, 0, 0, kst)
	_, err := Select(time.Date(2026, 10, 20, 0, 0, 0, 0, kst), today)
	assert.ErrorIs(t, err, ErrFutureDate)

	d, err := Select(time.Date(2026, 10, 19, 17, 0, 0, 0, kst), today)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Hour())
}

func TestMonthDay(t *testing.T) {
	m, d, ok := MonthDay("2011-03-07")
	assert.True(t, ok)
	assert.Equal(t, time.March, m)
	assert.Equal(t, 7, d)

	_, _, ok = MonthDay("13-40")
	assert.False(t, ok)
	_, _, ok = MonthDay("")
	assert.False(t, ok)
}

func TestTickerRotatesTodaysBirthdays(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, kst)
	var asked int
	load := func(_ context.Context, month int) ([]model.Birthday, error) {
		asked = month
		return []model.Birthday{
			{ID: 1, Name: "a", Birthday: "2012-10-19"},
			{ID: 2, Name: "b", Birthday: "2013-10-20"},
			{ID: 3, Name: "c", Birthday: "2011-10-19"},
		}, nil
	}
	tk := NewTicker(load, kst, func() time.Time { return now }, time.Hour)
	require.NoError(t, tk.Reload(context.Background()))
	assert.Equal(t, 10, asked)

	b, n, ok := tk.Current()
	require.True(t, ok)
	assert.Equal(t, 2, n)
	assert.EqualValues(t, 1, b.ID)

	tk.Rotate()
	b, _, _ = tk.Current()
	assert.EqualValues(t, 3, b.ID)
	tk.Rotate()
	b, _, _ = tk.Current()
	assert.EqualValues(t, 1, b.ID)
}

func TestTickerStopHaltsRotation(t *testing.T) {
	load := func(context.Context, int) ([]model.Birthday, error) {
		return []model.Birthday{{ID: 1, Birthday: "10-19"}, {ID: 2, Birthday: "10-19"}}, nil
	}
	tk := NewTicker(load, kst, func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, kst) }, time.Hour)
	require.NoError(t, tk.Start(context.Background()))
	tk.Stop()

	tk.Rotate()
	b, _, ok := tk.Current()
	require.True(t, ok)
	assert.EqualValues(t, 1, b.ID)
}

func TestTickerLoadError(t *testing.T) {
	tk := NewTicker(func(context.Context, int) ([]model.Birthday, error) {
		return nil, errors.New("backend down")
	}, kst, nil, time.Hour)
	assert.Error(t, tk.Reload(context.Background()))
	_, _, ok := tk.Current()
	assert.False(t, ok)
}
