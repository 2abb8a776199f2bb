package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchattend/internal/attendance"
	"churchattend/internal/model"
)

var kst = time.FixedZone("KST", 9*3600)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore() (*Store, *fakeClock) {
	clk := &fakeClock{now: time.Date(2026, 10, 18, 10, 30, 0, 0, kst)}
	return New(kst, clk.Now), clk
}

func TestSelectedDateDefaultsToToday(t *testing.T) {
	s, _ := newTestStore()
	assert.True(t, s.SelectedDate().Equal(time.Date(2026, 10, 18, 0, 0, 0, 0, kst)))
}

func TestTicketsCarrySelectedDate(t *testing.T) {
	s, _ := newTestStore()
	d := time.Date(2026, 10, 11, 15, 0, 0, 0, kst)
	require.True(t, s.SetSelectedDate(d))
	assert.False(t, s.SetSelectedDate(d), "same day again is not a change")

	tk := s.Begin(attendance.Students)
	assert.True(t, tk.Date.Equal(time.Date(2026, 10, 11, 0, 0, 0, 0, kst)))
}

func TestApplyRejectsResultForOldDate(t *testing.T) {
	s, _ := newTestStore()
	old := s.Begin(attendance.Students)
	s.SetSelectedDate(time.Date(2026, 10, 11, 0, 0, 0, 0, kst))

	err := s.Apply(old, map[string]attendance.Status{"1": attendance.Attended})
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, attendance.Unmarked, s.Status(attendance.Students, "1"))
}

func TestApplyRejectsOutOfOrderResult(t *testing.T) {
	s, _ := newTestStore()
	first := s.Begin(attendance.Teachers)
	second := s.Begin(attendance.Teachers)

	require.NoError(t, s.Apply(second, map[string]attendance.Status{"1": attendance.Late}))
	assert.ErrorIs(t, s.Apply(first, map[string]attendance.Status{"1": attendance.Unmarked}), ErrStale)
	assert.Equal(t, attendance.Late, s.Status(attendance.Teachers, "1"))
}

func TestKindsAreIndependent(t *testing.T) {
	s, _ := newTestStore()
	st := s.Begin(attendance.Students)
	tt := s.Begin(attendance.Teachers)
	require.NoError(t, s.Apply(tt, map[string]attendance.Status{"1": attendance.Absent}))
	require.NoError(t, s.Apply(st, map[string]attendance.Status{"1": attendance.Attended}))
	assert.Equal(t, attendance.Absent, s.Status(attendance.Teachers, "1"))
	assert.Equal(t, attendance.Attended, s.Status(attendance.Students, "1"))
}

func TestOverlayLifecycle(t *testing.T) {
	s, clk := newTestStore()
	s.SetOverlay(attendance.Students, "9", attendance.Late)
	assert.Equal(t, attendance.Late, s.Status(attendance.Students, "9"))

	// backend has not caught up: overlay stays
	require.NoError(t, s.Apply(s.Begin(attendance.Students), map[string]attendance.Status{}))
	assert.Equal(t, attendance.Late, s.ReconcileOverlay(attendance.Students, "9"))
	assert.True(t, s.HasOverlay(attendance.Students, "9"))

	// it expires rather than living forever
	clk.Advance(DefaultOverlayTTL)
	assert.Equal(t, attendance.Unmarked, s.Status(attendance.Students, "9"))
	assert.False(t, s.HasOverlay(attendance.Students, "9"))
}

func TestDateChangeClearsDateScopedState(t *testing.T) {
	s, _ := newTestStore()
	s.SetStudents([]model.Student{{ID: 1, Name: "이요한"}})
	require.NoError(t, s.Apply(s.Begin(attendance.Students), map[string]attendance.Status{"1": attendance.Attended}))
	s.SetOverlay(attendance.Students, "2", attendance.Late)

	require.True(t, s.Loaded(attendance.Students))
	assert.False(t, s.Loaded(attendance.Teachers))

	s.SetSelectedDate(time.Date(2026, 10, 4, 0, 0, 0, 0, kst))
	assert.Empty(t, s.Statuses(attendance.Students))
	assert.False(t, s.Loaded(attendance.Students), "a new date needs a new fetch")
	assert.Len(t, s.Students(), 1, "roster is not date-scoped")
}

func TestStatusesMergesOverlays(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.Apply(s.Begin(attendance.Students), map[string]attendance.Status{"1": attendance.Absent}))
	s.SetOverlay(attendance.Students, "2", attendance.Attended)
	assert.Equal(t, map[string]attendance.Status{"1": attendance.Absent, "2": attendance.Attended}, s.Statuses(attendance.Students))
}

func TestSessionsSweep(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 10, 18, 10, 0, 0, 0, kst)}
	reg := NewSessions(kst, clk.Now)
	a := reg.Get("a")
	reg.Get("b")
	assert.Same(t, a, reg.Get("a"))

	clk.Advance(90 * time.Minute)
	reg.Get("b")
	assert.Equal(t, []string{"a"}, reg.Sweep(time.Hour))
	assert.Equal(t, 1, reg.Len())
}

func TestRedisHealthy(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr())
	defer r.Close()
	assert.True(t, r.Healthy(context.Background()))

	var nilRedis *Redis
	assert.False(t, nilRedis.Healthy(context.Background()))
}

func TestRosterKeepsLoadedEmptyApart(t *testing.T) {
	s, _ := newTestStore()
	assert.Nil(t, s.Students())
	s.SetStudents([]model.Student{})
	assert.NotNil(t, s.Students())
	assert.Empty(t, s.Students())
}
