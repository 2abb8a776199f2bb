package attendance_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchattend/internal/apiclient"
	"churchattend/internal/attendance"
	"churchattend/internal/notify"
	"churchattend/internal/store"
)

type fakeBackend struct {
	mu       sync.Mutex
	records  map[string]string // studentClassId -> status as the backend reports it
	lagging  bool              // writes are accepted but not yet visible
	failWith error
	fetchErr error
	fetches  []time.Time
	writes   []string
}

func (f *fakeBackend) StudentAttendance(_ context.Context, date time.Time) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, date)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []map[string]any
	for id, st := range f.records {
		out = append(out, map[string]any{"studentClassId": id, "status": st})
	}
	return out, nil
}

func (f *fakeBackend) TeacherAttendance(ctx context.Context, date time.Time) ([]map[string]any, error) {
	return f.StudentAttendance(ctx, date)
}

func (f *fakeBackend) MarkStudentAttendance(_ context.Context, id string, _ time.Time, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, id+"="+status)
	if f.failWith != nil {
		return f.failWith
	}
	if !f.lagging {
		f.records[id] = status
	}
	return nil
}

func (f *fakeBackend) MarkTeacherAttendance(ctx context.Context, id string, date time.Time, status string) error {
	return f.MarkStudentAttendance(ctx, id, date, status)
}

var kst = time.FixedZone("KST", 9*3600)

func setup(t *testing.T, now time.Time, b *fakeBackend) (*attendance.Service, *store.Store) {
	t.Helper()
	cutoff, err := attendance.ParseCutoff("09:00", kst)
	require.NoError(t, err)
	clock := func() time.Time { return now }
	svc := attendance.NewService(b, cutoff, notify.Builder{}, clock)
	return svc, store.New(kst, clock)
}

func TestMarkBeforeCutoffAttends(t *testing.T) {
	b := &fakeBackend{records: map[string]string{"7": ""}}
	svc, st := setup(t, time.Date(2026, 10, 18, 8, 45, 0, 0, kst), b)

	res, err := svc.Mark(context.Background(), st, attendance.Students, "7")
	require.NoError(t, err)
	assert.Equal(t, attendance.Attended, res.Status)
	assert.False(t, res.Optimistic)
	assert.Equal(t, notify.Success, res.Notification.Kind)
	assert.Equal(t, []string{"7=ATTEND"}, b.writes)
}

func TestMarkAtCutoffIsLate(t *testing.T) {
	b := &fakeBackend{records: map[string]string{}}
	svc, st := setup(t, time.Date(2026, 10, 18, 9, 0, 0, 0, kst), b)

	res, err := svc.Mark(context.Background(), st, attendance.Teachers, "3")
	require.NoError(t, err)
	assert.Equal(t, attendance.Late, res.Status)
}

func TestMarkKeepsOptimisticValueWhileBackendLags(t *testing.T) {
	b := &fakeBackend{records: map[string]string{"7": ""}, lagging: true}
	svc, st := setup(t, time.Date(2026, 10, 18, 8, 0, 0, 0, kst), b)

	res, err := svc.Mark(context.Background(), st, attendance.Students, "7")
	require.NoError(t, err)
	assert.Equal(t, attendance.Attended, res.Status)
	assert.True(t, res.Optimistic)
	assert.Equal(t, attendance.Attended, st.Status(attendance.Students, "7"))

	// once the backend catches up the overlay gives way to the real value
	b.lagging = false
	b.records["7"] = "ATTEND"
	require.NoError(t, svc.Refresh(context.Background(), st, attendance.Students))
	assert.False(t, st.HasOverlay(attendance.Students, "7"))
	assert.Equal(t, attendance.Attended, st.Status(attendance.Students, "7"))
}

func TestMarkFailureShowsAuthoritativeState(t *testing.T) {
	b := &fakeBackend{
		records:  map[string]string{"7": ""},
		failWith: &apiclient.APIError{Status: 400, Message: "등록되지 않은 학생입니다."},
	}
	svc, st := setup(t, time.Date(2026, 10, 18, 8, 0, 0, 0, kst), b)

	res, err := svc.Mark(context.Background(), st, attendance.Students, "7")
	require.Error(t, err)
	assert.Equal(t, attendance.Unmarked, res.Status)
	assert.Equal(t, notify.Validation, res.Notification.Kind)
	assert.Equal(t, "등록되지 않은 학생입니다.", res.Notification.Message)
	assert.False(t, st.HasOverlay(attendance.Students, "7"))
	assert.Len(t, b.fetches, 2, "load before the write and refresh after it")
}

func TestMarkGuardsAlreadyMarked(t *testing.T) {
	b := &fakeBackend{records: map[string]string{"7": "late"}}
	svc, st := setup(t, time.Date(2026, 10, 18, 8, 0, 0, 0, kst), b)
	require.NoError(t, svc.Refresh(context.Background(), st, attendance.Students))

	_, err := svc.Mark(context.Background(), st, attendance.Students, "7")
	assert.ErrorIs(t, err, attendance.ErrAlreadyMarked)
	assert.Empty(t, b.writes)
}

func TestMarkLoadsFreshSessionBeforeGuard(t *testing.T) {
	b := &fakeBackend{records: map[string]string{"7": "LATE"}}
	svc, st := setup(t, time.Date(2026, 10, 18, 8, 45, 0, 0, kst), b)
	require.False(t, st.Loaded(attendance.Students))

	_, err := svc.Mark(context.Background(), st, attendance.Students, "7")
	assert.ErrorIs(t, err, attendance.ErrAlreadyMarked)
	assert.Empty(t, b.writes)
	assert.Equal(t, "LATE", b.records["7"])
	assert.True(t, st.Loaded(attendance.Students))
}

func TestMarkDoesNotWriteWhenLoadFails(t *testing.T) {
	b := &fakeBackend{
		records:  map[string]string{"7": "ATTEND"},
		fetchErr: &apiclient.APIError{Status: 500, Message: "internal"},
	}
	svc, st := setup(t, time.Date(2026, 10, 18, 8, 45, 0, 0, kst), b)

	res, err := svc.Mark(context.Background(), st, attendance.Students, "7")
	require.Error(t, err)
	assert.Empty(t, b.writes)
	assert.Equal(t, attendance.Unmarked, res.Status)
	assert.Equal(t, notify.Server, res.Notification.Kind)

	_, err = svc.SetStatus(context.Background(), st, attendance.Students, "7", attendance.Absent)
	require.Error(t, err)
	assert.Empty(t, b.writes)
}

func TestSetStatusBypassesGuard(t *testing.T) {
	b := &fakeBackend{records: map[string]string{"7": "ATTEND"}}
	svc, st := setup(t, time.Date(2026, 10, 18, 11, 0, 0, 0, kst), b)
	require.NoError(t, svc.Refresh(context.Background(), st, attendance.Students))

	res, err := svc.SetStatus(context.Background(), st, attendance.Students, "7", attendance.Absent)
	require.NoError(t, err)
	assert.Equal(t, attendance.Absent, res.Status)

	_, err = svc.SetStatus(context.Background(), st, attendance.Students, "7", attendance.Unmarked)
	assert.ErrorIs(t, err, attendance.ErrInvalidStatus)
}

func TestRefreshUsesSelectedDate(t *testing.T) {
	b := &fakeBackend{records: map[string]string{}}
	svc, st := setup(t, time.Date(2026, 10, 18, 8, 0, 0, 0, kst), b)

	d := time.Date(2026, 10, 11, 0, 0, 0, 0, kst)
	st.SetSelectedDate(d)
	require.NoError(t, svc.Refresh(context.Background(), st, attendance.Students))
	require.Len(t, b.fetches, 1)
	assert.True(t, b.fetches[0].Equal(d))
}

func TestRefreshCountsUnknownStatus(t *testing.T) {
	b := &fakeBackend{records: map[string]string{"1": "EXCUSED"}}
	svc, st := setup(t, time.Date(2026, 10, 18, 8, 0, 0, 0, kst), b)
	require.NoError(t, svc.Refresh(context.Background(), st, attendance.Students))
	assert.Equal(t, attendance.Unmarked, st.Status(attendance.Students, "1"))
}
