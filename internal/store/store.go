package store

import (
	"errors"
	"sync"
	"time"

	"churchattend/internal/attendance"
	"churchattend/internal/model"
)

// ErrStale is returned by Apply for a result that was overtaken by a newer
// fetch or by a change of the selected date.
var ErrStale = errors.New("stale attendance result")

// DefaultOverlayTTL bounds how long an optimistic status may stand in for
// the backend value.
const DefaultOverlayTTL = time.Minute

type overlay struct {
	status attendance.Status
	at     time.Time
}

type dated struct {
	issued   uint64
	applied  uint64
	loaded   bool
	statuses map[string]attendance.Status
	overlays map[string]overlay
}

// Store is the attendance state of one browser session: the selected date,
// the roster lists and the date-scoped attendance of each kind.
type Store struct {
	mu         sync.Mutex
	loc        *time.Location
	clock      func() time.Time
	overlayTTL time.Duration
	selected   time.Time
	lastSeen   time.Time

	students    []model.Student
	teachers    []model.Teacher
	enrollments []model.Enrollment
	lists       map[attendance.Kind]*dated
}

// New returns a store whose selected date is today in loc.
func New(loc *time.Location, clock func() time.Time) *Store {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = time.Now
	}
	s := &Store{
		loc:        loc,
		clock:      clock,
		overlayTTL: DefaultOverlayTTL,
		lists:      make(map[attendance.Kind]*dated),
	}
	now := clock()
	s.selected = dayIn(now, loc)
	s.lastSeen = now
	return s
}

// SetOverlayTTL changes how long optimistic statuses survive.
func (s *Store) SetOverlayTTL(d time.Duration) {
	s.mu.Lock()
	s.overlayTTL = d
	s.mu.Unlock()
}

func dayIn(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SelectedDate returns the date all date-scoped fetches use.
func (s *Store) SelectedDate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetSelectedDate switches the selected date. Date-scoped attendance and
// overlays are dropped; roster lists stay. It reports whether the date changed.
func (s *Store) SetSelectedDate(d time.Time) bool {
	d = dayIn(d, s.loc)
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Equal(s.selected) {
		return false
	}
	s.selected = d
	for _, l := range s.lists {
		l.statuses = make(map[string]attendance.Status)
		l.overlays = make(map[string]overlay)
		l.loaded = false
		// results in flight for the old date must not land
		l.applied = l.issued
	}
	return true
}

func (s *Store) list(kind attendance.Kind) *dated {
	l, ok := s.lists[kind]
	if !ok {
		l = &dated{
			statuses: make(map[string]attendance.Status),
			overlays: make(map[string]overlay),
		}
		s.lists[kind] = l
	}
	return l
}

// Begin issues a ticket for a fetch of kind at the current selected date.
func (s *Store) Begin(kind attendance.Kind) attendance.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.list(kind)
	l.issued++
	return attendance.Ticket{Kind: kind, Seq: l.issued, Date: s.selected}
}

// Apply installs a fetch result unless it is stale. Overlays the backend
// now agrees with are dropped.
func (s *Store) Apply(t attendance.Ticket, statuses map[string]attendance.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.list(t.Kind)
	if !t.Date.Equal(s.selected) || t.Seq <= l.applied {
		return ErrStale
	}
	l.applied = t.Seq
	l.loaded = true
	l.statuses = statuses
	if l.statuses == nil {
		l.statuses = make(map[string]attendance.Status)
	}
	for id, ov := range l.overlays {
		if l.statuses[id] == ov.status {
			delete(l.overlays, id)
		}
	}
	return nil
}

// Loaded reports whether a fetch of kind has been applied for the selected date.
func (s *Store) Loaded(kind attendance.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(kind).loaded
}

// Status returns the overlay for id if one is live, else the last applied status.
func (s *Store) Status(kind attendance.Kind, id string) attendance.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked(kind, id)
}

func (s *Store) statusLocked(kind attendance.Kind, id string) attendance.Status {
	l := s.list(kind)
	if ov, ok := l.overlays[id]; ok {
		if s.clock().Sub(ov.at) < s.overlayTTL {
			return ov.status
		}
		delete(l.overlays, id)
	}
	return l.statuses[id]
}

// Statuses returns the effective status of every known id of kind.
func (s *Store) Statuses(kind attendance.Kind) map[string]attendance.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.list(kind)
	out := make(map[string]attendance.Status, len(l.statuses)+len(l.overlays))
	for id := range l.statuses {
		out[id] = s.statusLocked(kind, id)
	}
	for id := range l.overlays {
		out[id] = s.statusLocked(kind, id)
	}
	return out
}

// SetOverlay shows status for id until the backend reflects it.
func (s *Store) SetOverlay(kind attendance.Kind, id string, status attendance.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list(kind).overlays[id] = overlay{status: status, at: s.clock()}
}

// DropOverlay discards the optimistic status for id.
func (s *Store) DropOverlay(kind attendance.Kind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.list(kind).overlays, id)
}

// HasOverlay reports whether an optimistic status is live for id.
func (s *Store) HasOverlay(kind attendance.Kind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.list(kind)
	ov, ok := l.overlays[id]
	return ok && s.clock().Sub(ov.at) < s.overlayTTL
}

// ReconcileOverlay settles id after the post-write fetch. The overlay stays
// while the backend has not caught up with it, so the view never falls back
// to an unmarked state for a write that succeeded.
func (s *Store) ReconcileOverlay(kind attendance.Kind, id string) attendance.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.list(kind)
	if ov, ok := l.overlays[id]; ok && l.statuses[id] == ov.status {
		delete(l.overlays, id)
	}
	return s.statusLocked(kind, id)
}

// SetStudents replaces the student list.
func (s *Store) SetStudents(v []model.Student) {
	s.mu.Lock()
	s.students = v
	s.mu.Unlock()
}

// Students returns the cached student list, nil when not loaded.
func (s *Store) Students() []model.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.students)
}

// SetTeachers replaces the teacher list.
func (s *Store) SetTeachers(v []model.Teacher) {
	s.mu.Lock()
	s.teachers = v
	s.mu.Unlock()
}

// Teachers returns the cached teacher list.
func (s *Store) Teachers() []model.Teacher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.teachers)
}

// SetEnrollments replaces the enrollment list of the selected year.
func (s *Store) SetEnrollments(v []model.Enrollment) {
	s.mu.Lock()
	s.enrollments = v
	s.mu.Unlock()
}

// Enrollments returns the cached enrollments.
func (s *Store) Enrollments() []model.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.enrollments)
}

// clone copies v, keeping nil apart from an empty list.
func clone[T any](v []T) []T {
	if v == nil {
		return nil
	}
	return append(make([]T, 0, len(v)), v...)
}

func (s *Store) touch() {
	s.mu.Lock()
	s.lastSeen = s.clock()
	s.mu.Unlock()
}

func (s *Store) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
