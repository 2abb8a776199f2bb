package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"churchattend/internal/metrics"
	"churchattend/internal/notify"
)

// Kind selects the student or teacher attendance list.
type Kind string

const (
	Students Kind = "student"
	Teachers Kind = "teacher"
)

// ParseKind accepts the plural and singular route spellings.
func ParseKind(v string) (Kind, error) {
	switch v {
	case "student", "students":
		return Students, nil
	case "teacher", "teachers":
		return Teachers, nil
	}
	return "", fmt.Errorf("unknown attendance kind %q", v)
}

// ErrAlreadyMarked is returned when the person already attended or came late that day.
var ErrAlreadyMarked = errors.New("attendance already marked for this date")

// Ticket identifies one date-scoped fetch. It captures the selected date at
// issue time so a result can be checked against the current selection.
type Ticket struct {
	Kind Kind
	Seq  uint64
	Date time.Time
}

// Session is the per-browser attendance state the service reads and updates.
type Session interface {
	SelectedDate() time.Time
	Begin(kind Kind) Ticket
	Apply(t Ticket, statuses map[string]Status) error
	Loaded(kind Kind) bool
	Status(kind Kind, id string) Status
	SetOverlay(kind Kind, id string, s Status)
	DropOverlay(kind Kind, id string)
	ReconcileOverlay(kind Kind, id string) Status
	HasOverlay(kind Kind, id string) bool
}

// Backend is the slice of the remote API the mark flow needs.
type Backend interface {
	StudentAttendance(ctx context.Context, date time.Time) ([]map[string]any, error)
	TeacherAttendance(ctx context.Context, date time.Time) ([]map[string]any, error)
	MarkStudentAttendance(ctx context.Context, enrollmentID string, date time.Time, status string) error
	MarkTeacherAttendance(ctx context.Context, teacherID string, date time.Time, status string) error
}

// MarkResult is what a mark or set operation reports back to the view.
type MarkResult struct {
	Kind         Kind                `json:"kind"`
	ID           string              `json:"id"`
	Status       Status              `json:"status"`
	Optimistic   bool                `json:"optimistic"`
	Notification notify.Notification `json:"notification"`
}

// Service runs the mark-attendance flow against the backend.
type Service struct {
	backend Backend
	cutoff  Cutoff
	notes   notify.Builder
	clock   func() time.Time
}

// NewService creates a service. clock defaults to time.Now.
func NewService(backend Backend, cutoff Cutoff, notes notify.Builder, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{backend: backend, cutoff: cutoff, notes: notes, clock: clock}
}

// Refresh fetches the date-scoped list for the session's selected date and
// applies it. A result overtaken by a newer fetch or a date change is dropped.
func (s *Service) Refresh(ctx context.Context, sess Session, kind Kind) error {
	t := sess.Begin(kind)
	records, err := s.fetch(ctx, kind, t.Date)
	if err != nil {
		return err
	}
	statuses := make(map[string]Status, len(records))
	for _, rec := range records {
		id, ok := DecodeID(rec, idKeys(kind)...)
		if !ok {
			log.Printf("attendance %s record without id on %s", kind, t.Date.Format(time.DateOnly))
			continue
		}
		st, outcome := Decode(rec)
		if outcome == UnknownValue {
			log.Printf("attendance %s %s: unrecognized status %v", kind, id, rawStatus(rec))
		}
		metrics.StatusDecodes.WithLabelValues(string(kind), outcome.String()).Inc()
		statuses[id] = st
	}
	return sess.Apply(t, statuses)
}

// ensureLoaded fetches the selected date's list unless the session already
// holds one for it.
func (s *Service) ensureLoaded(ctx context.Context, sess Session, kind Kind) error {
	if sess.Loaded(kind) {
		return nil
	}
	if err := s.Refresh(ctx, sess, kind); err != nil && !sess.Loaded(kind) {
		return err
	}
	return nil
}

// Mark records a check-in for id. The status comes from the clock and the
// cutoff; it is shown optimistically until the backend confirms it.
func (s *Service) Mark(ctx context.Context, sess Session, kind Kind, id string) (MarkResult, error) {
	if err := s.ensureLoaded(ctx, sess, kind); err != nil {
		log.Printf("load %s attendance before mark %s: %v", kind, id, err)
		metrics.MarkOutcomes.WithLabelValues(string(kind), "failed").Inc()
		return MarkResult{Kind: kind, ID: id, Status: Unmarked, Notification: s.notes.FromError(err)}, err
	}
	if sess.Status(kind, id).Marked() {
		metrics.MarkOutcomes.WithLabelValues(string(kind), "already_marked").Inc()
		return MarkResult{}, ErrAlreadyMarked
	}
	return s.write(ctx, sess, kind, id, StatusAt(s.clock(), s.cutoff))
}

// SetStatus writes an explicit status from the management view.
func (s *Service) SetStatus(ctx context.Context, sess Session, kind Kind, id string, status Status) (MarkResult, error) {
	if status == Unmarked {
		return MarkResult{}, fmt.Errorf("%w: empty status", ErrInvalidStatus)
	}
	if err := s.ensureLoaded(ctx, sess, kind); err != nil {
		log.Printf("load %s attendance before set %s: %v", kind, id, err)
		return MarkResult{Kind: kind, ID: id, Status: Unmarked, Notification: s.notes.FromError(err)}, err
	}
	return s.write(ctx, sess, kind, id, status)
}

func (s *Service) write(ctx context.Context, sess Session, kind Kind, id string, status Status) (MarkResult, error) {
	date := sess.SelectedDate()
	sess.SetOverlay(kind, id, status)

	var err error
	switch kind {
	case Students:
		err = s.backend.MarkStudentAttendance(ctx, id, date, status.String())
	case Teachers:
		err = s.backend.MarkTeacherAttendance(ctx, id, date, status.String())
	default:
		err = fmt.Errorf("unknown attendance kind %q", kind)
	}

	if err != nil {
		log.Printf("mark %s %s on %s failed: %v", kind, id, date.Format(time.DateOnly), err)
		sess.DropOverlay(kind, id)
		if rerr := s.Refresh(ctx, sess, kind); rerr != nil {
			log.Printf("refresh after failed mark: %v", rerr)
		}
		metrics.MarkOutcomes.WithLabelValues(string(kind), "failed").Inc()
		return MarkResult{
			Kind:         kind,
			ID:           id,
			Status:       sess.Status(kind, id),
			Notification: s.notes.FromError(err),
		}, err
	}

	if rerr := s.Refresh(ctx, sess, kind); rerr != nil {
		log.Printf("refresh after mark %s %s: %v", kind, id, rerr)
	}
	final := sess.ReconcileOverlay(kind, id)
	optimistic := sess.HasOverlay(kind, id)
	metrics.MarkOutcomes.WithLabelValues(string(kind), "ok").Inc()
	return MarkResult{
		Kind:         kind,
		ID:           id,
		Status:       final,
		Optimistic:   optimistic,
		Notification: s.notes.Success(successMessage(final)),
	}, nil
}

func (s *Service) fetch(ctx context.Context, kind Kind, date time.Time) ([]map[string]any, error) {
	switch kind {
	case Students:
		return s.backend.StudentAttendance(ctx, date)
	case Teachers:
		return s.backend.TeacherAttendance(ctx, date)
	}
	return nil, fmt.Errorf("unknown attendance kind %q", kind)
}

func idKeys(kind Kind) []string {
	if kind == Teachers {
		return []string{"teacherId", "teacher_id", "id"}
	}
	return []string{"studentClassId", "student_class_id", "studentClassID"}
}

func rawStatus(rec map[string]any) any {
	for _, key := range StatusKeys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			continue
		}
		return v
	}
	return nil
}

func successMessage(s Status) string {
	switch s {
	case Attended:
		return "출석 처리되었습니다."
	case Late:
		return "지각 처리되었습니다."
	case Absent:
		return "결석 처리되었습니다."
	case Other:
		return "기타로 처리되었습니다."
	}
	return "저장되었습니다."
}
