// Package roster joins students and teachers with their attendance status
// for the selected date, and searches rosters by name.
package roster

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"churchattend/internal/attendance"
	"churchattend/internal/model"
)

// Entry is one row of an attendance view.
type Entry struct {
	ID           int64             `json:"id"`
	Kind         attendance.Kind   `json:"kind"`
	Name         string            `json:"name"`
	Grade        string            `json:"grade,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Birthday     string            `json:"birthday,omitempty"`
	PhotoURL     string            `json:"photoUrl,omitempty"`
	ClassRoomID  int64             `json:"classRoomId,omitempty"`
	ClassRoom    string            `json:"classRoomName,omitempty"`
	EnrollmentID int64             `json:"studentClassId,omitempty"`
	Status       attendance.Status `json:"status"`
	Locked       bool              `json:"locked"`
}

// Key is the id attendance is recorded under for this entry.
func (e Entry) Key() string {
	if e.Kind == attendance.Students {
		return strconv.FormatInt(e.EnrollmentID, 10)
	}
	return strconv.FormatInt(e.ID, 10)
}

// StatusFunc reports the current status for an attendance key.
type StatusFunc func(key string) attendance.Status

// JoinStudents pairs every enrolled student with the status recorded under
// their enrollment id. Students without an enrollment are left out. A
// classRoomID of zero keeps every class.
func JoinStudents(students []model.Student, enrollments []model.Enrollment, statusOf StatusFunc, classRoomID int64) []Entry {
	byStudent := make(map[int64]model.Enrollment, len(enrollments))
	for _, e := range enrollments {
		byStudent[e.StudentID] = e
	}

	var out []Entry
	for _, s := range students {
		enr, ok := byStudent[s.ID]
		if !ok {
			continue
		}
		if classRoomID != 0 && enr.ClassRoomID != classRoomID {
			continue
		}
		e := Entry{
			ID:           s.ID,
			Kind:         attendance.Students,
			Name:         s.Name,
			Grade:        s.Grade,
			Phone:        s.Phone,
			Birthday:     s.Birthday,
			PhotoURL:     s.PhotoURL,
			ClassRoomID:  enr.ClassRoomID,
			ClassRoom:    enr.ClassRoomName,
			EnrollmentID: enr.StudentClassID,
		}
		if statusOf != nil {
			e.Status = statusOf(e.Key())
		}
		e.Locked = e.Status.Marked()
		out = append(out, e)
	}
	sortByName(out)
	return out
}

// JoinTeachers pairs every teacher with the status recorded under their id.
func JoinTeachers(teachers []model.Teacher, statusOf StatusFunc) []Entry {
	out := make([]Entry, 0, len(teachers))
	for _, t := range teachers {
		e := Entry{
			ID:       t.ID,
			Kind:     attendance.Teachers,
			Name:     t.Name,
			Phone:    t.Phone,
			Birthday: t.Birthday,
			PhotoURL: t.PhotoURL,
		}
		if statusOf != nil {
			e.Status = statusOf(e.Key())
		}
		e.Locked = e.Status.Marked()
		out = append(out, e)
	}
	sortByName(out)
	return out
}

// FromStudents lists students without attendance data, for search.
func FromStudents(students []model.Student) []Entry {
	out := make([]Entry, 0, len(students))
	for _, s := range students {
		out = append(out, Entry{ID: s.ID, Kind: attendance.Students, Name: s.Name, Grade: s.Grade, Phone: s.Phone, Birthday: s.Birthday})
	}
	return out
}

func sortByName(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return fold(entries[i].Name) < fold(entries[j].Name)
	})
}

// fold puts a name in NFC and lower case so composed and decomposed Hangul
// compare equal.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// Search returns the entries whose name contains query.
func Search(entries []Entry, query string) []Entry {
	q := fold(query)
	if q == "" {
		return nil
	}
	var out []Entry
	for _, e := range entries {
		if strings.Contains(fold(e.Name), q) {
			out = append(out, e)
		}
	}
	return out
}

// Counts tallies statuses of a view for the dashboard header.
func Counts(entries []Entry) map[string]int {
	out := map[string]int{"total": len(entries), "attend": 0, "late": 0, "absent": 0, "other": 0, "unmarked": 0}
	for _, e := range entries {
		switch e.Status {
		case attendance.Attended:
			out["attend"]++
		case attendance.Late:
			out["late"]++
		case attendance.Absent:
			out["absent"]++
		case attendance.Other:
			out["other"]++
		default:
			out["unmarked"]++
		}
	}
	return out
}
