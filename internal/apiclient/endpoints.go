package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"churchattend/internal/model"
)

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

// ListStudents returns all students.
func (c *Client) ListStudents(ctx context.Context) ([]model.Student, error) {
	var out []model.Student
	err := c.do(ctx, "students.list", http.MethodGet, "/students", nil, nil, &out)
	return out, err
}

// GetStudent returns one student.
func (c *Client) GetStudent(ctx context.Context, id int64) (model.Student, error) {
	var out model.Student
	err := c.do(ctx, "students.get", http.MethodGet, idPath("/students", id), nil, nil, &out)
	return out, err
}

// CreateStudent registers a student and returns the stored record.
func (c *Client) CreateStudent(ctx context.Context, s model.Student) (model.Student, error) {
	var out model.Student
	err := c.do(ctx, "students.create", http.MethodPost, "/students", nil, s, &out)
	return out, err
}

// UpdateStudent replaces a student record.
func (c *Client) UpdateStudent(ctx context.Context, id int64, s model.Student) (model.Student, error) {
	var out model.Student
	err := c.do(ctx, "students.update", http.MethodPut, idPath("/students", id), nil, s, &out)
	return out, err
}

// DeleteStudent removes a student.
func (c *Client) DeleteStudent(ctx context.Context, id int64) error {
	return c.do(ctx, "students.delete", http.MethodDelete, idPath("/students", id), nil, nil, nil)
}

// ListTeachers returns all teachers.
func (c *Client) ListTeachers(ctx context.Context) ([]model.Teacher, error) {
	var out []model.Teacher
	err := c.do(ctx, "teachers.list", http.MethodGet, "/teachers", nil, nil, &out)
	return out, err
}

// GetTeacher returns one teacher.
func (c *Client) GetTeacher(ctx context.Context, id int64) (model.Teacher, error) {
	var out model.Teacher
	err := c.do(ctx, "teachers.get", http.MethodGet, idPath("/teachers", id), nil, nil, &out)
	return out, err
}

// CreateTeacher registers a teacher.
func (c *Client) CreateTeacher(ctx context.Context, t model.Teacher) (model.Teacher, error) {
	var out model.Teacher
	err := c.do(ctx, "teachers.create", http.MethodPost, "/teachers", nil, t, &out)
	return out, err
}

// UpdateTeacher replaces a teacher record.
func (c *Client) UpdateTeacher(ctx context.Context, id int64, t model.Teacher) (model.Teacher, error) {
	var out model.Teacher
	err := c.do(ctx, "teachers.update", http.MethodPut, idPath("/teachers", id), nil, t, &out)
	return out, err
}

// DeleteTeacher removes a teacher.
func (c *Client) DeleteTeacher(ctx context.Context, id int64) error {
	return c.do(ctx, "teachers.delete", http.MethodDelete, idPath("/teachers", id), nil, nil, nil)
}

// ListClassRooms returns the classes of a year.
func (c *Client) ListClassRooms(ctx context.Context, year int) ([]model.ClassRoom, error) {
	var out []model.ClassRoom
	err := c.do(ctx, "classrooms.list", http.MethodGet, "/classrooms", yearQuery(year), nil, &out)
	return out, err
}

// CreateClassRoom adds a class.
func (c *Client) CreateClassRoom(ctx context.Context, cr model.ClassRoom) (model.ClassRoom, error) {
	var out model.ClassRoom
	err := c.do(ctx, "classrooms.create", http.MethodPost, "/classrooms", nil, cr, &out)
	return out, err
}

// UpdateClassRoom replaces a class.
func (c *Client) UpdateClassRoom(ctx context.Context, id int64, cr model.ClassRoom) (model.ClassRoom, error) {
	var out model.ClassRoom
	err := c.do(ctx, "classrooms.update", http.MethodPut, idPath("/classrooms", id), nil, cr, &out)
	return out, err
}

// DeleteClassRoom removes a class.
func (c *Client) DeleteClassRoom(ctx context.Context, id int64) error {
	return c.do(ctx, "classrooms.delete", http.MethodDelete, idPath("/classrooms", id), nil, nil, nil)
}

// ClassSummaries returns per-class aggregates for a year.
func (c *Client) ClassSummaries(ctx context.Context, year int) ([]model.ClassSummary, error) {
	var out []model.ClassSummary
	err := c.do(ctx, "classrooms.summary", http.MethodGet, "/classrooms/summary", yearQuery(year), nil, &out)
	return out, err
}

// ListEnrollments returns the student-class links of a year.
func (c *Client) ListEnrollments(ctx context.Context, year int) ([]model.Enrollment, error) {
	var out []model.Enrollment
	err := c.do(ctx, "enrollments.list", http.MethodGet, "/student-classes", yearQuery(year), nil, &out)
	return out, err
}

// StudentAttendance returns the raw student attendance records of a date.
func (c *Client) StudentAttendance(ctx context.Context, date time.Time) ([]map[string]any, error) {
	var out []map[string]any
	err := c.do(ctx, "attendance.students", http.MethodGet, "/attendance/students", dateQuery(date), nil, &out)
	return out, err
}

// TeacherAttendance returns the raw teacher attendance records of a date.
func (c *Client) TeacherAttendance(ctx context.Context, date time.Time) ([]map[string]any, error) {
	var out []map[string]any
	err := c.do(ctx, "attendance.teachers", http.MethodGet, "/attendance/teachers", dateQuery(date), nil, &out)
	return out, err
}

// StudentAttendanceByYear returns every student attendance record of a year.
func (c *Client) StudentAttendanceByYear(ctx context.Context, year int) ([]map[string]any, error) {
	var out []map[string]any
	err := c.do(ctx, "attendance.year", http.MethodGet, "/attendance/students/year", yearQuery(year), nil, &out)
	return out, err
}

type markRequest struct {
	StudentClassID string `json:"studentClassId,omitempty"`
	TeacherID      string `json:"teacherId,omitempty"`
	Date           string `json:"date"`
	Status         string `json:"status"`
}

// MarkStudentAttendance writes a student's status, keyed by enrollment id.
func (c *Client) MarkStudentAttendance(ctx context.Context, enrollmentID string, date time.Time, status string) error {
	body := markRequest{StudentClassID: enrollmentID, Date: date.Format(dateLayout), Status: status}
	return c.do(ctx, "attendance.students.mark", http.MethodPost, "/attendance/students", nil, body, nil)
}

// MarkTeacherAttendance writes a teacher's status for a date.
func (c *Client) MarkTeacherAttendance(ctx context.Context, teacherID string, date time.Time, status string) error {
	body := markRequest{TeacherID: teacherID, Date: date.Format(dateLayout), Status: status}
	return c.do(ctx, "attendance.teachers.mark", http.MethodPost, "/attendance/teachers", nil, body, nil)
}

// MatchStudent enrolls a student in a class for a year.
func (c *Client) MatchStudent(ctx context.Context, m model.Matching) error {
	body := map[string]any{"studentId": m.PersonID, "classRoomId": m.ClassRoomID, "year": m.Year}
	return c.do(ctx, "matching.students", http.MethodPost, "/matching/students", nil, body, nil)
}

// MatchTeacher assigns a teacher to a class for a year.
func (c *Client) MatchTeacher(ctx context.Context, m model.Matching) error {
	body := map[string]any{"teacherId": m.PersonID, "classRoomId": m.ClassRoomID, "year": m.Year}
	return c.do(ctx, "matching.teachers", http.MethodPost, "/matching/teachers", nil, body, nil)
}

// Birthdays lists the birthdays of a month (1-12).
func (c *Client) Birthdays(ctx context.Context, month int) ([]model.Birthday, error) {
	var out []model.Birthday
	q := url.Values{"month": {strconv.Itoa(month)}}
	err := c.do(ctx, "birthdays", http.MethodGet, "/birthdays", q, nil, &out)
	return out, err
}

// SundaySummaries returns the Sunday tallies of a month.
func (c *Client) SundaySummaries(ctx context.Context, year, month int) ([]model.SundaySummary, error) {
	var out []model.SundaySummary
	q := yearQuery(year)
	if month > 0 {
		q.Set("month", strconv.Itoa(month))
	}
	err := c.do(ctx, "statistics.sunday", http.MethodGet, "/statistics/sunday", q, nil, &out)
	return out, err
}

// Ask sends a question to the chat endpoint and returns the complete answer.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	var out struct {
		Answer   string `json:"answer"`
		Response string `json:"response"`
	}
	if err := c.do(ctx, "chat", http.MethodPost, "/chat", nil, map[string]string{"question": question}, &out); err != nil {
		return "", err
	}
	if out.Answer != "" {
		return out.Answer, nil
	}
	return out.Response, nil
}

// SendMessage delivers one text message to a student or teacher.
func (c *Client) SendMessage(ctx context.Context, recipientType string, recipientID int64, text string) error {
	body := map[string]any{"recipientType": recipientType, "recipientId": recipientID, "text": text}
	return c.do(ctx, "messages.send", http.MethodPost, "/messages", nil, body, nil)
}
