package model

import "time"

// Student is a member of the youth group as the backend stores it.
type Student struct {
	ID        int64  `json:"id"`
	Name      string `json:"name" binding:"required"`
	Gender    string `json:"gender,omitempty"`
	Grade     string `json:"grade,omitempty"`
	School    string `json:"school,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Parent    string `json:"parentPhone,omitempty"`
	Birthday  string `json:"birthday,omitempty"` // YYYY-MM-DD
	PhotoURL  string `json:"photoUrl,omitempty"`
	Memo      string `json:"memo,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Teacher is a group teacher.
type Teacher struct {
	ID       int64  `json:"id"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone,omitempty"`
	Birthday string `json:"birthday,omitempty"`
	Role     string `json:"role,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

// ClassRoom is one class for a given year.
type ClassRoom struct {
	ID        int64  `json:"id"`
	Name      string `json:"name" binding:"required"`
	Year      int    `json:"year" binding:"required,min=2000"`
	Grade     string `json:"grade,omitempty"`
	TeacherID *int64 `json:"teacherId,omitempty"`
}

// Enrollment links a student to a class for one year. Its ID
// (studentClassId) is the key student attendance is recorded under.
type Enrollment struct {
	StudentClassID int64  `json:"studentClassId"`
	StudentID      int64  `json:"studentId"`
	ClassRoomID    int64  `json:"classRoomId"`
	ClassRoomName  string `json:"classRoomName,omitempty"`
	Year           int    `json:"year"`
}

// ClassSummary aggregates a class for the statistics dashboard.
type ClassSummary struct {
	ClassRoomID   int64   `json:"classRoomId"`
	ClassRoomName string  `json:"classRoomName"`
	TeacherName   string  `json:"teacherName,omitempty"`
	StudentCount  int     `json:"studentCount"`
	AttendRate    float64 `json:"attendRate"`
}

// SundaySummary is the per-Sunday attendance tally served by the backend.
type SundaySummary struct {
	Date    string `json:"date"`
	Attend  int    `json:"attend"`
	Late    int    `json:"late"`
	Absent  int    `json:"absent"`
	Other   int    `json:"other"`
	Total   int    `json:"total"`
	Teacher int    `json:"teacherAttend"`
}

// Birthday is one entry of the month's birthday list.
type Birthday struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"` // student | teacher
	Birthday string `json:"birthday"`
	Class    string `json:"classRoomName,omitempty"`
}

// Matching assigns a student or teacher to a class for a year.
type Matching struct {
	PersonID    int64 `json:"personId" binding:"required"`
	ClassRoomID int64 `json:"classRoomId" binding:"required"`
	Year        int   `json:"year" binding:"required,min=2000"`
}

// ChatRole tells user and bot messages apart.
type ChatRole string

const (
	RoleUser ChatRole = "user"
	RoleBot  ChatRole = "bot"
)

// ChatState is the presentation lifecycle of a bot message.
type ChatState string

const (
	ChatTyping  ChatState = "typing"
	ChatSettled ChatState = "settled"
)

// ChatMessage is one entry of the chat panel history.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	HTML      string    `json:"html,omitempty"`
	State     ChatState `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// BulkMessage is the request body for a bulk send.
type BulkMessage struct {
	RecipientType string  `json:"recipientType" binding:"required,oneof=student teacher"`
	RecipientIDs  []int64 `json:"recipientIds" binding:"required,min=1,dive,gt=0"`
	Text          string  `json:"text" binding:"required,max=2000"`
}
