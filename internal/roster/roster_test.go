package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchattend/internal/attendance"
	"churchattend/internal/model"
)

func TestJoinStudentsUsesEnrollmentKey(t *testing.T) {
	students := []model.Student{
		{ID: 1, Name: "박서준"},
		{ID: 2, Name: "김민지"},
		{ID: 3, Name: "최유나"}, // not enrolled this year
	}
	enrollments := []model.Enrollment{
		{StudentClassID: 101, StudentID: 1, ClassRoomID: 10, ClassRoomName: "중1"},
		{StudentClassID: 102, StudentID: 2, ClassRoomID: 11, ClassRoomName: "중2"},
	}
	statuses := map[string]attendance.Status{"101": attendance.Late, "1": attendance.Absent}

	got := JoinStudents(students, enrollments, func(k string) attendance.Status { return statuses[k] }, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "김민지", got[0].Name)
	assert.Equal(t, attendance.Unmarked, got[0].Status)
	assert.False(t, got[0].Locked)
	assert.Equal(t, "박서준", got[1].Name)
	assert.Equal(t, attendance.Late, got[1].Status, "keyed by studentClassId, not student id")
	assert.True(t, got[1].Locked)
	assert.Equal(t, "101", got[1].Key())
}

func TestJoinStudentsFiltersClass(t *testing.T) {
	students := []model.Student{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	enrollments := []model.Enrollment{
		{StudentClassID: 101, StudentID: 1, ClassRoomID: 10},
		{StudentClassID: 102, StudentID: 2, ClassRoomID: 11},
	}
	got := JoinStudents(students, enrollments, nil, 11)
	require.Len(t, got, 1)
	assert.EqualValues(t, 2, got[0].ID)
}

func TestJoinTeachers(t *testing.T) {
	got := JoinTeachers([]model.Teacher{{ID: 4, Name: "정목사"}}, func(k string) attendance.Status {
		if k == "4" {
			return attendance.Attended
		}
		return attendance.Unmarked
	})
	require.Len(t, got, 1)
	assert.Equal(t, attendance.Attended, got[0].Status)
	assert.Equal(t, "4", got[0].Key())
}

func TestSearchNormalizesHangul(t *testing.T) {
	// "한" written as decomposed jamo
	decomposed := "\u1112\u1161\u11ab"
	entries := []Entry{{Name: "한지민"}, {Name: "Grace Han"}, {Name: "이수"}}

	got := Search(entries, decomposed)
	require.Len(t, got, 1)
	assert.Equal(t, "한지민", got[0].Name)

	got = Search(entries, "HAN")
	require.Len(t, got, 1)
	assert.Equal(t, "Grace Han", got[0].Name)

	assert.Nil(t, Search(entries, "  "))
}

func TestCounts(t *testing.T) {
	c := Counts([]Entry{{Status: attendance.Attended}, {Status: attendance.Late}, {}})
	assert.Equal(t, 3, c["total"])
	assert.Equal(t, 1, c["attend"])
	assert.Equal(t, 1, c["unmarked"])
}
