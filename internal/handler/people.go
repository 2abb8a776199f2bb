package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"churchattend/internal/model"
)

// Every mutation re-fetches the list so the session's cached roster matches
// the backend.

// ---------- Students ----------

func (h *Handler) ListStudents(c *gin.Context) {
	list, err := h.api.ListStudents(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.session(c).SetStudents(list)
	c.JSON(http.StatusOK, gin.H{"students": list})
}

func (h *Handler) GetStudent(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s, err := h.api.GetStudent(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var req model.Student
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	s, err := h.api.CreateStudent(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.reloadStudents(c)
	c.JSON(http.StatusCreated, gin.H{"student": s, "notification": h.notes.Success("학생이 등록되었습니다.")})
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req model.Student
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	s, err := h.api.UpdateStudent(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.reloadStudents(c)
	c.JSON(http.StatusOK, gin.H{"student": s, "notification": h.notes.Success("학생 정보가 수정되었습니다.")})
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.api.DeleteStudent(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.reloadStudents(c)
	c.JSON(http.StatusOK, gin.H{"notification": h.notes.Success("학생이 삭제되었습니다.")})
}

func (h *Handler) reloadStudents(c *gin.Context) {
	list, err := h.api.ListStudents(c.Request.Context())
	if err != nil {
		// the mutation itself succeeded; the next view reloads
		h.session(c).SetStudents(nil)
		return
	}
	h.session(c).SetStudents(list)
}

// ---------- Teachers ----------

func (h *Handler) ListTeachers(c *gin.Context) {
	list, err := h.api.ListTeachers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.session(c).SetTeachers(list)
	c.JSON(http.StatusOK, gin.H{"teachers": list})
}

func (h *Handler) GetTeacher(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	t, err := h.api.GetTeacher(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) CreateTeacher(c *gin.Context) {
	var req model.Teacher
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	t, err := h.api.CreateTeacher(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.reloadTeachers(c)
	c.JSON(http.StatusCreated, gin.H{"teacher": t, "notification": h.notes.Success("선생님이 등록되었습니다.")})
}

func (h *Handler) UpdateTeacher(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req model.Teacher
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	t, err := h.api.UpdateTeacher(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.reloadTeachers(c)
	c.JSON(http.StatusOK, gin.H{"teacher": t, "notification": h.notes.Success("선생님 정보가 수정되었습니다.")})
}

func (h *Handler) DeleteTeacher(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.api.DeleteTeacher(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.reloadTeachers(c)
	c.JSON(http.StatusOK, gin.H{"notification": h.notes.Success("선생님이 삭제되었습니다.")})
}

func (h *Handler) reloadTeachers(c *gin.Context) {
	list, err := h.api.ListTeachers(c.Request.Context())
	if err != nil {
		h.session(c).SetTeachers(nil)
		return
	}
	h.session(c).SetTeachers(list)
}

// ---------- Class rooms ----------

func (h *Handler) ListClassRooms(c *gin.Context) {
	year, err := queryInt(c, "year", h.session(c).SelectedDate().Year())
	if err != nil {
		h.badRequest(c, err)
		return
	}
	list, err := h.api.ListClassRooms(c.Request.Context(), year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "classRooms": list})
}

func (h *Handler) CreateClassRoom(c *gin.Context) {
	var req model.ClassRoom
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	cr, err := h.api.CreateClassRoom(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"classRoom": cr, "notification": h.notes.Success("반이 생성되었습니다.")})
}

func (h *Handler) UpdateClassRoom(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req model.ClassRoom
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	cr, err := h.api.UpdateClassRoom(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classRoom": cr, "notification": h.notes.Success("반 정보가 수정되었습니다.")})
}

func (h *Handler) DeleteClassRoom(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.api.DeleteClassRoom(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": h.notes.Success("반이 삭제되었습니다.")})
}

func (h *Handler) ClassSummaries(c *gin.Context) {
	year, err := queryInt(c, "year", h.session(c).SelectedDate().Year())
	if err != nil {
		h.badRequest(c, err)
		return
	}
	list, err := h.api.ClassSummaries(c.Request.Context(), year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "summaries": list})
}

// ---------- Matching ----------

func (h *Handler) MatchStudent(c *gin.Context) {
	var req model.Matching
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.api.MatchStudent(c.Request.Context(), req); err != nil {
		h.fail(c, err)
		return
	}
	// enrollments changed, so the next attendance view reloads them
	h.session(c).SetEnrollments(nil)
	c.JSON(http.StatusOK, gin.H{"notification": h.notes.Success("반 배정이 완료되었습니다.")})
}

func (h *Handler) MatchTeacher(c *gin.Context) {
	var req model.Matching
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.api.MatchTeacher(c.Request.Context(), req); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": h.notes.Success("반 배정이 완료되었습니다.")})
}
