package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"churchattend/internal/attendance"
	"churchattend/internal/calendar"
	"churchattend/internal/roster"
	"churchattend/internal/store"
)

// ---------- Selected date ----------

func (h *Handler) GetDate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"date":  h.session(c).SelectedDate().Format(time.DateOnly),
		"today": h.today().Format(time.DateOnly),
	})
}

type dateRequest struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
}

// PutDate switches the session's selected date and reloads both
// attendance lists for it.
func (h *Handler) PutDate(c *gin.Context) {
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	d, err := time.ParseInLocation(time.DateOnly, req.Date, h.loc)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	d, err = calendar.Select(d, h.today())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "notification": h.notes.Invalid("미래 날짜는 선택할 수 없습니다.")})
		return
	}

	st := h.session(c)
	prevYear := st.SelectedDate().Year()
	if st.SetSelectedDate(d) {
		if d.Year() != prevYear {
			st.SetEnrollments(nil)
		}
		h.refreshAll(c.Request.Context(), st)
	}
	c.JSON(http.StatusOK, gin.H{
		"date":  st.SelectedDate().Format(time.DateOnly),
		"today": h.today().Format(time.DateOnly),
	})
}

func (h *Handler) refreshAll(ctx context.Context, st *store.Store) {
	for _, kind := range []attendance.Kind{attendance.Students, attendance.Teachers} {
		if err := h.att.Refresh(ctx, st, kind); err != nil && !errors.Is(err, store.ErrStale) {
			log.Printf("refresh %s after date change: %v", kind, err)
		}
	}
}

// ---------- Attendance views ----------

func (h *Handler) loadStudentRoster(ctx context.Context, st *store.Store) error {
	if st.Students() == nil {
		list, err := h.api.ListStudents(ctx)
		if err != nil {
			return err
		}
		st.SetStudents(list)
	}
	if st.Enrollments() == nil {
		list, err := h.api.ListEnrollments(ctx, st.SelectedDate().Year())
		if err != nil {
			return err
		}
		st.SetEnrollments(list)
	}
	return nil
}

func (h *Handler) loadTeacherRoster(ctx context.Context, st *store.Store) error {
	if st.Teachers() != nil {
		return nil
	}
	list, err := h.api.ListTeachers(ctx)
	if err != nil {
		return err
	}
	st.SetTeachers(list)
	return nil
}

// StudentAttendance lists enrolled students with their status on the
// selected date, optionally narrowed to one class.
func (h *Handler) StudentAttendance(c *gin.Context) {
	var classRoomID int64
	if v := c.Query("classRoomId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.badRequest(c, errors.New("invalid classRoomId"))
			return
		}
		classRoomID = id
	}

	ctx := c.Request.Context()
	st := h.session(c)
	if err := h.loadStudentRoster(ctx, st); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.att.Refresh(ctx, st, attendance.Students); err != nil && !errors.Is(err, store.ErrStale) {
		h.fail(c, err)
		return
	}
	entries := roster.JoinStudents(st.Students(), st.Enrollments(), func(key string) attendance.Status {
		return st.Status(attendance.Students, key)
	}, classRoomID)
	h.view(c, st, entries)
}

func (h *Handler) TeacherAttendance(c *gin.Context) {
	ctx := c.Request.Context()
	st := h.session(c)
	if err := h.loadTeacherRoster(ctx, st); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.att.Refresh(ctx, st, attendance.Teachers); err != nil && !errors.Is(err, store.ErrStale) {
		h.fail(c, err)
		return
	}
	entries := roster.JoinTeachers(st.Teachers(), func(key string) attendance.Status {
		return st.Status(attendance.Teachers, key)
	})
	h.view(c, st, entries)
}

func (h *Handler) view(c *gin.Context, st *store.Store, entries []roster.Entry) {
	if entries == nil {
		entries = []roster.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"date":    st.SelectedDate().Format(time.DateOnly),
		"entries": entries,
		"counts":  roster.Counts(entries),
	})
}

// ---------- Marking ----------

func (h *Handler) MarkStudent(c *gin.Context) { h.mark(c, attendance.Students) }

func (h *Handler) MarkTeacher(c *gin.Context) { h.mark(c, attendance.Teachers) }

func (h *Handler) mark(c *gin.Context, kind attendance.Kind) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	key := strconv.FormatInt(id, 10)
	st := h.session(c)
	res, err := h.att.Mark(c.Request.Context(), st, kind, key)
	h.markResult(c, st, kind, key, res, err)
}

type statusRequest struct {
	Status string `json:"status" binding:"required,attendstatus"`
}

// SetStatus writes an explicit status from the management view.
func (h *Handler) SetStatus(c *gin.Context) {
	kind, err := attendance.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	status, err := attendance.Parse(req.Status)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	key := strconv.FormatInt(id, 10)
	st := h.session(c)
	res, err := h.att.SetStatus(c.Request.Context(), st, kind, key, status)
	h.markResult(c, st, kind, key, res, err)
}

func (h *Handler) markResult(c *gin.Context, st *store.Store, kind attendance.Kind, key string, res attendance.MarkResult, err error) {
	switch {
	case errors.Is(err, attendance.ErrAlreadyMarked):
		c.JSON(http.StatusConflict, attendance.MarkResult{
			Kind:         kind,
			ID:           key,
			Status:       st.Status(kind, key),
			Notification: h.notes.Invalid("이미 출석 처리되었습니다."),
		})
	case err != nil:
		c.JSON(upstreamStatus(err), res)
	default:
		c.JSON(http.StatusOK, res)
	}
}
