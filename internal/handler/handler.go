package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"churchattend/internal/apiclient"
	"churchattend/internal/attendance"
	"churchattend/internal/auth"
	"churchattend/internal/calendar"
	"churchattend/internal/chat"
	"churchattend/internal/notify"
	"churchattend/internal/queue"
	"churchattend/internal/recent"
	"churchattend/internal/store"
)

// Deps are the collaborators a Handler is built from.
type Deps struct {
	API      *apiclient.Client
	Sessions *store.Sessions
	Panels   *chat.Panels
	Recent   recent.Cache
	Ticker   *calendar.Ticker // nil disables /birthdays/ticker
	Queue    queue.Queue
	Notes    notify.Builder
	Cutoff   attendance.Cutoff
	Loc      *time.Location
	Clock    func() time.Time

	// Reveal pacing; zero values use chat.DefaultDelays and the wall clock.
	Delays    chat.Delays
	Scheduler chat.Scheduler
}

type Handler struct {
	api      *apiclient.Client
	att      *attendance.Service
	sessions *store.Sessions
	panels   *chat.Panels
	recent   recent.Cache
	ticker   *calendar.Ticker
	queue    queue.Queue
	notes    notify.Builder
	loc      *time.Location
	clock    func() time.Time
	delays   chat.Delays
	sched    chat.Scheduler
}

func New(d Deps) *Handler {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Loc == nil {
		d.Loc = time.Local
	}
	if d.Delays == (chat.Delays{}) {
		d.Delays = chat.DefaultDelays
	}
	if d.Scheduler == nil {
		d.Scheduler = chat.ClockScheduler{}
	}
	return &Handler{
		api:      d.API,
		att:      attendance.NewService(d.API, d.Cutoff, d.Notes, d.Clock),
		sessions: d.Sessions,
		panels:   d.Panels,
		recent:   d.Recent,
		ticker:   d.Ticker,
		queue:    d.Queue,
		notes:    d.Notes,
		loc:      d.Loc,
		clock:    d.Clock,
		delays:   d.Delays,
		sched:    d.Scheduler,
	}
}

// RegisterValidators adds the custom binding tags used by request bodies.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	return v.RegisterValidation("attendstatus", func(fl validator.FieldLevel) bool {
		_, err := attendance.Parse(fl.Field().String())
		return err == nil
	})
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/students", h.ListStudents)
	r.POST("/students", h.CreateStudent)
	r.GET("/students/:id", h.GetStudent)
	r.PUT("/students/:id", h.UpdateStudent)
	r.DELETE("/students/:id", h.DeleteStudent)

	r.GET("/teachers", h.ListTeachers)
	r.POST("/teachers", h.CreateTeacher)
	r.GET("/teachers/:id", h.GetTeacher)
	r.PUT("/teachers/:id", h.UpdateTeacher)
	r.DELETE("/teachers/:id", h.DeleteTeacher)

	r.GET("/classrooms", h.ListClassRooms)
	r.POST("/classrooms", h.CreateClassRoom)
	r.GET("/classrooms/summary", h.ClassSummaries)
	r.PUT("/classrooms/:id", h.UpdateClassRoom)
	r.DELETE("/classrooms/:id", h.DeleteClassRoom)

	r.POST("/matching/students", h.MatchStudent)
	r.POST("/matching/teachers", h.MatchTeacher)

	r.GET("/date", h.GetDate)
	r.PUT("/date", h.PutDate)

	r.GET("/attendance/students", h.StudentAttendance)
	r.GET("/attendance/teachers", h.TeacherAttendance)
	r.POST("/attendance/students/:id/mark", h.MarkStudent)
	r.POST("/attendance/teachers/:id/mark", h.MarkTeacher)
	r.PUT("/attendance/:kind/:id", h.SetStatus)

	r.GET("/calendar", h.Calendar)
	r.GET("/birthdays", h.Birthdays)
	r.GET("/birthdays/ticker", h.BirthdayTicker)

	r.GET("/statistics/sunday", h.SundayStatistics)
	r.GET("/statistics/attendance", h.AttendanceStatistics)

	r.GET("/search", h.Search)
	r.GET("/search/recent", h.RecentSearches)
	r.POST("/search/recent", h.AddRecentSearch)
	r.DELETE("/search/recent", h.ClearRecentSearches)

	r.POST("/chat", h.Chat)
	r.GET("/chat/history", h.ChatHistory)

	r.POST("/messages/bulk", h.BulkMessage)
}

// ---------- helpers ----------

var errInvalidMonth = errors.New("invalid month")

func (h *Handler) session(c *gin.Context) *store.Store {
	return h.sessions.Get(auth.SessionID(c))
}

func (h *Handler) today() time.Time {
	return calendar.Day(h.clock().In(h.loc))
}

// upstreamStatus maps a backend error onto the status returned to the
// browser: 400, 404 and 409 pass through, everything else is a 502.
func upstreamStatus(err error) int {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict:
			return apiErr.Status
		}
	}
	return http.StatusBadGateway
}

func (h *Handler) fail(c *gin.Context, err error) {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(upstreamStatus(err), gin.H{"error": err.Error(), "notification": h.notes.FromError(err)})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":        err.Error(),
		"notification": h.notes.Invalid(""),
	})
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
