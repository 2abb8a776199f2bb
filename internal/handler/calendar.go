package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"churchattend/internal/attendance"
	"churchattend/internal/calendar"
	"churchattend/internal/model"
)

// Calendar returns the month grid for year/month, defaulting to the month
// of the selected date. Months starting after today are refused.
func (h *Handler) Calendar(c *gin.Context) {
	st := h.session(c)
	sel := st.SelectedDate()
	year, err := queryInt(c, "year", sel.Year())
	if err != nil {
		h.badRequest(c, err)
		return
	}
	month, err := queryInt(c, "month", int(sel.Month()))
	if err != nil || month < 1 || month > 12 {
		h.badRequest(c, errInvalidMonth)
		return
	}

	today := h.today()
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, h.loc)
	if !calendar.CanNavigate(first, today) {
		c.JSON(http.StatusBadRequest, gin.H{"error": calendar.ErrFutureMonth.Error(), "notification": h.notes.Invalid("미래의 달은 볼 수 없습니다.")})
		return
	}

	birthdays, err := h.api.Birthdays(c.Request.Context(), month)
	if err != nil {
		// the grid is still usable without birthday marks
		log.Printf("calendar %d-%02d: birthdays unavailable: %v", year, month, err)
		birthdays = nil
	}
	c.JSON(http.StatusOK, calendar.Grid(year, time.Month(month), today, sel, birthdays))
}

func (h *Handler) Birthdays(c *gin.Context) {
	month, err := queryInt(c, "month", int(h.today().Month()))
	if err != nil || month < 1 || month > 12 {
		h.badRequest(c, errInvalidMonth)
		return
	}
	list, err := h.api.Birthdays(c.Request.Context(), month)
	if err != nil {
		h.fail(c, err)
		return
	}
	if list == nil {
		list = []model.Birthday{}
	}
	c.JSON(http.StatusOK, gin.H{"month": month, "birthdays": list})
}

// BirthdayTicker returns the birthday currently shown in the banner.
func (h *Handler) BirthdayTicker(c *gin.Context) {
	if h.ticker == nil {
		c.JSON(http.StatusOK, gin.H{"count": 0})
		return
	}
	b, n, ok := h.ticker.Current()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"count": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n, "current": b})
}

// ---------- Statistics ----------

func (h *Handler) SundayStatistics(c *gin.Context) {
	sel := h.session(c).SelectedDate()
	year, err := queryInt(c, "year", sel.Year())
	if err != nil {
		h.badRequest(c, err)
		return
	}
	month, err := queryInt(c, "month", 0)
	if err != nil || month < 0 || month > 12 {
		h.badRequest(c, errInvalidMonth)
		return
	}
	list, err := h.api.SundaySummaries(c.Request.Context(), year, month)
	if err != nil {
		h.fail(c, err)
		return
	}
	if list == nil {
		list = []model.SundaySummary{}
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "sundays": list})
}

// AttendanceStatistics tallies a year's student attendance per date.
func (h *Handler) AttendanceStatistics(c *gin.Context) {
	year, err := queryInt(c, "year", h.session(c).SelectedDate().Year())
	if err != nil {
		h.badRequest(c, err)
		return
	}
	records, err := h.api.StudentAttendanceByYear(c.Request.Context(), year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "days": attendance.TallyByDate(records)})
}
