package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"churchattend/internal/auth"
	"churchattend/internal/recent"
	"churchattend/internal/roster"
)

// Search looks students and teachers up by name.
func (h *Handler) Search(c *gin.Context) {
	q := c.Query("q")
	ctx := c.Request.Context()
	st := h.session(c)

	if st.Students() == nil {
		list, err := h.api.ListStudents(ctx)
		if err != nil {
			h.fail(c, err)
			return
		}
		st.SetStudents(list)
	}
	if err := h.loadTeacherRoster(ctx, st); err != nil {
		h.fail(c, err)
		return
	}

	entries := append(roster.FromStudents(st.Students()), roster.JoinTeachers(st.Teachers(), nil)...)
	results := roster.Search(entries, q)
	if results == nil {
		results = []roster.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "results": results})
}

func (h *Handler) RecentSearches(c *gin.Context) {
	items, err := h.recent.List(c.Request.Context(), auth.SessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": nonNil(items)})
}

func (h *Handler) AddRecentSearch(c *gin.Context) {
	var req recent.Item
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	items, err := h.recent.Add(c.Request.Context(), auth.SessionID(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": nonNil(items)})
}

func (h *Handler) ClearRecentSearches(c *gin.Context) {
	if err := h.recent.Clear(c.Request.Context(), auth.SessionID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": []recent.Item{}})
}

func nonNil(items []recent.Item) []recent.Item {
	if items == nil {
		return []recent.Item{}
	}
	return items
}
