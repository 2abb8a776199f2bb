package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"churchattend/internal/messaging"
	"churchattend/internal/model"
)

// BulkMessage queues a message to many recipients; the worker delivers it.
func (h *Handler) BulkMessage(c *gin.Context) {
	var req model.BulkMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	job := messaging.NewJob(req, h.clock())
	if err := messaging.Enqueue(c.Request.Context(), h.queue, job); err != nil {
		log.Printf("enqueue bulk message %s: %v", job.ID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue unavailable", "notification": h.notes.FromError(err)})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"jobId":        job.ID,
		"recipients":   len(job.RecipientIDs),
		"notification": h.notes.Success("메시지 발송이 예약되었습니다."),
	})
}
