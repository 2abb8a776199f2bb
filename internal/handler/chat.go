package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"churchattend/internal/auth"
	"churchattend/internal/chat"
	"churchattend/internal/metrics"
)

type chatRequest struct {
	Question string `json:"question" binding:"required,max=1000"`
}

type revealEvent struct {
	name string
	data gin.H
	html string
}

// streamSink hands reveal events to the request goroutine. The buffer holds
// every event of the answer so the revealer never blocks while holding its
// lock.
type streamSink struct {
	events chan revealEvent
}

func newStreamSink(text string) streamSink {
	return streamSink{events: make(chan revealEvent, len([]rune(text))+1)}
}

func (s streamSink) Reveal(chunk string, pos int) {
	s.events <- revealEvent{name: "reveal", data: gin.H{"chunk": chunk, "position": pos}}
}

func (s streamSink) Settle(text, html string) {
	s.events <- revealEvent{name: "settled", data: gin.H{"text": text, "html": html}, html: html}
}

// Chat asks the backend and streams the answer back as server-sent events:
// one "message" event with the bot message id, a "reveal" event per
// character and a final "settled" event with the rendered answer. A client
// that disconnects cancels the reveal; the message is then settled in the
// history as is.
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	panel := h.panels.Get(auth.SessionID(c))
	msg, err := panel.Ask(c.Request.Context(), req.Question)
	if errors.Is(err, chat.ErrEmptyQuestion) {
		h.badRequest(c, err)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	sink := newStreamSink(msg.Text)
	rev := chat.NewRevealer(h.sched, h.delays)
	if err := rev.Start(msg.Text, sink); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("message", gin.H{"id": msg.ID, "timestamp": msg.Timestamp, "length": len([]rune(msg.Text))})

	done := c.Request.Context().Done()
	settledHTML, settled := "", false
	c.Writer.Flush()
stream:
	for {
		select {
		case ev := <-sink.events:
			c.SSEvent(ev.name, ev.data)
			c.Writer.Flush()
			if ev.name == "settled" {
				settledHTML, settled = ev.html, true
				break stream
			}
		case <-done:
			break stream
		}
	}

	if !settled {
		rev.Cancel()
		if st, _ := rev.State(); st == chat.Settled {
			settled = true
		}
	}
	panel.Settle(msg.ID, settledHTML)
	if settled {
		metrics.Reveals.WithLabelValues("settled").Inc()
	} else {
		metrics.Reveals.WithLabelValues("cancelled").Inc()
	}
}

func (h *Handler) ChatHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": h.panels.Get(auth.SessionID(c)).History()})
}
