// Package messaging turns a bulk message request into a queued job and
// delivers it one recipient at a time.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"churchattend/internal/metrics"
	"churchattend/internal/model"
	"churchattend/internal/queue"
)

// MessageType tags bulk jobs on the queue.
const MessageType = "bulk_message"

// Job is one bulk send.
type Job struct {
	ID            string    `json:"id"`
	RecipientType string    `json:"recipientType"`
	RecipientIDs  []int64   `json:"recipientIds"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewJob builds a job from a request, dropping duplicate recipients.
func NewJob(req model.BulkMessage, now time.Time) Job {
	seen := make(map[int64]bool, len(req.RecipientIDs))
	ids := make([]int64, 0, len(req.RecipientIDs))
	for _, id := range req.RecipientIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return Job{
		ID:            uuid.NewString(),
		RecipientType: req.RecipientType,
		RecipientIDs:  ids,
		Text:          req.Text,
		CreatedAt:     now,
	}
}

// Enqueue publishes job on q.
func Enqueue(ctx context.Context, q queue.Queue, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	return q.Publish(ctx, queue.Message{Type: MessageType, Body: body})
}

// Decode reads a job off a queue message.
func Decode(msg queue.Message) (Job, error) {
	if msg.Type != MessageType {
		return Job{}, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	var job Job
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}

// Sender delivers one message.
type Sender interface {
	SendMessage(ctx context.Context, recipientType string, recipientID int64, text string) error
}

// Report summarizes a dispatched job.
type Report struct {
	JobID  string
	Sent   int
	Failed []string
}

// Dispatcher sends jobs through a Sender.
type Dispatcher struct {
	sender Sender
	pause  time.Duration
}

// NewDispatcher creates a dispatcher waiting pause between recipients.
func NewDispatcher(sender Sender, pause time.Duration) *Dispatcher {
	return &Dispatcher{sender: sender, pause: pause}
}

// Dispatch sends job to every recipient, continuing past failures. It
// stops early only when ctx ends.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) (Report, error) {
	rep := Report{JobID: job.ID}
	for i, id := range job.RecipientIDs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := d.sender.SendMessage(ctx, job.RecipientType, id, job.Text); err != nil {
			log.Printf("job %s: send to %s %d failed: %v", job.ID, job.RecipientType, id, err)
			rep.Failed = append(rep.Failed, strconv.FormatInt(id, 10))
			metrics.BulkMessages.WithLabelValues("failed").Inc()
		} else {
			rep.Sent++
			metrics.BulkMessages.WithLabelValues("sent").Inc()
		}
		if d.pause > 0 && i < len(job.RecipientIDs)-1 {
			select {
			case <-time.After(d.pause):
			case <-ctx.Done():
				return rep, ctx.Err()
			}
		}
	}
	return rep, nil
}

// Run consumes q until ctx ends, dispatching every bulk job it receives.
// Messages of other types and undecodable jobs are logged and skipped.
func Run(ctx context.Context, q queue.Queue, d *Dispatcher) error {
	msgs, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for msg := range msgs {
		job, err := Decode(msg)
		if err != nil {
			log.Printf("skip queue message: %v", err)
			continue
		}
		log.Printf("processing job %s: %d %s recipient(s)", job.ID, len(job.RecipientIDs), job.RecipientType)
		rep, err := d.Dispatch(ctx, job)
		if err != nil {
			log.Printf("job %s interrupted after %d sent: %v", job.ID, rep.Sent, err)
			continue
		}
		log.Printf("job %s done: %d sent, %d failed", job.ID, rep.Sent, len(rep.Failed))
	}
	return ctx.Err()
}
