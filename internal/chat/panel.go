package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"churchattend/internal/model"
)

// ErrEmptyQuestion is returned for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// maxHistory bounds the messages a panel keeps.
const maxHistory = 100

// Asker is the chat endpoint of the backend.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Panel is the chat history of one session.
type Panel struct {
	mu       sync.Mutex
	asker    Asker
	clock    func() time.Time
	messages []model.ChatMessage
}

// NewPanel creates an empty panel.
func NewPanel(asker Asker, clock func() time.Time) *Panel {
	if clock == nil {
		clock = time.Now
	}
	return &Panel{asker: asker, clock: clock}
}

// Ask records the question, waits for the full answer and records it as a
// typing bot message, which is returned for revealing.
func (p *Panel) Ask(ctx context.Context, question string) (model.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return model.ChatMessage{}, ErrEmptyQuestion
	}
	p.append(model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      model.RoleUser,
		Text:      question,
		State:     model.ChatSettled,
		Timestamp: p.clock(),
	})

	answer, err := p.asker.Ask(ctx, question)
	if err != nil {
		return model.ChatMessage{}, err
	}
	msg := model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      model.RoleBot,
		Text:      answer,
		State:     model.ChatTyping,
		Timestamp: p.clock(),
	}
	p.append(msg)
	return msg, nil
}

func (p *Panel) append(m model.ChatMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, m)
	if len(p.messages) > maxHistory {
		p.messages = p.messages[len(p.messages)-maxHistory:]
	}
}

// Settle freezes a bot message as fully revealed with its rendered form.
// A cancelled reveal is settled too, so the history never holds a half
// typed answer.
func (p *Panel) Settle(id, html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.messages {
		if p.messages[i].ID == id {
			p.messages[i].State = model.ChatSettled
			if html == "" {
				html = RenderMarkdown(p.messages[i].Text)
			}
			p.messages[i].HTML = html
			return
		}
	}
}

// History returns a copy of the messages in order.
func (p *Panel) History() []model.ChatMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.ChatMessage(nil), p.messages...)
}

// Panels keeps one panel per session.
type Panels struct {
	mu    sync.Mutex
	asker Asker
	items map[string]*Panel
}

// NewPanels creates an empty registry.
func NewPanels(asker Asker) *Panels {
	return &Panels{asker: asker, items: make(map[string]*Panel)}
}

// Get returns the panel of a session, creating it on first use.
func (r *Panels) Get(id string) *Panel {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		p = NewPanel(r.asker, nil)
		r.items[id] = p
	}
	return p
}

// Drop forgets a session's panel.
func (r *Panels) Drop(id string) {
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()
}
