package chat

import (
	"bytes"
	"errors"
	"html"
	"sync"
	"time"

	"github.com/yuin/goldmark"
)

// State is the presentation lifecycle of a bot answer.
type State int

const (
	Idle State = iota
	Revealing
	Settled
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Revealing:
		return "revealing"
	case Settled:
		return "settled"
	default:
		return "cancelled"
	}
}

// ErrBusy is returned when Start is called on a revealer that already ran.
var ErrBusy = errors.New("revealer already started")

// Delays sets the pause after each revealed character.
type Delays struct {
	Base     time.Duration
	Sentence time.Duration
	Newline  time.Duration
}

// DefaultDelays approximate a typing cadence.
var DefaultDelays = Delays{Base: 25 * time.Millisecond, Sentence: 280 * time.Millisecond, Newline: 450 * time.Millisecond}

func (d Delays) after(r rune) time.Duration {
	switch r {
	case '\n':
		return d.Newline
	case '.', '!', '?', '。', '！', '？', '…':
		return d.Sentence
	}
	return d.Base
}

// Sink receives the reveal. Calls are serialized and never happen after
// Cancel returns. A sink must not call back into the revealer.
type Sink interface {
	Reveal(chunk string, position int)
	Settle(text, html string)
}

// Revealer shows a complete answer one character at a time.
type Revealer struct {
	mu     sync.Mutex
	sched  Scheduler
	delays Delays
	state  State
	runes  []rune
	pos    int
	timer  Timer
	sink   Sink
}

// NewRevealer creates an idle revealer.
func NewRevealer(s Scheduler, d Delays) *Revealer {
	if s == nil {
		s = ClockScheduler{}
	}
	return &Revealer{sched: s, delays: d}
}

// Start begins revealing text into sink.
func (r *Revealer) Start(text string, sink Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Idle {
		return ErrBusy
	}
	r.sink = sink
	r.runes = []rune(text)
	r.state = Revealing
	if len(r.runes) == 0 {
		r.settleLocked()
		return nil
	}
	r.timer = r.sched.AfterFunc(r.delays.Base, r.tick)
	return nil
}

func (r *Revealer) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Revealing {
		return
	}
	c := r.runes[r.pos]
	r.pos++
	r.sink.Reveal(string(c), r.pos)
	if r.pos == len(r.runes) {
		r.settleLocked()
		return
	}
	r.timer = r.sched.AfterFunc(r.delays.after(c), r.tick)
}

func (r *Revealer) settleLocked() {
	r.state = Settled
	r.timer = nil
	text := string(r.runes)
	r.sink.Settle(text, RenderMarkdown(text))
}

// Cancel stops a running reveal and clears the pending callback. A settled
// reveal stays settled.
func (r *Revealer) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.state == Idle || r.state == Revealing {
		r.state = Cancelled
	}
}

// State returns the current state and how many characters are shown.
func (r *Revealer) State() (State, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.pos
}

// RenderMarkdown renders a settled answer to HTML. Raw HTML in the answer
// is not passed through.
func RenderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "<p>" + html.EscapeString(src) + "</p>"
	}
	return buf.String()
}
