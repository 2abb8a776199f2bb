package calendar

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"churchattend/internal/model"
)

// BirthdayLoader fetches the birthday list of a month.
type BirthdayLoader func(ctx context.Context, month int) ([]model.Birthday, error)

// Ticker rotates through today's birthdays for the dashboard banner. The
// list is reloaded at midnight.
type Ticker struct {
	mu      sync.Mutex
	load    BirthdayLoader
	loc     *time.Location
	clock   func() time.Time
	every   time.Duration
	today   []model.Birthday
	idx     int
	cron    *cron.Cron
	stopped bool
}

// NewTicker creates a ticker rotating every interval.
func NewTicker(load BirthdayLoader, loc *time.Location, clock func() time.Time, every time.Duration) *Ticker {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = time.Now
	}
	if every <= 0 {
		every = 5 * time.Second
	}
	return &Ticker{load: load, loc: loc, clock: clock, every: every}
}

// Start loads today's list and schedules rotation and the nightly reload.
func (t *Ticker) Start(ctx context.Context) error {
	if err := t.Reload(ctx); err != nil {
		log.Printf("birthday ticker initial load: %v", err)
	}

	c := cron.New(cron.WithLocation(t.loc))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", t.every), t.Rotate); err != nil {
		return fmt.Errorf("schedule rotation: %w", err)
	}
	if _, err := c.AddFunc("0 0 * * *", func() {
		if err := t.Reload(ctx); err != nil {
			log.Printf("birthday ticker reload: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule reload: %w", err)
	}

	t.mu.Lock()
	t.cron = c
	t.stopped = false
	t.mu.Unlock()
	c.Start()
	return nil
}

// Stop tears down both schedules and waits for a running job to finish.
// Nothing rotates or reloads after Stop returns.
func (t *Ticker) Stop() {
	t.mu.Lock()
	c := t.cron
	t.cron = nil
	t.stopped = true
	t.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Reload fetches this month's birthdays and keeps the ones falling today.
func (t *Ticker) Reload(ctx context.Context) error {
	now := t.clock().In(t.loc)
	list, err := t.load(ctx, int(now.Month()))
	if err != nil {
		return err
	}
	today := BirthdaysOn(list, now.Month(), now.Day())

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return nil
	}
	t.today = today
	t.idx = 0
	return nil
}

// Rotate advances to the next birthday.
func (t *Ticker) Rotate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || len(t.today) == 0 {
		return
	}
	t.idx = (t.idx + 1) % len(t.today)
}

// Current returns the birthday shown now and the size of today's list.
func (t *Ticker) Current() (model.Birthday, int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.today) == 0 {
		return model.Birthday{}, 0, false
	}
	return t.today[t.idx], len(t.today), true
}
