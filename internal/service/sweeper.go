package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper is the periodic cleanup job that purges expired token rows.
// It is an optimization, not the source of truth: lookups re-check
// expiry at point of use, so the sweep can lag, fail or run twice
// without affecting correctness. Errors are logged and retried on
// the next tick; the sweeper never halts the service.
type Sweeper struct {
	tokens   TokenStore
	interval time.Duration
	cron     *cron.Cron
}

func NewSweeper(tokens TokenStore, interval time.Duration) *Sweeper {
	return &Sweeper{tokens: tokens, interval: interval, cron: cron.New()}
}

// Start schedules the sweep on its fixed interval and begins running
// in the background.
func (s *Sweeper) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule. A sweep already in flight finishes.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.RunOnce(ctx, time.Now().UTC()); err != nil {
		log.Printf("sweeper: purge failed: %v", err)
	}
}

// RunOnce performs a single purge pass and returns how many rows were
// removed. It is exported so an operator endpoint or test can trigger
// the same cleanup any request path could issue manually.
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.tokens.PurgeExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("sweeper: purged %d expired tokens", n)
	}
	return n, nil
}
