package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/tesvikportal/asistan/internal/store"
)

// RetentionSweeper deletes sessions untouched for longer than the configured
// retention. A redis lock keeps multiple replicas from sweeping at once.
type RetentionSweeper struct {
	Store         *store.Store
	Rdb           *redis.Client
	RetentionDays int
	CronSpec      string
	Stop          chan struct{}

	lastRun time.Time
	logger  *log.Logger
}

func (s *RetentionSweeper) Start() {
	if s.RetentionDays <= 0 {
		return
	}
	if s.logger == nil {
		s.logger = log.New(log.Writer(), "[SWEEP] ", log.LstdFlags)
	}
	ticker := time.NewTicker(10 * time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *RetentionSweeper) tick() {
	if !s.due(time.Now()) {
		return
	}
	ctx := context.Background()
	if s.Rdb != nil {
		ok, _ := s.Rdb.SetNX(ctx, "sweep:lock", "1", 5*time.Minute).Result()
		if !ok {
			return
		}
		defer s.Rdb.Del(ctx, "sweep:lock")
	}
	cutoff := time.Now().AddDate(0, 0, -s.RetentionDays)
	n, err := s.Store.DeleteChatSessionsBefore(ctx, cutoff)
	if err != nil {
		s.logger.Printf("sweep failed: %v", err)
		return
	}
	s.lastRun = time.Now()
	if n > 0 {
		s.logger.Printf("deleted %d stale sessions (before %s)", n, cutoff.Format(time.RFC3339))
	}
}

// due determines if a sweep should run now based on the cron spec and the
// last sweep time. Supports "@daily", "@hourly", and 5-field cron expressions.
func (s *RetentionSweeper) due(now time.Time) bool {
	if s.lastRun.IsZero() {
		return true
	}
	switch s.CronSpec {
	case "@daily", "":
		return now.Sub(s.lastRun) >= 24*time.Hour
	case "@hourly":
		return now.Sub(s.lastRun) >= time.Hour
	default:
		expr, err := cronexpr.Parse(s.CronSpec)
		if err != nil {
			return now.Sub(s.lastRun) >= 24*time.Hour
		}
		return !expr.Next(s.lastRun).After(now)
	}
}
