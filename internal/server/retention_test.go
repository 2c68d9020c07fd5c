package server

import (
	"testing"
	"time"
)

func TestSweeperDue(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	s := &RetentionSweeper{CronSpec: "@daily"}
	if !s.due(now) {
		t.Fatalf("first run is always due")
	}

	s.lastRun = now.Add(-2 * time.Hour)
	if s.due(now) {
		t.Fatalf("daily sweep two hours after the last run is not due")
	}
	s.lastRun = now.Add(-25 * time.Hour)
	if !s.due(now) {
		t.Fatalf("daily sweep past 24h is due")
	}

	s = &RetentionSweeper{CronSpec: "@hourly", lastRun: now.Add(-30 * time.Minute)}
	if s.due(now) {
		t.Fatalf("hourly sweep half an hour in is not due")
	}
	s.lastRun = now.Add(-61 * time.Minute)
	if !s.due(now) {
		t.Fatalf("hourly sweep past the hour is due")
	}
}

func TestSweeperDueCronExpression(t *testing.T) {
	now := time.Date(2026, 8, 29, 3, 30, 0, 0, time.UTC)
	// every day at 03:00
	s := &RetentionSweeper{CronSpec: "0 3 * * *", lastRun: now.Add(-2 * time.Hour)}
	if !s.due(now) {
		t.Fatalf("03:00 fired between last run and now, sweep is due")
	}
	s.lastRun = now.Add(-10 * time.Minute)
	if s.due(now) {
		t.Fatalf("no cron tick since the last run, sweep is not due")
	}
}

func TestSweeperBadCronFallsBackToDaily(t *testing.T) {
	now := time.Now()
	s := &RetentionSweeper{CronSpec: "not a cron", lastRun: now.Add(-25 * time.Hour)}
	if !s.due(now) {
		t.Fatalf("unparseable spec falls back to daily cadence")
	}
	s.lastRun = now.Add(-time.Hour)
	if s.due(now) {
		t.Fatalf("fallback daily cadence not honored")
	}
}
