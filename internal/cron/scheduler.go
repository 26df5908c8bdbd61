package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cloud-analytics/cloud-analytics-backend/internal/snapshots"
)

// Scheduler runs the nightly snapshot refresh in-process.
type Scheduler struct {
	mgr  *snapshots.Manager
	spec string
	c    *cron.Cron
}

func NewScheduler(mgr *snapshots.Manager, spec string) *Scheduler {
	if spec == "" {
		spec = "0 0 0 * * *"
	}
	return &Scheduler{mgr: mgr, spec: spec}
}

// Start initializes cron tasks
func (s *Scheduler) Start() {
	s.c = cron.New(cron.WithSeconds())

	_, err := s.c.AddFunc(s.spec, func() {
		s.runNightlyRefresh()
	})
	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Printf("Cron scheduler started (snapshot refresh at %q)", s.spec)
	s.c.Start()
}

// Stop halts the scheduler. Jobs already running finish on their own.
func (s *Scheduler) Stop() {
	if s.c != nil {
		s.c.Stop()
	}
}

func (s *Scheduler) runNightlyRefresh() {
	log.Println("Nightly snapshot refresh started...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	run, err := s.mgr.RunOnce(ctx, snapshots.RunOptions{})
	if err != nil {
		log.Printf("Nightly snapshot refresh failed: %v", err)
		return
	}
	log.Printf("Nightly snapshot refresh finished (run %s, status %s) at: %s",
		run.ID, run.Status, time.Now().Format(time.RFC1123))
}
