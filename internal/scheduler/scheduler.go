// Package scheduler runs Murmur's recurring background jobs: the Monday
// reflection pass that closes out the previous week for every user, and
// daily notification cleanup.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/murmur-hq/murmur/internal/core"
	"github.com/murmur-hq/murmur/internal/logging"
	"github.com/murmur-hq/murmur/internal/notifications"
	"github.com/murmur-hq/murmur/internal/reflection"
	"github.com/murmur-hq/murmur/internal/week"
)

const (
	// Notification cleanup runs every day at 03:30 UTC
	cleanupSchedule = "0 30 3 * * *"

	runTimeout = 5 * time.Minute
)

// UserSource lists the users the weekly pass iterates over
type UserSource interface {
	GetAll(ctx context.Context) ([]core.User, error)
}

// Broadcaster pushes a message to a user's connected clients
type Broadcaster interface {
	SendToUser(userID core.UserID, msgType string, data interface{})
}

// Config for the scheduler
type Config struct {
	// Cron expression with a seconds field for the weekly reflection pass
	Schedule string

	// How long read notifications are kept
	Retention time.Duration

	Users         UserSource
	Reflections   *reflection.Service
	Notifications *notifications.Service

	// Optional; nil means no live push
	Broadcaster Broadcaster

	Logger *logging.Logger
}

// Scheduler owns the cron runner
type Scheduler struct {
	cron *cron.Cron

	schedule  string
	retention time.Duration

	users       UserSource
	reflections *reflection.Service
	notifier    *notifications.Service
	broadcaster Broadcaster

	log *logging.Logger
}

// New creates a scheduler; jobs start on Start
func New(cfg Config) *Scheduler {
	log := cfg.Logger
	if log == nil {
		log = logging.WithField("component", "scheduler")
	}

	return &Scheduler{
		schedule:    cfg.Schedule,
		retention:   cfg.Retention,
		users:       cfg.Users,
		reflections: cfg.Reflections,
		notifier:    cfg.Notifications,
		broadcaster: cfg.Broadcaster,
		log:         log,
	}
}

// Start registers the jobs and starts the cron runner
func (s *Scheduler) Start() error {
	s.cron = cron.New(cron.WithSeconds())

	if _, err := s.cron.AddFunc(s.schedule, s.runWeekly); err != nil {
		return fmt.Errorf("register weekly job %q: %w", s.schedule, err)
	}

	if s.retention > 0 {
		if _, err := s.cron.AddFunc(cleanupSchedule, s.runCleanup); err != nil {
			return fmt.Errorf("register cleanup job: %w", err)
		}
	}

	s.cron.Start()
	s.log.Info("scheduler started, weekly pass at %q", s.schedule)
	return nil
}

// Stop halts the cron runner and waits for running jobs to finish
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn("stop timeout waiting for running jobs")
	}
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) runWeekly() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	s.generateWeeklySummaries(ctx, time.Now().UTC())
}

// generateWeeklySummaries closes out the previous ISO week for every user.
// The pass regenerates even previously viewed weeks so mid-week snapshots
// are replaced by the final, complete summary.
func (s *Scheduler) generateWeeklySummaries(ctx context.Context, now time.Time) {
	prev := week.Of(now.AddDate(0, 0, -7))

	users, err := s.users.GetAll(ctx)
	if err != nil {
		s.log.Error("load users for weekly pass: %v", err)
		return
	}

	s.log.Info("weekly pass for %s: %d users", prev, len(users))

	for _, user := range users {
		summary, err := s.reflections.GetOrGenerate(ctx, user.ID, prev, true)
		if err != nil {
			s.log.Error("generate %s for %s: %v", prev, user.ID, err)
			continue
		}

		if _, err := s.notifier.SendReflectionReady(ctx, user.ID, prev.String(), summary.Phase); err != nil {
			s.log.Warn("notify %s: %v", user.ID, err)
		}

		if s.broadcaster != nil {
			s.broadcaster.SendToUser(user.ID, "reflection.ready", summary)
		}
	}
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	deleted, err := s.notifier.Cleanup(ctx, s.retention)
	if err != nil {
		s.log.Error("notification cleanup: %v", err)
		return
	}
	if deleted > 0 {
		s.log.Info("cleaned up %d read notifications", deleted)
	}
}
