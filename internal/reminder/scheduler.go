// Package reminder emits reminder events for appointments that start soon.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"barberapp/config"
	"barberapp/internal/domain"
	"barberapp/internal/metrics"
)

const (
	batchSize  = 100
	runTimeout = time.Minute
)

type Repository interface {
	DueForReminder(ctx context.Context, from, to time.Time, limit int) ([]domain.Appointment, error)
	MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// Guard claims a key once across replicas. Optional; the reminded_at
// column is the source of truth.
type Guard interface {
	Claim(ctx context.Context, key string) (bool, error)
}

type Publisher interface {
	Publish(ev domain.Event)
}

type Scheduler struct {
	cron      *cron.Cron
	spec      string
	lookahead time.Duration

	repo   Repository
	guard  Guard
	events Publisher
	now    func() time.Time
	logger *zap.Logger
}

func NewScheduler(repo Repository, guard Guard, events Publisher, cfg config.ReminderConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		spec:      cfg.Spec,
		lookahead: cfg.Lookahead,
		repo:      repo,
		guard:     guard,
		events:    events,
		now:       time.Now,
		logger:    logger,
	}
}

// Start registers the job and starts the cron runner.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("reminder run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("reminder scheduler started", zap.String("spec", s.spec), zap.Duration("lookahead", s.lookahead))
	return nil
}

// Stop waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce emits one reminder for every active appointment starting within
// the lookahead window that has not been reminded yet. It returns how many
// were sent.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	now := s.now()

	due, err := s.repo.DueForReminder(ctx, now, now.Add(s.lookahead), batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		appt := &due[i]

		if s.guard != nil {
			claimed, err := s.guard.Claim(ctx, "reminder:"+appt.ID.String())
			if err != nil {
				s.logger.Warn("reminder guard unavailable", zap.Error(err))
			} else if !claimed {
				continue
			}
		}

		marked, err := s.repo.MarkReminded(ctx, appt.ID, now)
		if err != nil {
			return sent, err
		}
		if !marked {
			continue
		}

		s.events.Publish(domain.NewEvent(domain.EventAppointmentReminder, now, appt, appt.UserID))
		metrics.RemindersSentTotal.Inc()
		sent++
	}

	if sent > 0 {
		s.logger.Info("reminders sent", zap.Int("count", sent))
	}
	return sent, nil
}
