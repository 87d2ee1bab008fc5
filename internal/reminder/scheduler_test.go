package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"barberapp/config"
	"barberapp/internal/domain"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type stubRepo struct {
	mu           sync.Mutex
	appointments []domain.Appointment
	err          error
}

func (r *stubRepo) DueForReminder(_ context.Context, from, to time.Time, limit int) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Appointment
	for _, a := range r.appointments {
		if a.Status.IsActive() && a.RemindedAt == nil && !a.AppointmentDate.Before(from) && a.AppointmentDate.Before(to) {
			out = append(out, a)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubRepo) MarkReminded(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.appointments {
		if r.appointments[i].ID == id {
			if r.appointments[i].RemindedAt != nil {
				return false, nil
			}
			r.appointments[i].RemindedAt = &at
			return true, nil
		}
	}
	return false, nil
}

type stubGuard struct {
	claimed map[string]bool
	err     error
}

func (g *stubGuard) Claim(_ context.Context, key string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	if g.claimed[key] {
		return false, nil
	}
	g.claimed[key] = true
	return true, nil
}

type stubPublisher struct {
	events []domain.Event
}

func (p *stubPublisher) Publish(ev domain.Event) { p.events = append(p.events, ev) }

func appointment(start time.Time, status domain.AppointmentStatus) domain.Appointment {
	return domain.Appointment{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		BarberID:        uuid.New(),
		AppointmentDate: start,
		EndAt:           start.Add(30 * time.Minute),
		Status:          status,
	}
}

func newScheduler(repo Repository, guard Guard, pub Publisher) *Scheduler {
	s := NewScheduler(repo, guard, pub, config.ReminderConfig{Spec: "@every 1m", Lookahead: time.Hour}, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestRunOnce(t *testing.T) {
	soon := appointment(now.Add(30*time.Minute), domain.AppointmentStatusConfirmed)
	repo := &stubRepo{appointments: []domain.Appointment{
		soon,
		appointment(now.Add(2*time.Hour), domain.AppointmentStatusPending),
		appointment(now.Add(10*time.Minute), domain.AppointmentStatusCancelled),
		appointment(now.Add(-10*time.Minute), domain.AppointmentStatusConfirmed),
	}}
	pub := &stubPublisher{}
	s := newScheduler(repo, nil, pub)

	sent, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 1 || len(pub.events) != 1 {
		t.Fatalf("sent=%d events=%d, want 1", sent, len(pub.events))
	}

	ev := pub.events[0]
	if ev.Type != domain.EventAppointmentReminder || ev.Recipients[0] != soon.UserID {
		t.Errorf("event = %+v", ev)
	}

	// A second run finds nothing new.
	sent, _ = s.RunOnce(context.Background())
	if sent != 0 {
		t.Errorf("second run sent %d reminders", sent)
	}
}

func TestRunOnce_GuardSkipsClaimedKeys(t *testing.T) {
	appt := appointment(now.Add(15*time.Minute), domain.AppointmentStatusPending)
	repo := &stubRepo{appointments: []domain.Appointment{appt}}
	guard := &stubGuard{claimed: map[string]bool{"reminder:" + appt.ID.String(): true}}
	pub := &stubPublisher{}

	sent, err := newScheduler(repo, guard, pub).RunOnce(context.Background())
	if err != nil || sent != 0 {
		t.Errorf("sent=%d err=%v, want 0 and nil", sent, err)
	}
}

func TestRunOnce_GuardErrorFallsBackToLedger(t *testing.T) {
	repo := &stubRepo{appointments: []domain.Appointment{appointment(now.Add(15*time.Minute), domain.AppointmentStatusPending)}}
	pub := &stubPublisher{}

	sent, err := newScheduler(repo, &stubGuard{err: errors.New("redis down")}, pub).RunOnce(context.Background())
	if err != nil || sent != 1 {
		t.Errorf("sent=%d err=%v, want 1 and nil", sent, err)
	}
}

func TestRunOnce_RepositoryError(t *testing.T) {
	repo := &stubRepo{err: errors.New("db down")}
	if _, err := newScheduler(repo, nil, &stubPublisher{}).RunOnce(context.Background()); err == nil {
		t.Error("expected an error")
	}
}

func TestStart_InvalidSpec(t *testing.T) {
	s := NewScheduler(&stubRepo{}, nil, &stubPublisher{}, config.ReminderConfig{Spec: "not a schedule", Lookahead: time.Hour}, zap.NewNop())
	if err := s.Start(); err == nil {
		t.Error("expected an error for an invalid spec")
	}
}

func TestStartStop(t *testing.T) {
	s := newScheduler(&stubRepo{}, nil, &stubPublisher{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
