package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"barberapp/config"
	"barberapp/internal/domain"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// 2025-03-10 is a Monday.
var (
	monday   = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	fixedNow = time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
)

func fixedClock() time.Time { return fixedNow }

func at(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
}

func newBarber() *domain.Barber {
	return &domain.Barber{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Name:     "Sam",
		ShopName: "Fade Lab",
		IsActive: true,
		Services: []domain.Service{
			{Name: "Haircut", Price: 25, Duration: 30},
			{Name: "Beard Trim", Price: 15, Duration: 15},
		},
		WorkingHours: []domain.WorkingHours{
			{Day: domain.Monday, StartTime: "09:00", EndTime: "17:00", IsAvailable: true},
			{Day: domain.Tuesday, StartTime: "09:00", EndTime: "17:00", IsAvailable: false},
		},
	}
}

func bookingConfig() config.BookingConfig {
	return config.BookingConfig{
		InitialStatus:          "pending",
		LockTimeout:            time.Second,
		DefaultServiceDuration: 30,
		Timezone:               "UTC",
		RetryAttempts:          3,
		RetryBaseDelay:         time.Millisecond,
		MaxNotesLength:         500,
	}
}

func customer() domain.Principal {
	return domain.Principal{UserID: uuid.New(), Role: domain.UserRoleUser}
}

// ---------------------------------------------------------------------------
// Barber repository
// ---------------------------------------------------------------------------

type stubBarberRepo struct {
	mu      sync.Mutex
	barbers map[uuid.UUID]*domain.Barber
}

func newStubBarberRepo(barbers ...*domain.Barber) *stubBarberRepo {
	r := &stubBarberRepo{barbers: make(map[uuid.UUID]*domain.Barber)}
	for _, b := range barbers {
		r.barbers[b.ID] = b
	}
	return r
}

func (r *stubBarberRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Barber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.barbers[id]
	if !ok {
		return nil, domain.ErrBarberNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *stubBarberRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Barber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.barbers {
		if b.UserID == userID {
			clone := *b
			return &clone, nil
		}
	}
	return nil, domain.ErrBarberNotFound
}

func (r *stubBarberRepo) List(_ context.Context, onlyActive bool) ([]domain.Barber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Barber
	for _, b := range r.barbers {
		if onlyActive && !b.IsActive {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubBarberRepo) update(id uuid.UUID, fn func(b *domain.Barber)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.barbers[id]
	if !ok {
		return domain.ErrBarberNotFound
	}
	fn(b)
	return nil
}

func (r *stubBarberRepo) UpdateWorkingHours(_ context.Context, id uuid.UUID, hours []domain.WorkingHours) error {
	return r.update(id, func(b *domain.Barber) { b.WorkingHours = hours })
}

func (r *stubBarberRepo) UpdateServices(_ context.Context, id uuid.UUID, services []domain.Service) error {
	return r.update(id, func(b *domain.Barber) { b.Services = services })
}

func (r *stubBarberRepo) UpdateProfileImage(_ context.Context, id uuid.UUID, url string) error {
	return r.update(id, func(b *domain.Barber) { b.ProfileImage = url })
}

// ---------------------------------------------------------------------------
// Appointment repository
// ---------------------------------------------------------------------------

// stubAppointmentRepo mirrors the ledger queries. CreateExclusive checks and
// inserts under separate critical sections with a pause in between, so it
// only stays race free when callers serialize per barber.
type stubAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*domain.Appointment
	createErrs   []error // returned, in order, by the next CreateExclusive calls
	createCalls  int
}

func newStubAppointmentRepo() *stubAppointmentRepo {
	return &stubAppointmentRepo{appointments: make(map[uuid.UUID]*domain.Appointment)}
}

func (r *stubAppointmentRepo) add(a domain.Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appointments[a.ID] = &a
}

func (r *stubAppointmentRepo) activeFor(barberID uuid.UUID) []domain.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Appointment
	for _, a := range r.appointments {
		if a.BarberID == barberID && a.Status.IsActive() {
			out = append(out, *a)
		}
	}
	return out
}

func (r *stubAppointmentRepo) ActiveBetween(_ context.Context, barberID uuid.UUID, from, to time.Time) ([]domain.Appointment, error) {
	window := domain.Interval{Start: from, End: to}
	var out []domain.Appointment
	for _, a := range r.activeFor(barberID) {
		if a.Interval().Overlaps(window) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubAppointmentRepo) HasConflict(_ context.Context, barberID uuid.UUID, interval domain.Interval) (bool, error) {
	for _, a := range r.activeFor(barberID) {
		if a.Interval().Overlaps(interval) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAppointmentRepo) CreateExclusive(ctx context.Context, appt *domain.Appointment) error {
	r.mu.Lock()
	r.createCalls++
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		r.mu.Unlock()
		if err != nil {
			return err
		}
	} else {
		r.mu.Unlock()
	}

	conflict, _ := r.HasConflict(ctx, appt.BarberID, appt.Interval())
	if conflict {
		return domain.ErrSlotUnavailable
	}

	time.Sleep(2 * time.Millisecond)

	r.add(*appt)
	return nil
}

func (r *stubAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubAppointmentRepo) List(_ context.Context, f domain.AppointmentFilter) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Appointment
	for _, a := range r.appointments {
		if f.UserID != nil && a.UserID != *f.UserID {
			continue
		}
		if f.BarberID != nil && a.BarberID != *f.BarberID {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, a.Status) {
			continue
		}
		if f.From != nil && a.AppointmentDate.Before(*f.From) {
			continue
		}
		if f.To != nil && !a.AppointmentDate.Before(*f.To) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentDate.Before(out[j].AppointmentDate) })
	return out, nil
}

func containsStatus(list []domain.AppointmentStatus, s domain.AppointmentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *stubAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.AppointmentStatus, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return domain.ErrAppointmentNotFound
	}
	if a.Status != from {
		return domain.ErrInvalidTransition
	}
	a.Status = to
	a.UpdatedAt = now
	return nil
}

func (r *stubAppointmentRepo) DueForReminder(_ context.Context, from, to time.Time, limit int) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Appointment
	for _, a := range r.appointments {
		if a.Status.IsActive() && a.RemindedAt == nil && !a.AppointmentDate.Before(from) && a.AppointmentDate.Before(to) {
			out = append(out, *a)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubAppointmentRepo) MarkReminded(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.RemindedAt != nil {
		return false, nil
	}
	a.RemindedAt = &now
	return true, nil
}

// ---------------------------------------------------------------------------
// Chat repository
// ---------------------------------------------------------------------------

type stubChat struct {
	chat     domain.Chat
	nextSeq  int64
	messages []domain.Message
}

type stubChatRepo struct {
	mu      sync.Mutex
	barbers *stubBarberRepo
	chats   map[uuid.UUID]*stubChat
	byPair  map[[2]uuid.UUID]uuid.UUID
}

func newStubChatRepo(barbers *stubBarberRepo) *stubChatRepo {
	return &stubChatRepo{
		barbers: barbers,
		chats:   make(map[uuid.UUID]*stubChat),
		byPair:  make(map[[2]uuid.UUID]uuid.UUID),
	}
}

func (r *stubChatRepo) snapshot(c *stubChat) *domain.Chat {
	chat := c.chat
	if n := len(c.messages); n > 0 {
		last := c.messages[n-1]
		chat.LastMessage = &domain.LastMessage{Content: last.Content, CreatedAt: last.CreatedAt}
	}
	return &chat
}

func (r *stubChatRepo) OpenOrGet(ctx context.Context, id, userID, barberID uuid.UUID, now time.Time) (*domain.Chat, error) {
	barber, err := r.barbers.GetByID(ctx, barberID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := [2]uuid.UUID{userID, barberID}
	if existing, ok := r.byPair[key]; ok {
		return r.snapshot(r.chats[existing]), nil
	}

	c := &stubChat{
		chat: domain.Chat{
			ID:           id,
			UserID:       userID,
			BarberID:     barberID,
			BarberUserID: barber.UserID,
			Participants: domain.ChatParticipants{
				User:   domain.UserSummary{ID: userID},
				Barber: barber.Summary(),
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		nextSeq: 1,
	}
	r.chats[id] = c
	r.byPair[key] = id
	return r.snapshot(c), nil
}

func (r *stubChatRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chats[id]
	if !ok {
		return nil, domain.ErrChatNotFound
	}
	return r.snapshot(c), nil
}

func (r *stubChatRepo) ListForParticipant(_ context.Context, viewer uuid.UUID) ([]domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Chat
	for _, c := range r.chats {
		if !c.chat.HasParticipant(viewer) {
			continue
		}
		chat := r.snapshot(c)
		for _, m := range c.messages {
			if !m.Read && m.Sender != viewer {
				chat.UnreadCount++
			}
		}
		out = append(out, *chat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *stubChatRepo) AppendMessage(_ context.Context, msg domain.NewMessage) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chats[msg.ChatID]
	if !ok {
		return nil, domain.ErrChatNotFound
	}

	createdAt := msg.CreatedAt
	if n := len(c.messages); n > 0 && createdAt.Before(c.messages[n-1].CreatedAt) {
		createdAt = c.messages[n-1].CreatedAt
	}

	m := domain.Message{
		ID:          msg.ID,
		ChatID:      msg.ChatID,
		Seq:         c.nextSeq,
		Sender:      msg.Sender,
		SenderType:  msg.SenderType,
		Content:     msg.Content,
		MessageType: msg.MessageType,
		CreatedAt:   createdAt,
	}
	c.nextSeq++
	c.messages = append(c.messages, m)
	c.chat.UpdatedAt = createdAt
	return &m, nil
}

func (r *stubChatRepo) ListMessages(_ context.Context, chatID uuid.UUID, q domain.MessagesQuery) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chats[chatID]
	if !ok {
		return nil, domain.ErrChatNotFound
	}

	out := make([]domain.Message, 0)
	for _, m := range c.messages {
		if m.Seq <= q.AfterSeq {
			continue
		}
		out = append(out, m)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (r *stubChatRepo) MarkRead(_ context.Context, chatID, reader uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for i := range r.chats[chatID].messages {
		m := &r.chats[chatID].messages[i]
		if !m.Read && m.Sender != reader {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (r *stubChatRepo) CountUnread(_ context.Context, chatID, reader uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, m := range r.chats[chatID].messages {
		if !m.Read && m.Sender != reader {
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Event publisher
// ---------------------------------------------------------------------------

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(ev domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

func nopLogger() *zap.Logger { return zap.NewNop() }
