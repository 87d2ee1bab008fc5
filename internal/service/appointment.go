package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"barberapp/config"
	"barberapp/internal/domain"
	"barberapp/internal/metrics"
	"barberapp/internal/repository"
	"barberapp/pkg/database"
)

type AppointmentServiceImpl struct {
	repo       repository.AppointmentRepository
	barberRepo repository.BarberRepository
	locker     *KeyedLocker
	events     EventPublisher
	now        Clock
	cfg        config.BookingConfig
	loc        *time.Location
	logger     *zap.Logger

	isTransient func(error) bool
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	barberRepo repository.BarberRepository,
	locker *KeyedLocker,
	events EventPublisher,
	clock Clock,
	cfg config.BookingConfig,
	logger *zap.Logger,
) *AppointmentServiceImpl {
	return &AppointmentServiceImpl{
		repo:        repo,
		barberRepo:  barberRepo,
		locker:      locker,
		events:      events,
		now:         clock,
		cfg:         cfg,
		loc:         cfg.Location(),
		logger:      logger,
		isTransient: database.IsTransient,
	}
}

// Availability answers the slot query for one barber and calendar date.
// The ledger read is advisory; Reserve re-validates at commit.
func (s *AppointmentServiceImpl) Availability(ctx context.Context, barberID uuid.UUID, date, serviceName string) (*domain.Availability, error) {
	started := time.Now()
	defer func() { metrics.SlotQueryDuration.Observe(time.Since(started).Seconds()) }()

	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return nil, domain.ErrInvalidDate
	}

	barber, err := s.barberRepo.GetByID(ctx, barberID)
	if err != nil {
		return nil, err
	}

	service, err := s.pickService(barber, serviceName)
	if err != nil {
		return nil, err
	}

	availability := &domain.Availability{
		BarberID: barber.ID,
		Date:     date,
		Service:  service.Name,
		Duration: service.Duration,
		Slots:    []domain.Slot{},
	}

	// Inactive barbers take no bookings, so they show no slots.
	if !barber.IsActive {
		return availability, nil
	}

	existing, err := s.repo.ActiveBetween(ctx, barber.ID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	slots, err := GenerateSlots(barber, service, day, existing, SlotOptions{
		Now:      s.now(),
		LeadTime: s.cfg.MinLeadTime,
	})
	if err != nil {
		return nil, err
	}

	availability.Slots = slots
	return availability, nil
}

// pickService resolves the service a slot query is for. Without a name the
// barber's first service is used, and a barber with no services gets the
// configured default duration.
func (s *AppointmentServiceImpl) pickService(barber *domain.Barber, name string) (domain.Service, error) {
	if strings.TrimSpace(name) != "" {
		service, ok := barber.FindService(name)
		if !ok {
			return domain.Service{}, domain.ErrServiceNotFound.WithMessage("barber does not offer %q", name)
		}
		return service, nil
	}

	if len(barber.Services) > 0 {
		return barber.Services[0], nil
	}

	return domain.Service{Name: "", Duration: s.cfg.DefaultServiceDuration}, nil
}

// Reserve is the reservation transaction. The interval check and insert
// run under the barber's in-process lock and, in storage, under a
// transaction-scoped advisory lock backed by an exclusion constraint.
func (s *AppointmentServiceImpl) Reserve(ctx context.Context, principal domain.Principal, dto domain.CreateAppointmentDTO) (*domain.Appointment, error) {
	appt, barber, err := s.prepare(ctx, principal, dto)
	if err != nil {
		metrics.ReservationsTotal.WithLabelValues(outcomeOf(err)).Inc()
		return nil, err
	}

	if err := s.commit(ctx, appt); err != nil {
		metrics.ReservationsTotal.WithLabelValues(outcomeOf(err)).Inc()
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Info("slot already taken",
				zap.String("barber_id", appt.BarberID.String()),
				zap.Time("start", appt.AppointmentDate),
			)
		}
		return nil, err
	}

	metrics.ReservationsTotal.WithLabelValues("created").Inc()
	s.logger.Info("appointment created",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("barber_id", appt.BarberID.String()),
		zap.String("user_id", appt.UserID.String()),
		zap.Time("start", appt.AppointmentDate),
		zap.String("status", string(appt.Status)),
	)

	summary := barber.Summary()
	appt.Barber = &summary
	s.events.Publish(domain.NewEvent(domain.EventAppointmentCreated, appt.CreatedAt, appt, appt.UserID, barber.UserID))

	return appt, nil
}

func (s *AppointmentServiceImpl) prepare(ctx context.Context, principal domain.Principal, dto domain.CreateAppointmentDTO) (*domain.Appointment, *domain.Barber, error) {
	barberID, err := uuid.Parse(dto.BarberID)
	if err != nil {
		return nil, nil, domain.ErrInvalidID.WithMessage("barberId is not a valid id")
	}
	if dto.AppointmentDate.IsZero() {
		return nil, nil, domain.NewValidationError("MISSING_FIELD", "appointmentDate is required")
	}

	barber, err := s.barberRepo.GetByID(ctx, barberID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.NewValidationError("UNKNOWN_BARBER", "barber does not exist")
		}
		return nil, nil, err
	}
	if !barber.IsActive {
		return nil, nil, domain.NewValidationError("BARBER_INACTIVE", "barber is not accepting bookings")
	}

	service, ok := barber.FindService(dto.Service.Name)
	if !ok {
		return nil, nil, domain.ErrServiceNotFound.WithMessage("barber does not offer %q", dto.Service.Name)
	}
	if service.Duration <= 0 {
		return nil, nil, domain.ErrInvalidServiceConfig
	}
	if (dto.Service.Duration != 0 && dto.Service.Duration != service.Duration) || (dto.Service.Price != 0 && dto.Service.Price != service.Price) {
		s.logger.Debug("client service details differ from barber record",
			zap.String("service", service.Name),
			zap.Int("client_duration", dto.Service.Duration),
			zap.Int("duration", service.Duration),
		)
	}

	notes := strings.TrimSpace(dto.Notes)
	if s.cfg.MaxNotesLength > 0 && utf8.RuneCountInString(notes) > s.cfg.MaxNotesLength {
		return nil, nil, domain.NewValidationError("NOTES_TOO_LONG", fmt.Sprintf("notes must be at most %d characters", s.cfg.MaxNotesLength))
	}

	start := dto.AppointmentDate.In(s.loc)
	interval := domain.Interval{Start: start, End: start.Add(time.Duration(service.Duration) * time.Minute)}

	now := s.now()
	if !start.After(now.Add(s.cfg.MinLeadTime)) {
		return nil, nil, domain.ErrSlotInPast
	}

	if !ResolveWorkingDay(barber, start).Contains(interval) {
		return nil, nil, domain.ErrOutsideWorkingHours
	}

	return &domain.Appointment{
		ID:              uuid.New(),
		UserID:          principal.UserID,
		BarberID:        barber.ID,
		Service:         domain.SnapshotOf(service),
		AppointmentDate: interval.Start,
		EndAt:           interval.End,
		Status:          domain.AppointmentStatus(s.cfg.InitialStatus),
		Notes:           notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, barber, nil
}

func (s *AppointmentServiceImpl) commit(ctx context.Context, appt *domain.Appointment) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	defer cancel()

	waitStarted := time.Now()
	unlock, err := s.locker.Lock(lockCtx, appt.BarberID.String())
	metrics.ReservationLockWait.Observe(time.Since(waitStarted).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("reservation lock timeout", zap.String("barber_id", appt.BarberID.String()))
		return domain.ErrBookingBusy.WithError(err)
	}
	defer unlock()

	err = retryTransient(ctx, s.cfg.RetryAttempts, s.cfg.RetryBaseDelay, s.isTransient,
		func(attempt int, err error) {
			metrics.ReservationRetriesTotal.Inc()
			s.logger.Warn("retrying reservation", zap.Int("attempt", attempt), zap.Error(err))
		},
		func() error { return s.repo.CreateExclusive(ctx, appt) },
	)
	if err != nil && database.IsLockNotAvailable(err) {
		s.logger.Warn("reservation lock held by another instance", zap.String("barber_id", appt.BarberID.String()))
		return domain.ErrBookingBusy.WithError(err)
	}
	if err != nil && s.isTransient(err) {
		return domain.ErrUnavailable.WithMessage("booking storage unavailable").WithError(err)
	}
	return err
}

func outcomeOf(err error) string {
	switch domain.KindOf(err) {
	case domain.KindConflict:
		return "conflict"
	case domain.KindValidation, domain.KindNotFound:
		return "validation"
	case domain.KindUnavailable:
		return "busy"
	default:
		return "error"
	}
}

func (s *AppointmentServiceImpl) ListForUser(ctx context.Context, principal domain.Principal, statuses []domain.AppointmentStatus, upcoming bool) ([]domain.Appointment, error) {
	filter := domain.AppointmentFilter{
		UserID:   &principal.UserID,
		Statuses: statuses,
	}

	if upcoming {
		now := s.now()
		filter.From = &now
		if len(filter.Statuses) == 0 {
			filter.Statuses = domain.ActiveStatuses
		}
	}

	return s.repo.List(ctx, filter)
}

func (s *AppointmentServiceImpl) ListForBarber(ctx context.Context, principal domain.Principal, date string, statuses []domain.AppointmentStatus) ([]domain.Appointment, error) {
	barber, err := s.barberRepo.GetByUserID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrBarberOnly
		}
		return nil, err
	}

	filter := domain.AppointmentFilter{
		BarberID: &barber.ID,
		Statuses: statuses,
	}

	if date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, s.loc)
		if err != nil {
			return nil, domain.ErrInvalidDate
		}
		next := day.AddDate(0, 0, 1)
		filter.From = &day
		filter.To = &next
	}

	return s.repo.List(ctx, filter)
}

// UpdateStatus applies a lifecycle transition. Customers may only cancel
// their own appointments; the barber and admins may apply any allowed move.
func (s *AppointmentServiceImpl) UpdateStatus(ctx context.Context, principal domain.Principal, id uuid.UUID, status domain.AppointmentStatus) (*domain.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	barber, err := s.barberRepo.GetByID(ctx, appt.BarberID)
	if err != nil {
		return nil, err
	}

	switch {
	case principal.IsAdmin():
	case principal.UserID == barber.UserID:
	case principal.UserID == appt.UserID:
		if status != domain.AppointmentStatusCancelled {
			return nil, domain.ErrNotOwner.WithMessage("customers can only cancel appointments")
		}
	default:
		return nil, domain.ErrNotOwner
	}

	if !appt.Status.CanTransitionTo(status) {
		return nil, domain.ErrInvalidTransition.WithMessage("cannot change status from %s to %s", appt.Status, status)
	}

	now := s.now()
	if err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, status, now); err != nil {
		return nil, err
	}

	previous := appt.Status
	appt.Status = status
	appt.UpdatedAt = now

	metrics.AppointmentStatusChangesTotal.WithLabelValues(string(status)).Inc()
	s.logger.Info("appointment status changed",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("by", principal.UserID.String()),
	)

	s.events.Publish(domain.NewEvent(domain.EventAppointmentStatusChanged, now, appt, appt.UserID, barber.UserID))

	return appt, nil
}
