package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"barberapp/config"
	"barberapp/internal/domain"
	"barberapp/internal/repository"
	"barberapp/internal/storage"
)

// Clock returns the current time; tests substitute a fixed one.
type Clock func() time.Time

// EventPublisher accepts domain events for asynchronous delivery. Publish
// must not block the caller.
type EventPublisher interface {
	Publish(ev domain.Event)
}

type Deps struct {
	Repos       *repository.Repositories
	Logger      *zap.Logger
	Config      *config.Config
	FileStorage storage.FileStorage
	Events      EventPublisher
	Clock       Clock
}

type Services struct {
	User        UserService
	Barber      BarberService
	Appointment AppointmentService
	Chat        ChatService
}

func NewServices(deps Deps) *Services {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	events := deps.Events
	if events == nil {
		events = noopPublisher{}
	}

	return &Services{
		User:        NewUserService(deps.Repos.User, deps.Logger),
		Barber:      NewBarberService(deps.Repos.Barber, deps.FileStorage, deps.Logger),
		Appointment: NewAppointmentService(deps.Repos.Appointment, deps.Repos.Barber, NewKeyedLocker(), events, clock, deps.Config.Booking, deps.Logger),
		Chat:        NewChatService(deps.Repos.Chat, deps.Repos.Barber, events, clock, deps.Config.Chat, deps.Logger),
	}
}

type UserService interface {
	GetByID(ctx context.Context, principal domain.Principal, id uuid.UUID) (*domain.User, error)
}

type BarberService interface {
	List(ctx context.Context) ([]domain.Barber, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Barber, error)
	GetForUser(ctx context.Context, userID uuid.UUID) (*domain.Barber, error)
	UpdateWorkingHours(ctx context.Context, principal domain.Principal, hours []domain.WorkingHours) (*domain.Barber, error)
	UpdateServices(ctx context.Context, principal domain.Principal, services []domain.Service) (*domain.Barber, error)
	UploadPhoto(ctx context.Context, principal domain.Principal, data []byte, filename string) (*domain.Barber, error)
}

type AppointmentService interface {
	Availability(ctx context.Context, barberID uuid.UUID, date, serviceName string) (*domain.Availability, error)
	Reserve(ctx context.Context, principal domain.Principal, dto domain.CreateAppointmentDTO) (*domain.Appointment, error)
	ListForUser(ctx context.Context, principal domain.Principal, statuses []domain.AppointmentStatus, upcoming bool) ([]domain.Appointment, error)
	ListForBarber(ctx context.Context, principal domain.Principal, date string, statuses []domain.AppointmentStatus) ([]domain.Appointment, error)
	UpdateStatus(ctx context.Context, principal domain.Principal, id uuid.UUID, status domain.AppointmentStatus) (*domain.Appointment, error)
}

type ChatService interface {
	OpenOrGet(ctx context.Context, principal domain.Principal, barberID uuid.UUID) (*domain.Chat, error)
	Get(ctx context.Context, principal domain.Principal, chatID uuid.UUID) (*domain.Chat, error)
	ListForUser(ctx context.Context, principal domain.Principal) ([]domain.Chat, error)
	ListMessages(ctx context.Context, principal domain.Principal, chatID uuid.UUID, query domain.MessagesQuery) (*domain.Chat, error)
	Append(ctx context.Context, principal domain.Principal, dto domain.SendMessageDTO) (*domain.Message, error)
	MarkRead(ctx context.Context, principal domain.Principal, chatID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, principal domain.Principal, chatID uuid.UUID) (int, error)
}

type noopPublisher struct{}

func (noopPublisher) Publish(domain.Event) {}
