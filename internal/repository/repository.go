package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"barberapp/internal/domain"
)

type Repositories struct {
	User        UserRepository
	Barber      BarberRepository
	Appointment AppointmentRepository
	Chat        ChatRepository
}

func NewRepositories(db *pgxpool.Pool, bookingLockTimeout time.Duration) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Barber:      NewBarberRepository(db),
		Appointment: NewAppointmentRepository(db, bookingLockTimeout),
		Chat:        NewChatRepository(db),
	}
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type BarberRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Barber, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Barber, error)
	List(ctx context.Context, onlyActive bool) ([]domain.Barber, error)
	UpdateWorkingHours(ctx context.Context, id uuid.UUID, hours []domain.WorkingHours) error
	UpdateServices(ctx context.Context, id uuid.UUID, services []domain.Service) error
	UpdateProfileImage(ctx context.Context, id uuid.UUID, url string) error
}

// AppointmentRepository is the booking ledger.
type AppointmentRepository interface {
	// ActiveBetween returns pending and confirmed appointments of a barber
	// that overlap [from, to).
	ActiveBetween(ctx context.Context, barberID uuid.UUID, from, to time.Time) ([]domain.Appointment, error)
	HasConflict(ctx context.Context, barberID uuid.UUID, interval domain.Interval) (bool, error)

	// CreateExclusive checks for an overlapping active appointment and
	// inserts appt as one unit of work serialized per barber. It returns
	// domain.ErrSlotUnavailable when the interval is taken.
	CreateExclusive(ctx context.Context, appt *domain.Appointment) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error)

	// UpdateStatus moves the appointment from one status to another and
	// fails with domain.ErrInvalidTransition if it is no longer in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.AppointmentStatus, at time.Time) error

	DueForReminder(ctx context.Context, from, to time.Time, limit int) ([]domain.Appointment, error)
	MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type ChatRepository interface {
	// OpenOrGet returns the chat for the pair, creating it with id when absent.
	OpenOrGet(ctx context.Context, id, userID, barberID uuid.UUID, at time.Time) (*domain.Chat, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error)
	// ListForParticipant returns chats where viewer is either party, most
	// recent activity first, with UnreadCount computed for viewer.
	ListForParticipant(ctx context.Context, viewer uuid.UUID) ([]domain.Chat, error)

	// AppendMessage assigns the next sequence number, stores the message
	// and updates the chat's last message in one transaction.
	AppendMessage(ctx context.Context, msg domain.NewMessage) (*domain.Message, error)
	ListMessages(ctx context.Context, chatID uuid.UUID, query domain.MessagesQuery) ([]domain.Message, error)
	MarkRead(ctx context.Context, chatID, reader uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, chatID, reader uuid.UUID) (int, error)
}
