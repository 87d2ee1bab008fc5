package domain

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// ActiveStatuses hold a barber's time; only these take part in overlap checks.
var ActiveStatuses = []AppointmentStatus{AppointmentStatusPending, AppointmentStatusConfirmed}

func (s AppointmentStatus) IsActive() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

var transitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ServiceSnapshot is the service as it was when the appointment was booked.
type ServiceSnapshot struct {
	Name     string  `json:"name"`
	Duration int     `json:"duration"`
	Price    float64 `json:"price"`
}

func SnapshotOf(s Service) ServiceSnapshot {
	return ServiceSnapshot{Name: s.Name, Duration: s.Duration, Price: s.Price}
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

type Appointment struct {
	ID              uuid.UUID         `json:"_id"`
	UserID          uuid.UUID         `json:"userId"`
	BarberID        uuid.UUID         `json:"barberId"`
	Service         ServiceSnapshot   `json:"service"`
	AppointmentDate time.Time         `json:"appointmentDate"`
	EndAt           time.Time         `json:"endAt"`
	Status          AppointmentStatus `json:"status"`
	Notes           string            `json:"notes,omitempty"`
	RemindedAt      *time.Time        `json:"-"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`

	// Populated by list queries for display.
	Barber   *BarberSummary `json:"barber,omitempty"`
	Customer *UserSummary   `json:"customer,omitempty"`
}

func (a *Appointment) Interval() Interval {
	return Interval{Start: a.AppointmentDate, End: a.EndAt}
}

type Slot struct {
	Time    time.Time `json:"time"`
	Display string    `json:"display"`
}

type Availability struct {
	BarberID uuid.UUID `json:"barberId"`
	Date     string    `json:"date"`
	Service  string    `json:"service,omitempty"`
	Duration int       `json:"duration"`
	Slots    []Slot    `json:"slots"`
}

type ServiceRequestDTO struct {
	Name     string  `json:"name" binding:"required"`
	Duration int     `json:"duration"`
	Price    float64 `json:"price"`
}

type CreateAppointmentDTO struct {
	BarberID        string            `json:"barberId" binding:"required,uuid"`
	Service         ServiceRequestDTO `json:"service" binding:"required"`
	AppointmentDate time.Time         `json:"appointmentDate" binding:"required"`
	Notes           string            `json:"notes"`
}

type UpdateAppointmentStatusDTO struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=pending confirmed completed cancelled"`
}

type AppointmentFilter struct {
	UserID   *uuid.UUID
	BarberID *uuid.UUID
	Statuses []AppointmentStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
