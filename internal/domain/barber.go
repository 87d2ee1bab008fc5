package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var weekdays = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf returns the weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return weekdays[t.Weekday()]
}

func (d Weekday) Valid() bool {
	for _, w := range weekdays {
		if w == d {
			return true
		}
	}
	return false
}

// TimeOfDay is a wall-clock time expressed as minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On places t on the calendar day of date, in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, date.Location())
}

type WorkingHours struct {
	Day         Weekday `json:"day" binding:"required"`
	StartTime   string  `json:"startTime" binding:"required,hhmm"`
	EndTime     string  `json:"endTime" binding:"required,hhmm"`
	IsAvailable bool    `json:"isAvailable"`
}

type Service struct {
	Name        string  `json:"name" binding:"required"`
	Price       float64 `json:"price" binding:"gte=0"`
	Duration    int     `json:"duration" binding:"required,gt=0"`
	Description string  `json:"description,omitempty"`
}

type Barber struct {
	ID           uuid.UUID      `json:"_id"`
	UserID       uuid.UUID      `json:"userId"`
	Name         string         `json:"name"`
	ShopName     string         `json:"shopName"`
	ShopAddress  string         `json:"shopAddress"`
	ProfileImage string         `json:"profileImage"`
	Rating       float64        `json:"rating"`
	TotalReviews int            `json:"totalReviews"`
	Skills       []string       `json:"skills"`
	Services     []Service      `json:"services"`
	WorkingHours []WorkingHours `json:"workingHours"`
	IsActive     bool           `json:"isActive"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// FindService looks a service up by name, case-insensitively.
func (b *Barber) FindService(name string) (Service, bool) {
	name = strings.TrimSpace(name)
	for _, s := range b.Services {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Service{}, false
}

func (b *Barber) Summary() BarberSummary {
	return BarberSummary{
		ID:           b.ID,
		Name:         b.Name,
		ShopName:     b.ShopName,
		ProfileImage: b.ProfileImage,
	}
}

type BarberSummary struct {
	ID           uuid.UUID `json:"_id"`
	Name         string    `json:"name"`
	ShopName     string    `json:"shopName"`
	ProfileImage string    `json:"profileImage"`
}

type UpdateWorkingHoursDTO struct {
	WorkingHours []WorkingHours `json:"workingHours" binding:"required,dive"`
}

type UpdateServicesDTO struct {
	Services []Service `json:"services" binding:"required,dive"`
}

// ValidateWorkingHours checks a weekly template: known day names, at most
// one entry per day, and start before end on available days.
func ValidateWorkingHours(hours []WorkingHours) error {
	seen := make(map[Weekday]bool, len(hours))
	for _, wh := range hours {
		day := Weekday(strings.ToLower(string(wh.Day)))
		if !day.Valid() {
			return NewValidationError("INVALID_WORKING_HOURS", fmt.Sprintf("unknown day %q", wh.Day))
		}
		if seen[day] {
			return NewValidationError("INVALID_WORKING_HOURS", fmt.Sprintf("duplicate entry for %s", day))
		}
		seen[day] = true

		start, err := ParseTimeOfDay(wh.StartTime)
		if err != nil {
			return NewValidationError("INVALID_WORKING_HOURS", err.Error())
		}
		end, err := ParseTimeOfDay(wh.EndTime)
		if err != nil {
			return NewValidationError("INVALID_WORKING_HOURS", err.Error())
		}
		if wh.IsAvailable && start >= end {
			return NewValidationError("INVALID_WORKING_HOURS", fmt.Sprintf("%s: start time must be before end time", day))
		}
	}
	return nil
}

// ValidateServices checks names are present and unique and durations positive.
func ValidateServices(services []Service) error {
	seen := make(map[string]bool, len(services))
	for _, s := range services {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			return NewValidationError("INVALID_SERVICE", "service name is required")
		}
		if seen[name] {
			return NewValidationError("INVALID_SERVICE", fmt.Sprintf("duplicate service %q", s.Name))
		}
		seen[name] = true

		if s.Duration <= 0 {
			return ErrInvalidServiceConfig.WithMessage("service %q: duration must be positive", s.Name)
		}
		if s.Price < 0 {
			return NewValidationError("INVALID_SERVICE", fmt.Sprintf("service %q: price must not be negative", s.Name))
		}
	}
	return nil
}
