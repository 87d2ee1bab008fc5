package service

import (
	"time"

	"barberapp/internal/domain"
)

const slotDisplayLayout = "3:04 pm"

type SlotOptions struct {
	Now      time.Time
	LeadTime time.Duration
}

// GenerateSlots lists the free start times for service on date, in
// ascending order. date's location is the barber's local time. Slots are
// stepped by the service duration, must end by closing time, must start
// after Now+LeadTime and must not overlap an active appointment.
func GenerateSlots(barber *domain.Barber, service domain.Service, date time.Time, existing []domain.Appointment, opts SlotOptions) ([]domain.Slot, error) {
	if service.Duration <= 0 {
		return nil, domain.ErrInvalidServiceConfig
	}

	slots := make([]domain.Slot, 0)

	day := ResolveWorkingDay(barber, date)
	if !day.Open {
		return slots, nil
	}

	busy := make([]domain.Interval, 0, len(existing))
	for _, a := range existing {
		if a.Status.IsActive() {
			busy = append(busy, a.Interval())
		}
	}

	earliest := opts.Now.Add(opts.LeadTime)
	step := domain.TimeOfDay(service.Duration)

	for start := day.Start; start+step <= day.End; start += step {
		slotStart := start.On(date)
		if !slotStart.After(earliest) {
			continue
		}

		candidate := domain.Interval{Start: slotStart, End: (start + step).On(date)}
		if overlapsAny(candidate, busy) {
			continue
		}

		slots = append(slots, domain.Slot{
			Time:    slotStart,
			Display: slotStart.Format(slotDisplayLayout),
		})
	}

	return slots, nil
}

func overlapsAny(candidate domain.Interval, busy []domain.Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
