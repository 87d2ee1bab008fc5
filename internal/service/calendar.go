package service

import (
	"strings"
	"time"

	"barberapp/internal/domain"
)

// WorkingDay is a barber's open interval on one calendar date.
type WorkingDay struct {
	Open  bool
	Start domain.TimeOfDay
	End   domain.TimeOfDay
}

// ResolveWorkingDay looks up the weekly template entry for date's weekday.
// A missing entry, an unavailable entry and an unparsable one all mean
// the barber is closed that day.
func ResolveWorkingDay(barber *domain.Barber, date time.Time) WorkingDay {
	day := domain.WeekdayOf(date)

	for _, wh := range barber.WorkingHours {
		if domain.Weekday(strings.ToLower(string(wh.Day))) != day {
			continue
		}
		if !wh.IsAvailable {
			return WorkingDay{}
		}

		start, err := domain.ParseTimeOfDay(wh.StartTime)
		if err != nil {
			return WorkingDay{}
		}
		end, err := domain.ParseTimeOfDay(wh.EndTime)
		if err != nil || start >= end {
			return WorkingDay{}
		}

		return WorkingDay{Open: true, Start: start, End: end}
	}

	return WorkingDay{}
}

// Bounds returns the open interval as instants on date.
func (d WorkingDay) Bounds(date time.Time) domain.Interval {
	return domain.Interval{Start: d.Start.On(date), End: d.End.On(date)}
}

// Contains reports whether interval lies inside the working day of its start date.
func (d WorkingDay) Contains(interval domain.Interval) bool {
	if !d.Open {
		return false
	}
	bounds := d.Bounds(interval.Start)
	return !interval.Start.Before(bounds.Start) && !interval.End.After(bounds.End)
}
