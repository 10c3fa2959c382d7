package services

import (
	"context"
	"time"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
	"github.com/dpushkar26/Panchkarma-sutra/internal/repository"
	"github.com/dpushkar26/Panchkarma-sutra/pkg/timewindow"
)

// WorkingHoursPolicy is the configured daily availability window. Hours are
// clock hours on the requested day; SlotMinutes is the walk granularity.
type WorkingHoursPolicy struct {
	StartHour      int
	EndHour        int
	LunchStartHour int
	LunchEndHour   int
	SlotMinutes    int
}

func DefaultWorkingHours() WorkingHoursPolicy {
	return WorkingHoursPolicy{
		StartHour:      9,
		EndHour:        18,
		LunchStartHour: 13,
		LunchEndHour:   14,
		SlotMinutes:    30,
	}
}

type availabilitySessionReader interface {
	ListActiveByPractitionerBetween(ctx context.Context, practitionerID int64, from, to time.Time) ([]models.Session, error)
}

type AvailabilityService struct {
	sessionRepo availabilitySessionReader
	policy      WorkingHoursPolicy
	now         func() time.Time
}

func NewAvailabilityService(sessionRepo *repository.SessionRepository, policy WorkingHoursPolicy) *AvailabilityService {
	return &AvailabilityService{
		sessionRepo: sessionRepo,
		policy:      policy,
		now:         time.Now,
	}
}

// ListAvailableSlots returns the bookable windows for a practitioner on a
// date, ascending. An empty result is a valid answer, not an error.
func (s *AvailabilityService) ListAvailableSlots(
	ctx context.Context,
	practitionerID int64,
	date time.Time,
	durationMinutes int,
) ([]models.AvailableSlot, error) {
	if practitionerID <= 0 || durationMinutes <= 0 {
		return nil, ErrInvalidInput
	}

	now := s.now().UTC()
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return nil, ErrInvalidInput
	}

	busy, err := s.sessionRepo.ListActiveByPractitionerBetween(ctx, practitionerID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	return ComputeAvailableSlots(s.policy, day, durationMinutes, busy, now), nil
}

// ComputeAvailableSlots walks the working-hours window in fixed steps and
// keeps every candidate that fits before end of day, avoids the lunch break,
// starts strictly in the future and does not overlap a slot-occupying session.
// Pure: identical inputs always yield identical output.
func ComputeAvailableSlots(
	policy WorkingHoursPolicy,
	day time.Time,
	durationMinutes int,
	busy []models.Session,
	now time.Time,
) []models.AvailableSlot {
	dayStart := day.Add(time.Duration(policy.StartHour) * time.Hour)
	dayEnd := day.Add(time.Duration(policy.EndHour) * time.Hour)
	lunchStart := day.Add(time.Duration(policy.LunchStartHour) * time.Hour)
	lunchEnd := day.Add(time.Duration(policy.LunchEndHour) * time.Hour)
	duration := time.Duration(durationMinutes) * time.Minute
	step := time.Duration(policy.SlotMinutes) * time.Minute

	slots := make([]models.AvailableSlot, 0)
	for start := dayStart; start.Before(dayEnd); start = start.Add(step) {
		end := start.Add(duration)
		if end.After(dayEnd) {
			continue
		}
		if timewindow.Overlaps(start, end, lunchStart, lunchEnd) {
			continue
		}
		if !start.After(now) {
			continue
		}
		if overlapsAny(start, end, busy) {
			continue
		}
		slots = append(slots, models.AvailableSlot{Start: start, End: end})
	}
	return slots
}

func overlapsAny(start, end time.Time, sessions []models.Session) bool {
	for _, session := range sessions {
		if !isActiveStatus(session.Status) {
			continue
		}
		if timewindow.Overlaps(start, end, session.StartTime, session.EndTime) {
			return true
		}
	}
	return false
}
