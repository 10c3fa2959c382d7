package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
	"github.com/dpushkar26/Panchkarma-sutra/internal/repository"
)

const (
	// A booked session untouched this long past its start is a no-show.
	noShowGrace = 30 * time.Minute
	// An in-progress session this long past its end completes on its own.
	autoCompleteGrace = 15 * time.Minute
)

var reminderWindows = []struct {
	Name string
	Lead time.Duration
}{
	{"24h", 24 * time.Hour},
	{"2h", 2 * time.Hour},
	{"30min", 30 * time.Minute},
}

// SweepService applies the time-driven transitions the request path never
// takes on its own. It goes through the same lifecycle rules as everything
// else, so a session a handler just touched simply loses the CAS race here.
type SweepService struct {
	sessionRepo *repository.SessionRepository
	notifier    Notifier
	broadcaster Broadcaster
	now         func() time.Time
}

func NewSweepService(
	sessionRepo *repository.SessionRepository,
	notifier Notifier,
	broadcaster Broadcaster,
) *SweepService {
	return &SweepService{
		sessionRepo: sessionRepo,
		notifier:    notifier,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// RunOnce executes a full sweep pass and logs per-phase outcomes.
func (s *SweepService) RunOnce(ctx context.Context) {
	if n, err := s.MarkNoShows(ctx); err != nil {
		log.Printf("sweep: no-show pass failed: %v", err)
	} else if n > 0 {
		log.Printf("sweep: marked %d sessions as no-show", n)
	}

	if n, err := s.AutoCompleteSessions(ctx); err != nil {
		log.Printf("sweep: auto-complete pass failed: %v", err)
	} else if n > 0 {
		log.Printf("sweep: auto-completed %d sessions", n)
	}

	if n, err := s.SendDueReminders(ctx); err != nil {
		log.Printf("sweep: reminder pass failed: %v", err)
	} else if n > 0 {
		log.Printf("sweep: sent %d reminders", n)
	}
}

func (s *SweepService) MarkNoShows(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-noShowGrace)
	candidates, err := s.sessionRepo.ListNoShowCandidates(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, session := range candidates {
		if err := validateTransition(session.Status, models.StatusNoShow); err != nil {
			continue
		}
		updated, err := s.sessionRepo.UpdateStatusIfCurrent(ctx, session.ID, session.Status, models.StatusNoShow)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return marked, err
		}
		marked++
		s.emitSweepEvent(ctx, updated, "Session marked as no-show",
			fmt.Sprintf("Session on %s was marked as a no-show", updated.ScheduledDate))
	}
	return marked, nil
}

func (s *SweepService) AutoCompleteSessions(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-autoCompleteGrace)
	candidates, err := s.sessionRepo.ListAutoCompleteCandidates(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, session := range candidates {
		updated, err := s.sessionRepo.UpdateStatusIfCurrent(ctx, session.ID, models.StatusInProgress, models.StatusCompleted)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return completed, err
		}
		completed++
		s.emitSweepEvent(ctx, updated, "Session completed",
			fmt.Sprintf("Session on %s was completed", updated.ScheduledDate))
	}
	return completed, nil
}

func (s *SweepService) SendDueReminders(ctx context.Context) (int, error) {
	now := s.now().UTC()
	sent := 0
	for _, window := range reminderWindows {
		due, err := s.sessionRepo.ListReminderDue(ctx, window.Name, now, now.Add(window.Lead))
		if err != nil {
			return sent, err
		}
		for _, session := range due {
			if err := s.sessionRepo.MarkReminderSent(ctx, session.ID, window.Name); err != nil {
				return sent, err
			}
			sent++
			if s.notifier != nil {
				body := fmt.Sprintf("Your session starts at %s on %s",
					session.StartTime.UTC().Format("15:04"), session.ScheduledDate)
				s.notifier.Notify(ctx, session.PatientID, "sessionReminder",
					"Upcoming session reminder", body, []string{ChannelInApp, ChannelSMS})
			}
		}
	}
	return sent, nil
}

func (s *SweepService) emitSweepEvent(ctx context.Context, session *models.Session, title, body string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, session.PatientID, EventSessionStatusUpdate, title, body, []string{ChannelInApp})
		s.notifier.Notify(ctx, session.PractitionerID, EventSessionStatusUpdate, title, body, []string{ChannelInApp})
	}
	if s.broadcaster != nil {
		s.broadcaster.Publish(EventSessionStatusUpdate, []int64{session.PatientID, session.PractitionerID}, session)
	}
}
