package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
	"github.com/dpushkar26/Panchkarma-sutra/internal/repository"
)

const (
	EventSlotBooked          = "slotBooked"
	EventSlotAvailable       = "slotAvailable"
	EventSessionCancelled    = "sessionCancelled"
	EventSessionStatusUpdate = "sessionStatusUpdate"
	EventSessionRescheduled  = "sessionRescheduled"
)

// Broadcaster pushes realtime events to user channels. Best-effort and
// non-transactional with the mutation it reports.
type Broadcaster interface {
	Publish(event string, recipientIDs []int64, payload any)
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type therapyReader interface {
	GetByID(ctx context.Context, id int64) (*models.Therapy, error)
}

type SessionService struct {
	db          *pgxpool.Pool
	sessionRepo *repository.SessionRepository
	therapyRepo therapyReader
	userRepo    userReader
	notifier    Notifier
	broadcaster Broadcaster
	now         func() time.Time
}

func NewSessionService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	therapyRepo *repository.TherapyRepository,
	userRepo userReader,
	notifier Notifier,
	broadcaster Broadcaster,
) *SessionService {
	return &SessionService{
		db:          db,
		sessionRepo: sessionRepo,
		therapyRepo: therapyRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

type BookSessionInput struct {
	TherapyID      int64
	PractitionerID int64
	StartTime      time.Time
	EndTime        time.Time
	Notes          *string
}

type RescheduleInput struct {
	NewStart time.Time
	NewEnd   time.Time
	Reason   string
}

func (s *SessionService) BookSession(
	ctx context.Context,
	patientID int64,
	input BookSessionInput,
) (*models.SessionDetail, error) {
	if input.TherapyID <= 0 || input.PractitionerID <= 0 {
		return nil, ErrInvalidInput
	}
	if patientID == input.PractitionerID {
		return nil, ErrInvalidInput
	}
	start := input.StartTime.UTC()
	end := input.EndTime.UTC()
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}
	if !start.After(s.now().UTC()) {
		return nil, fmt.Errorf("%w: start time must be in the future", ErrInvalidInput)
	}

	patient, err := s.userRepo.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if patient.Role != models.RolePatient || !patient.IsActive {
		return nil, ErrForbidden
	}

	practitioner, err := s.userRepo.GetByID(ctx, input.PractitionerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if practitioner.Role != models.RolePractitioner || !practitioner.IsActive || !practitioner.IsApproved {
		return nil, fmt.Errorf("%w: practitioner is not accepting bookings", ErrInvalidInput)
	}

	therapy, err := s.therapyRepo.GetByID(ctx, input.TherapyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTherapyNotFound
		}
		return nil, err
	}
	if !therapy.IsActive {
		return nil, ErrTherapyNotFound
	}

	// The requested duration may deviate from the catalog duration by 20%
	// in either direction.
	minutes := end.Sub(start).Minutes()
	nominal := float64(therapy.DurationMinutes)
	if minutes < nominal*0.8 || minutes > nominal*1.2 {
		return nil, ErrDurationMismatch
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)

	if err := acquireScheduleLocks(ctx, tx, input.PractitionerID, patientID); err != nil {
		return nil, err
	}

	// Re-check inside the lock: a booking that lost the race fails the same
	// way a pre-checked conflict would.
	if err := checkBookingConflicts(ctx, txSessionRepo, input.PractitionerID, patientID, start, end, 0); err != nil {
		return nil, err
	}

	session, err := txSessionRepo.Create(ctx, repository.CreateSessionInput{
		TherapyID:       input.TherapyID,
		PatientID:       patientID,
		PractitionerID:  input.PractitionerID,
		StartTime:       start,
		EndTime:         end,
		Price:           therapy.Price,
		PreSessionNotes: input.Notes,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.emit(ctx, session, EventSlotBooked, "Session booked",
		fmt.Sprintf("%s session on %s at %s", therapy.Name, session.ScheduledDate, start.Format("15:04")))

	return &models.SessionDetail{Session: *session}, nil
}

func (s *SessionService) GetSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.SessionDetail, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}

	history, err := s.sessionRepo.ListRescheduleHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &models.SessionDetail{Session: *session, RescheduleHistory: history}, nil
}

func (s *SessionService) ListSessions(
	ctx context.Context,
	actorID int64,
	role string,
	filter repository.SessionListFilter,
) ([]models.Session, error) {
	filter.ActorID = actorID
	filter.Role = role
	return s.sessionRepo.List(ctx, filter)
}

// UpdateStatus drives every non-cancellation transition through the lifecycle
// table. Notes supplied with the transition are filed by the resulting status.
func (s *SessionService) UpdateStatus(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
	requestedStatus string,
	notes *string,
) (*models.SessionDetail, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}

	nextStatus, err := normalizeRequestedStatus(requestedStatus)
	if err != nil {
		return nil, err
	}
	if nextStatus == models.StatusCancelled {
		return nil, fmt.Errorf("%w: use the cancel operation", ErrInvalidStatus)
	}
	if !roleMayRequest(role, nextStatus) {
		return nil, ErrForbidden
	}
	if err := validateTransition(session.Status, nextStatus); err != nil {
		return nil, err
	}

	updated, err := s.sessionRepo.UpdateStatusIfCurrent(ctx, sessionID, session.Status, nextStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a concurrent transition; the stored status moved on.
			return nil, fmt.Errorf("%w: session status changed concurrently", ErrInvalidStateTransition)
		}
		return nil, err
	}

	if notes != nil && strings.TrimSpace(*notes) != "" {
		bucket := notesBucketForStatus(updated.Status)
		if err := s.sessionRepo.SetNotes(ctx, sessionID, bucket, strings.TrimSpace(*notes)); err != nil {
			return nil, err
		}
	}

	s.emit(ctx, updated, EventSessionStatusUpdate, "Session "+updated.Status,
		fmt.Sprintf("Session on %s is now %s", updated.ScheduledDate, updated.Status))

	return s.GetSession(ctx, actorID, role, sessionID)
}

// CancelSession requires a substantive reason and charges the tiered
// cancellation fee; the fee/refund split always sums to the booked price.
func (s *SessionService) CancelSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
	reason string,
) (*models.SessionDetail, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}

	reason = strings.TrimSpace(reason)
	if len(reason) < 10 {
		return nil, fmt.Errorf("%w: cancellation reason must be at least 10 characters", ErrInvalidInput)
	}
	if err := validateTransition(session.Status, models.StatusCancelled); err != nil {
		return nil, err
	}

	quote := QuoteCancellation(session.Price, session.StartTime, s.now().UTC())

	cancelled, err := s.sessionRepo.CancelIfCurrent(ctx, sessionID, session.Status, repository.CancelSessionInput{
		Reason:           reason,
		CancelledBy:      actorID,
		CancellationFee:  quote.Fee,
		RefundAmount:     quote.Refund,
		CancellationType: quote.Type,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: session status changed concurrently", ErrInvalidStateTransition)
		}
		return nil, err
	}

	s.emit(ctx, cancelled, EventSessionCancelled, "Session cancelled",
		fmt.Sprintf("Session on %s was cancelled; refund %.2f", cancelled.ScheduledDate, quote.Refund))
	// The freed window goes back on the market.
	if s.broadcaster != nil {
		s.broadcaster.Publish(EventSlotAvailable, []int64{cancelled.PractitionerID}, map[string]any{
			"practitioner_id": cancelled.PractitionerID,
			"start_time":      cancelled.StartTime,
			"end_time":        cancelled.EndTime,
		})
	}

	return s.GetSession(ctx, actorID, role, sessionID)
}

// RescheduleSession re-validates the new window and swaps it atomically,
// appending to the immutable history. Any prior confirmation is dropped: the
// moved session goes back to scheduled and must be re-confirmed.
func (s *SessionService) RescheduleSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
	input RescheduleInput,
) (*models.SessionDetail, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}
	if session.Status != models.StatusScheduled && session.Status != models.StatusConfirmed {
		return nil, fmt.Errorf("%w: cannot reschedule a %s session", ErrInvalidStateTransition, session.Status)
	}

	newStart := input.NewStart.UTC()
	newEnd := input.NewEnd.UTC()
	if !newStart.After(s.now().UTC()) {
		return nil, fmt.Errorf("%w: new start time must be in the future", ErrInvalidInput)
	}
	if !newEnd.After(newStart) {
		return nil, fmt.Errorf("%w: new end time must be after new start time", ErrInvalidInput)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)

	if err := acquireScheduleLocks(ctx, tx, session.PractitionerID, session.PatientID); err != nil {
		return nil, err
	}
	if err := checkBookingConflicts(ctx, txSessionRepo, session.PractitionerID, session.PatientID, newStart, newEnd, sessionID); err != nil {
		return nil, err
	}

	entry := &models.RescheduleEntry{
		SessionID:     sessionID,
		OriginalStart: session.StartTime,
		OriginalEnd:   session.EndTime,
		NewStart:      newStart,
		NewEnd:        newEnd,
		Reason:        strings.TrimSpace(input.Reason),
		RescheduledBy: actorID,
	}
	if err := txSessionRepo.AddRescheduleEntry(ctx, entry); err != nil {
		return nil, err
	}

	updated, err := txSessionRepo.RescheduleIfCurrent(ctx, sessionID, session.Status, newStart, newEnd)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: session status changed concurrently", ErrInvalidStateTransition)
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.emit(ctx, updated, EventSessionRescheduled, "Session rescheduled",
		fmt.Sprintf("Session moved to %s at %s", updated.ScheduledDate, updated.StartTime.Format("15:04")))

	return s.GetSession(ctx, actorID, role, sessionID)
}

// acquireScheduleLocks serializes schedule mutations per practitioner and
// patient. Locks are taken in ascending id order so two requests touching the
// same pair cannot deadlock.
func acquireScheduleLocks(ctx context.Context, tx pgx.Tx, practitionerID, patientID int64) error {
	first, second := practitionerID, patientID
	if second < first {
		first, second = second, first
	}
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", first); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", second); err != nil {
		return err
	}
	return nil
}

func checkBookingConflicts(
	ctx context.Context,
	sessionRepo *repository.SessionRepository,
	practitionerID int64,
	patientID int64,
	start time.Time,
	end time.Time,
	excludedSessionID int64,
) error {
	hasConflict, err := sessionRepo.HasPractitionerConflictExcluding(ctx, practitionerID, start, end, excludedSessionID)
	if err != nil {
		return err
	}
	if hasConflict {
		return fmt.Errorf("%w: practitioner already has a session in this window", ErrSlotUnavailable)
	}

	hasConflict, err = sessionRepo.HasPatientConflictExcluding(ctx, patientID, start, end, excludedSessionID)
	if err != nil {
		return err
	}
	if hasConflict {
		return fmt.Errorf("%w: patient already has a session in this window", ErrSlotUnavailable)
	}
	return nil
}

// emit fans a successful mutation out to both parties. Failures here never
// affect the committed change.
func (s *SessionService) emit(ctx context.Context, session *models.Session, event, title, body string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, session.PatientID, event, title, body, []string{ChannelInApp, ChannelEmail})
		s.notifier.Notify(ctx, session.PractitionerID, event, title, body, []string{ChannelInApp})
	}
	if s.broadcaster != nil {
		s.broadcaster.Publish(event, []int64{session.PatientID, session.PractitionerID}, session)
	}
}

func canAccessSession(role string, actorID int64, session *models.Session) bool {
	switch role {
	case models.RolePatient:
		return session.PatientID == actorID
	case models.RolePractitioner:
		return session.PractitionerID == actorID
	case models.RoleAdmin:
		return true
	}
	return false
}
