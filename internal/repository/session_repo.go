package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
)

const sessionColumns = `
	id, therapy_id, patient_id, practitioner_id, status,
	start_time, end_time, actual_start_time, actual_end_time,
	price, payment_status,
	pre_session_notes, during_session_notes, post_session_notes,
	cancellation_reason, cancelled_by, cancelled_at,
	cancellation_fee, refund_amount, cancellation_type,
	reminder_24h_sent, reminder_2h_sent, reminder_30min_sent,
	created_at, updated_at
`

// activeStatuses are the statuses that occupy a time window for conflict
// purposes. Terminal sessions never block a slot.
const activeStatuses = `('scheduled', 'confirmed', 'in-progress')`

type CreateSessionInput struct {
	TherapyID       int64
	PatientID       int64
	PractitionerID  int64
	StartTime       time.Time
	EndTime         time.Time
	Price           float64
	PreSessionNotes *string
}

type SessionListFilter struct {
	ActorID   int64
	Role      string
	Status    string
	Timeframe string
	Limit     int
	Offset    int
}

type CancelSessionInput struct {
	Reason           string
	CancelledBy      int64
	CancellationFee  float64
	RefundAmount     float64
	CancellationType string
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.TherapyID,
		&session.PatientID,
		&session.PractitionerID,
		&session.Status,
		&session.StartTime,
		&session.EndTime,
		&session.ActualStartTime,
		&session.ActualEndTime,
		&session.Price,
		&session.PaymentStatus,
		&session.PreSessionNotes,
		&session.DuringSessionNotes,
		&session.PostSessionNotes,
		&session.CancellationReason,
		&session.CancelledBy,
		&session.CancelledAt,
		&session.CancellationFee,
		&session.RefundAmount,
		&session.CancellationType,
		&session.Reminder24hSent,
		&session.Reminder2hSent,
		&session.Reminder30minSent,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.ScheduledDate = session.StartTime.UTC().Format("2006-01-02")
	return &session, nil
}

func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	query := fmt.Sprintf(`
		INSERT INTO sessions (
			therapy_id, patient_id, practitioner_id, status,
			start_time, end_time, price, payment_status, pre_session_notes
		)
		VALUES ($1, $2, $3, 'scheduled', $4, $5, $6, 'pending', $7)
		RETURNING %s
	`, sessionColumns)

	return scanSession(r.db.QueryRow(
		ctx,
		query,
		input.TherapyID,
		input.PatientID,
		input.PractitionerID,
		input.StartTime,
		input.EndTime,
		input.Price,
		input.PreSessionNotes,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1 FOR UPDATE`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) List(ctx context.Context, filter SessionListFilter) ([]models.Session, error) {
	args := []any{}
	whereParts := []string{}

	switch filter.Role {
	case models.RolePatient:
		args = append(args, filter.ActorID)
		whereParts = append(whereParts, fmt.Sprintf("patient_id = $%d", len(args)))
	case models.RolePractitioner:
		args = append(args, filter.ActorID)
		whereParts = append(whereParts, fmt.Sprintf("practitioner_id = $%d", len(args)))
	default:
		whereParts = append(whereParts, "TRUE")
	}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(whereParts, "end_time > NOW()")
	case "past":
		whereParts = append(whereParts, "end_time <= NOW()")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE %s
		ORDER BY start_time ASC, id ASC
	`, sessionColumns, strings.Join(whereParts, " AND "))

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return r.querySessions(ctx, query, args...)
}

// ListActiveByPractitionerBetween returns the practitioner's slot-occupying
// sessions whose window intersects [from, to).
func (r *SessionRepository) ListActiveByPractitionerBetween(
	ctx context.Context,
	practitionerID int64,
	from time.Time,
	to time.Time,
) ([]models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE practitioner_id = $1
		  AND status IN %s
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time ASC, id ASC
	`, sessionColumns, activeStatuses)

	return r.querySessions(ctx, query, practitionerID, from, to)
}

func (r *SessionRepository) querySessions(ctx context.Context, query string, args ...any) ([]models.Session, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepository) hasConflict(
	ctx context.Context,
	actorColumn string,
	actorID int64,
	start time.Time,
	end time.Time,
	excludedSessionID int64,
) (bool, error) {
	// Same half-open predicate as timewindow.Overlaps: existing.start < end
	// AND existing.end > start.
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1
			FROM sessions
			WHERE %s = $1
			  AND id <> $4
			  AND status IN %s
			  AND start_time < $3
			  AND end_time > $2
		)
	`, actorColumn, activeStatuses)

	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, actorID, start, end, excludedSessionID).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}

func (r *SessionRepository) HasPractitionerConflict(
	ctx context.Context,
	practitionerID int64,
	start time.Time,
	end time.Time,
) (bool, error) {
	return r.hasConflict(ctx, "practitioner_id", practitionerID, start, end, 0)
}

func (r *SessionRepository) HasPractitionerConflictExcluding(
	ctx context.Context,
	practitionerID int64,
	start time.Time,
	end time.Time,
	excludedSessionID int64,
) (bool, error) {
	return r.hasConflict(ctx, "practitioner_id", practitionerID, start, end, excludedSessionID)
}

func (r *SessionRepository) HasPatientConflict(
	ctx context.Context,
	patientID int64,
	start time.Time,
	end time.Time,
) (bool, error) {
	return r.hasConflict(ctx, "patient_id", patientID, start, end, 0)
}

func (r *SessionRepository) HasPatientConflictExcluding(
	ctx context.Context,
	patientID int64,
	start time.Time,
	end time.Time,
	excludedSessionID int64,
) (bool, error) {
	return r.hasConflict(ctx, "patient_id", patientID, start, end, excludedSessionID)
}

// UpdateStatusIfCurrent transitions status only when the stored status still
// matches currentStatus, so concurrent updates lose cleanly. Entering
// in-progress stamps actual_start_time once; entering completed stamps
// actual_end_time once.
func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = $3,
		    actual_start_time = CASE
		        WHEN $3 = 'in-progress' THEN COALESCE(actual_start_time, NOW())
		        ELSE actual_start_time
		    END,
		    actual_end_time = CASE
		        WHEN $3 = 'completed' THEN COALESCE(actual_end_time, NOW())
		        ELSE actual_end_time
		    END,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionColumns)

	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

// CancelIfCurrent writes the cancellation block exactly once, guarded by the
// current status. A paid session with a positive refund flips to refunded.
func (r *SessionRepository) CancelIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	input CancelSessionInput,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = 'cancelled',
		    cancellation_reason = $3,
		    cancelled_by = $4,
		    cancelled_at = NOW(),
		    cancellation_fee = $5,
		    refund_amount = $6,
		    cancellation_type = $7,
		    payment_status = CASE
		        WHEN payment_status = 'paid' AND $6::numeric > 0 THEN 'refunded'
		        ELSE payment_status
		    END,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionColumns)

	return scanSession(r.db.QueryRow(
		ctx,
		query,
		sessionID,
		currentStatus,
		input.Reason,
		input.CancelledBy,
		input.CancellationFee,
		input.RefundAmount,
		input.CancellationType,
	))
}

// RescheduleIfCurrent swaps the time window and resets the session to
// scheduled, guarded by the current status.
func (r *SessionRepository) RescheduleIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	newStart time.Time,
	newEnd time.Time,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET start_time = $3,
		    end_time = $4,
		    status = 'scheduled',
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionColumns)

	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, newStart, newEnd))
}

func (r *SessionRepository) AddRescheduleEntry(ctx context.Context, entry *models.RescheduleEntry) error {
	query := `
		INSERT INTO session_reschedules (
			session_id, original_start, original_end, new_start, new_end, reason, rescheduled_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, rescheduled_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		entry.SessionID,
		entry.OriginalStart,
		entry.OriginalEnd,
		entry.NewStart,
		entry.NewEnd,
		entry.Reason,
		entry.RescheduledBy,
	).Scan(&entry.ID, &entry.RescheduledAt)
}

func (r *SessionRepository) ListRescheduleHistory(ctx context.Context, sessionID int64) ([]models.RescheduleEntry, error) {
	query := `
		SELECT id, session_id, original_start, original_end, new_start, new_end,
		       reason, rescheduled_by, rescheduled_at
		FROM session_reschedules
		WHERE session_id = $1
		ORDER BY rescheduled_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.RescheduleEntry, 0)
	for rows.Next() {
		var entry models.RescheduleEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.OriginalStart,
			&entry.OriginalEnd,
			&entry.NewStart,
			&entry.NewEnd,
			&entry.Reason,
			&entry.RescheduledBy,
			&entry.RescheduledAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// SetNotes files notes into one of the three status-keyed buckets.
func (r *SessionRepository) SetNotes(ctx context.Context, sessionID int64, bucket string, notes string) error {
	var column string
	switch bucket {
	case "pre":
		column = "pre_session_notes"
	case "during":
		column = "during_session_notes"
	case "post":
		column = "post_session_notes"
	default:
		return fmt.Errorf("unknown notes bucket %q", bucket)
	}

	query := fmt.Sprintf(`UPDATE sessions SET %s = $2, updated_at = NOW() WHERE id = $1`, column)
	_, err := r.db.Exec(ctx, query, sessionID, notes)
	return err
}

// ListNoShowCandidates returns scheduled/confirmed sessions whose start is at
// or before the cutoff; the sweeper turns them into no-shows.
func (r *SessionRepository) ListNoShowCandidates(ctx context.Context, cutoff time.Time) ([]models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE status IN ('scheduled', 'confirmed')
		  AND start_time <= $1
		ORDER BY start_time ASC, id ASC
	`, sessionColumns)
	return r.querySessions(ctx, query, cutoff)
}

// ListAutoCompleteCandidates returns in-progress sessions whose end is at or
// before the cutoff.
func (r *SessionRepository) ListAutoCompleteCandidates(ctx context.Context, cutoff time.Time) ([]models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE status = 'in-progress'
		  AND end_time <= $1
		ORDER BY end_time ASC, id ASC
	`, sessionColumns)
	return r.querySessions(ctx, query, cutoff)
}

func reminderColumn(window string) (string, error) {
	switch window {
	case "24h":
		return "reminder_24h_sent", nil
	case "2h":
		return "reminder_2h_sent", nil
	case "30min":
		return "reminder_30min_sent", nil
	default:
		return "", fmt.Errorf("unknown reminder window %q", window)
	}
}

// ListReminderDue returns upcoming sessions starting within (now, until] whose
// reminder flag for the window is still unset.
func (r *SessionRepository) ListReminderDue(ctx context.Context, window string, now, until time.Time) ([]models.Session, error) {
	column, err := reminderColumn(window)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE status IN ('scheduled', 'confirmed')
		  AND %s = FALSE
		  AND start_time > $1
		  AND start_time <= $2
		ORDER BY start_time ASC, id ASC
	`, sessionColumns, column)
	return r.querySessions(ctx, query, now, until)
}

func (r *SessionRepository) MarkReminderSent(ctx context.Context, sessionID int64, window string) error {
	column, err := reminderColumn(window)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE sessions SET %s = TRUE, updated_at = NOW() WHERE id = $1`, column)
	_, err = r.db.Exec(ctx, query, sessionID)
	return err
}
