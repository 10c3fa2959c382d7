package models

import "time"

const (
	StatusScheduled  = "scheduled"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no-show"
)

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

const (
	CancellationEarly    = "early"
	CancellationStandard = "standard"
	CancellationLate     = "late"
)

type Session struct {
	ID             int64  `json:"id"`
	TherapyID      int64  `json:"therapy_id"`
	PatientID      int64  `json:"patient_id"`
	PractitionerID int64  `json:"practitioner_id"`
	Status         string `json:"status"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	// Derived from StartTime at scan time; never stored.
	ScheduledDate   string     `json:"scheduled_date"`
	ActualStartTime *time.Time `json:"actual_start_time"`
	ActualEndTime   *time.Time `json:"actual_end_time"`

	Price         float64 `json:"price"`
	PaymentStatus string  `json:"payment_status"`

	PreSessionNotes    *string `json:"pre_session_notes"`
	DuringSessionNotes *string `json:"during_session_notes"`
	PostSessionNotes   *string `json:"post_session_notes"`

	CancellationReason *string    `json:"cancellation_reason"`
	CancelledBy        *int64     `json:"cancelled_by"`
	CancelledAt        *time.Time `json:"cancelled_at"`
	CancellationFee    *float64   `json:"cancellation_fee"`
	RefundAmount       *float64   `json:"refund_amount"`
	CancellationType   *string    `json:"cancellation_type"`

	Reminder24hSent   bool `json:"reminder_24h_sent"`
	Reminder2hSent    bool `json:"reminder_2h_sent"`
	Reminder30minSent bool `json:"reminder_30min_sent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RescheduleEntry struct {
	ID            int64     `json:"id"`
	SessionID     int64     `json:"session_id"`
	OriginalStart time.Time `json:"original_start"`
	OriginalEnd   time.Time `json:"original_end"`
	NewStart      time.Time `json:"new_start"`
	NewEnd        time.Time `json:"new_end"`
	Reason        string    `json:"reason"`
	RescheduledBy int64     `json:"rescheduled_by"`
	RescheduledAt time.Time `json:"rescheduled_at"`
}

type SessionDetail struct {
	Session
	RescheduleHistory []RescheduleEntry `json:"reschedule_history,omitempty"`
}

type AvailableSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsTerminal reports whether no further status transition is permitted.
func (s *Session) IsTerminal() bool {
	switch s.Status {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}
