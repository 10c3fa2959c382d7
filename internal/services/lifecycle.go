package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrSlotUnavailable        = errors.New("slot unavailable")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrDurationMismatch       = errors.New("duration outside therapy tolerance")
	ErrTherapyNotFound        = errors.New("therapy not found")
	ErrUserNotFound           = errors.New("user not found")
)

// allowedTransitions is the complete lifecycle table. Statuses absent as keys
// (completed, cancelled, no-show) are terminal.
var allowedTransitions = map[string][]string{
	models.StatusScheduled:  {models.StatusConfirmed, models.StatusCancelled, models.StatusNoShow},
	models.StatusConfirmed:  {models.StatusInProgress, models.StatusCancelled, models.StatusNoShow},
	models.StatusInProgress: {models.StatusCompleted, models.StatusCancelled},
}

// notesBuckets routes notes supplied with a transition by the resulting
// status; anything not listed files under "pre".
var notesBuckets = map[string]string{
	models.StatusInProgress: "during",
	models.StatusCompleted:  "post",
}

func canTransition(current, next string) bool {
	for _, allowed := range allowedTransitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

func validateTransition(current, next string) error {
	if !canTransition(current, next) {
		return fmt.Errorf("%w: cannot move from %q to %q", ErrInvalidStateTransition, current, next)
	}
	return nil
}

func notesBucketForStatus(status string) string {
	if bucket, ok := notesBuckets[status]; ok {
		return bucket
	}
	return "pre"
}

func isActiveStatus(status string) bool {
	switch status {
	case models.StatusScheduled, models.StatusConfirmed, models.StatusInProgress:
		return true
	}
	return false
}

func normalizeRequestedStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "confirm", "confirmed":
		return models.StatusConfirmed, nil
	case "in-progress", "in_progress", "inprogress", "start":
		return models.StatusInProgress, nil
	case "complete", "completed":
		return models.StatusCompleted, nil
	case "no-show", "no_show", "noshow":
		return models.StatusNoShow, nil
	case "cancel", "cancelled", "canceled":
		return models.StatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

// roleMayRequest layers authorization on top of the actor-blind transition
// table. Cancellation has its own operation and is rejected here.
func roleMayRequest(role, nextStatus string) bool {
	if nextStatus == models.StatusCancelled {
		return false
	}
	switch role {
	case models.RoleAdmin:
		return true
	case models.RolePractitioner:
		return true
	default:
		return false
	}
}
