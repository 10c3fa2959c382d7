package services

import (
	"errors"
	"testing"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
)

func TestCanTransition(t *testing.T) {
	statuses := []string{
		models.StatusScheduled,
		models.StatusConfirmed,
		models.StatusInProgress,
		models.StatusCompleted,
		models.StatusCancelled,
		models.StatusNoShow,
	}

	allowed := map[[2]string]bool{
		{models.StatusScheduled, models.StatusConfirmed}:  true,
		{models.StatusScheduled, models.StatusCancelled}:  true,
		{models.StatusScheduled, models.StatusNoShow}:     true,
		{models.StatusConfirmed, models.StatusInProgress}: true,
		{models.StatusConfirmed, models.StatusCancelled}:  true,
		{models.StatusConfirmed, models.StatusNoShow}:     true,
		{models.StatusInProgress, models.StatusCompleted}: true,
		{models.StatusInProgress, models.StatusCancelled}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]string{from, to}]
			if got := canTransition(from, to); got != want {
				t.Errorf("canTransition(%q, %q) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestValidateTransitionError(t *testing.T) {
	if err := validateTransition(models.StatusCompleted, models.StatusConfirmed); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
	if err := validateTransition(models.StatusScheduled, models.StatusConfirmed); err != nil {
		t.Errorf("expected nil error for a legal transition, got %v", err)
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, status := range []string{models.StatusCompleted, models.StatusCancelled, models.StatusNoShow} {
		if exits, ok := allowedTransitions[status]; ok && len(exits) > 0 {
			t.Errorf("status %q should be terminal, has exits %v", status, exits)
		}
	}
}

func TestNormalizeRequestedStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"confirmed", models.StatusConfirmed, false},
		{"confirm", models.StatusConfirmed, false},
		{" Confirmed ", models.StatusConfirmed, false},
		{"in-progress", models.StatusInProgress, false},
		{"in_progress", models.StatusInProgress, false},
		{"start", models.StatusInProgress, false},
		{"complete", models.StatusCompleted, false},
		{"completed", models.StatusCompleted, false},
		{"no-show", models.StatusNoShow, false},
		{"no_show", models.StatusNoShow, false},
		{"cancelled", models.StatusCancelled, false},
		{"canceled", models.StatusCancelled, false},
		{"scheduled", "", true},
		{"done", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := normalizeRequestedStatus(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidStatus) {
				t.Errorf("normalizeRequestedStatus(%q) error = %v, want ErrInvalidStatus", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("normalizeRequestedStatus(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("normalizeRequestedStatus(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNotesBucketForStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{models.StatusInProgress, "during"},
		{models.StatusCompleted, "post"},
		{models.StatusConfirmed, "pre"},
		{models.StatusScheduled, "pre"},
	}
	for _, tt := range tests {
		if got := notesBucketForStatus(tt.status); got != tt.want {
			t.Errorf("notesBucketForStatus(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestRoleMayRequest(t *testing.T) {
	if roleMayRequest(models.RoleAdmin, models.StatusCancelled) {
		t.Error("cancellation must not be reachable through the status endpoint, even for admins")
	}
	if !roleMayRequest(models.RolePractitioner, models.StatusConfirmed) {
		t.Error("practitioners should be able to confirm")
	}
	if !roleMayRequest(models.RoleAdmin, models.StatusNoShow) {
		t.Error("admins should be able to mark a no-show")
	}
	if roleMayRequest(models.RolePatient, models.StatusConfirmed) {
		t.Error("patients must not drive lifecycle transitions")
	}
}
