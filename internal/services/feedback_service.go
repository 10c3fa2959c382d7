package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
	"github.com/dpushkar26/Panchkarma-sutra/internal/repository"
)

var ErrFeedbackExists = errors.New("feedback already submitted")

type FeedbackService struct {
	feedbackRepo *repository.FeedbackRepository
	sessionRepo  *repository.SessionRepository
}

func NewFeedbackService(
	feedbackRepo *repository.FeedbackRepository,
	sessionRepo *repository.SessionRepository,
) *FeedbackService {
	return &FeedbackService{
		feedbackRepo: feedbackRepo,
		sessionRepo:  sessionRepo,
	}
}

// SubmitFeedback lets the session's patient rate a completed session once.
func (s *FeedbackService) SubmitFeedback(
	ctx context.Context,
	patientID int64,
	sessionID int64,
	rating int,
	comment *string,
) (*models.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if comment != nil && strings.TrimSpace(*comment) == "" {
		comment = nil
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.PatientID != patientID {
		return nil, ErrForbidden
	}
	if session.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: feedback requires a completed session", ErrInvalidStateTransition)
	}

	if _, err := s.feedbackRepo.GetBySessionID(ctx, sessionID); err == nil {
		return nil, ErrFeedbackExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	return s.feedbackRepo.Create(ctx, repository.CreateFeedbackInput{
		SessionID:      sessionID,
		PatientID:      patientID,
		PractitionerID: session.PractitionerID,
		Rating:         rating,
		Comment:        comment,
	})
}

func (s *FeedbackService) ListPractitionerFeedback(ctx context.Context, practitionerID int64) ([]models.Feedback, error) {
	if practitionerID <= 0 {
		return nil, ErrInvalidInput
	}
	return s.feedbackRepo.ListByPractitioner(ctx, practitionerID)
}
