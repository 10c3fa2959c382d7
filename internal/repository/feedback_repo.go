package repository

import (
	"context"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
)

type CreateFeedbackInput struct {
	SessionID      int64
	PatientID      int64
	PractitionerID int64
	Rating         int
	Comment        *string
}

type FeedbackRepository struct {
	db DBTX
}

func NewFeedbackRepository(db DBTX) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, input CreateFeedbackInput) (*models.Feedback, error) {
	query := `
		INSERT INTO feedback (session_id, patient_id, practitioner_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, patient_id, practitioner_id, rating, comment, created_at
	`
	var feedback models.Feedback
	err := r.db.QueryRow(
		ctx,
		query,
		input.SessionID,
		input.PatientID,
		input.PractitionerID,
		input.Rating,
		input.Comment,
	).Scan(
		&feedback.ID,
		&feedback.SessionID,
		&feedback.PatientID,
		&feedback.PractitionerID,
		&feedback.Rating,
		&feedback.Comment,
		&feedback.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *FeedbackRepository) GetBySessionID(ctx context.Context, sessionID int64) (*models.Feedback, error) {
	query := `
		SELECT id, session_id, patient_id, practitioner_id, rating, comment, created_at
		FROM feedback
		WHERE session_id = $1
	`
	var feedback models.Feedback
	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&feedback.ID,
		&feedback.SessionID,
		&feedback.PatientID,
		&feedback.PractitionerID,
		&feedback.Rating,
		&feedback.Comment,
		&feedback.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *FeedbackRepository) ListByPractitioner(ctx context.Context, practitionerID int64) ([]models.Feedback, error) {
	query := `
		SELECT id, session_id, patient_id, practitioner_id, rating, comment, created_at
		FROM feedback
		WHERE practitioner_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, practitionerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	feedbacks := make([]models.Feedback, 0)
	for rows.Next() {
		var feedback models.Feedback
		if err := rows.Scan(
			&feedback.ID,
			&feedback.SessionID,
			&feedback.PatientID,
			&feedback.PractitionerID,
			&feedback.Rating,
			&feedback.Comment,
			&feedback.CreatedAt,
		); err != nil {
			return nil, err
		}
		feedbacks = append(feedbacks, feedback)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return feedbacks, nil
}
