package repository

import (
	"context"
	"time"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
)

type UpsertPatientProfileInput struct {
	FullName    *string
	Phone       *string
	DateOfBirth *time.Time
	Notes       *string
}

type PatientProfileRepository struct {
	db DBTX
}

func NewPatientProfileRepository(db DBTX) *PatientProfileRepository {
	return &PatientProfileRepository{db: db}
}

func (r *PatientProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.PatientProfile, error) {
	query := `
		SELECT user_id, full_name, phone, date_of_birth, notes, created_at, updated_at
		FROM patient_profiles
		WHERE user_id = $1
	`
	var profile models.PatientProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.FullName,
		&profile.Phone,
		&profile.DateOfBirth,
		&profile.Notes,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *PatientProfileRepository) Upsert(
	ctx context.Context,
	userID int64,
	input UpsertPatientProfileInput,
) (*models.PatientProfile, error) {
	query := `
		INSERT INTO patient_profiles (user_id, full_name, phone, date_of_birth, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET full_name = COALESCE(EXCLUDED.full_name, patient_profiles.full_name),
		    phone = COALESCE(EXCLUDED.phone, patient_profiles.phone),
		    date_of_birth = COALESCE(EXCLUDED.date_of_birth, patient_profiles.date_of_birth),
		    notes = COALESCE(EXCLUDED.notes, patient_profiles.notes),
		    updated_at = NOW()
		RETURNING user_id, full_name, phone, date_of_birth, notes, created_at, updated_at
	`
	var profile models.PatientProfile
	err := r.db.QueryRow(ctx, query, userID, input.FullName, input.Phone, input.DateOfBirth, input.Notes).Scan(
		&profile.UserID,
		&profile.FullName,
		&profile.Phone,
		&profile.DateOfBirth,
		&profile.Notes,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
