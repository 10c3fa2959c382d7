package repository

import (
	"context"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
)

type UpsertPractitionerProfileInput struct {
	FullName  *string
	Specialty *string
	Bio       *string
	Phone     *string
}

type PractitionerProfileRepository struct {
	db DBTX
}

func NewPractitionerProfileRepository(db DBTX) *PractitionerProfileRepository {
	return &PractitionerProfileRepository{db: db}
}

func (r *PractitionerProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.PractitionerProfile, error) {
	query := `
		SELECT user_id, full_name, specialty, bio, phone, created_at, updated_at
		FROM practitioner_profiles
		WHERE user_id = $1
	`
	var profile models.PractitionerProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.FullName,
		&profile.Specialty,
		&profile.Bio,
		&profile.Phone,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *PractitionerProfileRepository) Upsert(
	ctx context.Context,
	userID int64,
	input UpsertPractitionerProfileInput,
) (*models.PractitionerProfile, error) {
	query := `
		INSERT INTO practitioner_profiles (user_id, full_name, specialty, bio, phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET full_name = COALESCE(EXCLUDED.full_name, practitioner_profiles.full_name),
		    specialty = COALESCE(EXCLUDED.specialty, practitioner_profiles.specialty),
		    bio = COALESCE(EXCLUDED.bio, practitioner_profiles.bio),
		    phone = COALESCE(EXCLUDED.phone, practitioner_profiles.phone),
		    updated_at = NOW()
		RETURNING user_id, full_name, specialty, bio, phone, created_at, updated_at
	`
	var profile models.PractitionerProfile
	err := r.db.QueryRow(ctx, query, userID, input.FullName, input.Specialty, input.Bio, input.Phone).Scan(
		&profile.UserID,
		&profile.FullName,
		&profile.Specialty,
		&profile.Bio,
		&profile.Phone,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
