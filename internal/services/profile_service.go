package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
	"github.com/dpushkar26/Panchkarma-sutra/internal/repository"
)

type ProfileService struct {
	patientProfileRepo      *repository.PatientProfileRepository
	practitionerProfileRepo *repository.PractitionerProfileRepository
}

func NewProfileService(
	patientProfileRepo *repository.PatientProfileRepository,
	practitionerProfileRepo *repository.PractitionerProfileRepository,
) *ProfileService {
	return &ProfileService{
		patientProfileRepo:      patientProfileRepo,
		practitionerProfileRepo: practitionerProfileRepo,
	}
}

// GetPatientProfile returns an empty profile rather than an error for a user
// who has not filled theirs in yet.
func (s *ProfileService) GetPatientProfile(ctx context.Context, userID int64) (*models.PatientProfile, error) {
	profile, err := s.patientProfileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.PatientProfile{UserID: userID}, nil
		}
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) UpdatePatientProfile(
	ctx context.Context,
	userID int64,
	input repository.UpsertPatientProfileInput,
) (*models.PatientProfile, error) {
	return s.patientProfileRepo.Upsert(ctx, userID, input)
}

func (s *ProfileService) GetPractitionerProfile(ctx context.Context, userID int64) (*models.PractitionerProfile, error) {
	profile, err := s.practitionerProfileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.PractitionerProfile{UserID: userID}, nil
		}
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) UpdatePractitionerProfile(
	ctx context.Context,
	userID int64,
	input repository.UpsertPractitionerProfileInput,
) (*models.PractitionerProfile, error) {
	return s.practitionerProfileRepo.Upsert(ctx, userID, input)
}
