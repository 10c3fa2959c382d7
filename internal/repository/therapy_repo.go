package repository

import (
	"context"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
)

type CreateTherapyInput struct {
	Name            string
	Description     *string
	DurationMinutes int
	Price           float64
}

type UpdateTherapyInput struct {
	Name            *string
	Description     *string
	DurationMinutes *int
	Price           *float64
	IsActive        *bool
}

type TherapyRepository struct {
	db DBTX
}

func NewTherapyRepository(db DBTX) *TherapyRepository {
	return &TherapyRepository{db: db}
}

func (r *TherapyRepository) Create(ctx context.Context, input CreateTherapyInput) (*models.Therapy, error) {
	query := `
		INSERT INTO therapies (name, description, duration_min, price, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, name, description, duration_min, price, is_active, created_at, updated_at
	`
	var therapy models.Therapy
	err := r.db.QueryRow(ctx, query, input.Name, input.Description, input.DurationMinutes, input.Price).Scan(
		&therapy.ID,
		&therapy.Name,
		&therapy.Description,
		&therapy.DurationMinutes,
		&therapy.Price,
		&therapy.IsActive,
		&therapy.CreatedAt,
		&therapy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &therapy, nil
}

func (r *TherapyRepository) GetByID(ctx context.Context, therapyID int64) (*models.Therapy, error) {
	query := `
		SELECT id, name, description, duration_min, price, is_active, created_at, updated_at
		FROM therapies
		WHERE id = $1
	`
	var therapy models.Therapy
	err := r.db.QueryRow(ctx, query, therapyID).Scan(
		&therapy.ID,
		&therapy.Name,
		&therapy.Description,
		&therapy.DurationMinutes,
		&therapy.Price,
		&therapy.IsActive,
		&therapy.CreatedAt,
		&therapy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &therapy, nil
}

func (r *TherapyRepository) ListActive(ctx context.Context) ([]models.Therapy, error) {
	query := `
		SELECT id, name, description, duration_min, price, is_active, created_at, updated_at
		FROM therapies
		WHERE is_active = TRUE
		ORDER BY name ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	therapies := make([]models.Therapy, 0)
	for rows.Next() {
		var therapy models.Therapy
		if err := rows.Scan(
			&therapy.ID,
			&therapy.Name,
			&therapy.Description,
			&therapy.DurationMinutes,
			&therapy.Price,
			&therapy.IsActive,
			&therapy.CreatedAt,
			&therapy.UpdatedAt,
		); err != nil {
			return nil, err
		}
		therapies = append(therapies, therapy)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return therapies, nil
}

func (r *TherapyRepository) Update(ctx context.Context, therapyID int64, input UpdateTherapyInput) (*models.Therapy, error) {
	query := `
		UPDATE therapies
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    duration_min = COALESCE($4, duration_min),
		    price = COALESCE($5, price),
		    is_active = COALESCE($6, is_active),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, duration_min, price, is_active, created_at, updated_at
	`
	var therapy models.Therapy
	err := r.db.QueryRow(
		ctx,
		query,
		therapyID,
		input.Name,
		input.Description,
		input.DurationMinutes,
		input.Price,
		input.IsActive,
	).Scan(
		&therapy.ID,
		&therapy.Name,
		&therapy.Description,
		&therapy.DurationMinutes,
		&therapy.Price,
		&therapy.IsActive,
		&therapy.CreatedAt,
		&therapy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &therapy, nil
}
