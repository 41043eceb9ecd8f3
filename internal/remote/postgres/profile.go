package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/parley-app/parley/internal/model"
)

var _ model.ProfileStore = (*ProfileRepository)(nil)

type ProfileRepository struct {
	db *Connection
}

func NewProfileRepository(db *Connection) *ProfileRepository {
	return &ProfileRepository{
		db: db,
	}
}

const profileColumns = `user_id, email, full_name, bio, job, fashion, age, relationship_status,
			  location, website, phone, profile_photo_ref, cover_photo_ref, created_at, updated_at`

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	var profile model.Profile
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID, &profile.Email, &profile.FullName, &profile.Bio, &profile.Job,
		&profile.Fashion, &profile.Age, &profile.RelationshipStatus, &profile.Location,
		&profile.Website, &profile.Phone, &profile.ProfilePhotoRef, &profile.CoverPhotoRef,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("failed to get profile by user id: %w", err)
	}

	return profile, nil
}

// Upsert inserts or updates the profile row keyed by user id. Repeated
// saves for the same user never create duplicate rows.
func (r *ProfileRepository) Upsert(ctx context.Context, profile model.Profile) (model.Profile, error) {
	query := `INSERT INTO profiles (` + profileColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			  ON CONFLICT (user_id) DO UPDATE SET
				  email = excluded.email,
				  full_name = excluded.full_name,
				  bio = excluded.bio,
				  job = excluded.job,
				  fashion = excluded.fashion,
				  age = excluded.age,
				  relationship_status = excluded.relationship_status,
				  location = excluded.location,
				  website = excluded.website,
				  phone = excluded.phone,
				  profile_photo_ref = excluded.profile_photo_ref,
				  cover_photo_ref = excluded.cover_photo_ref,
				  updated_at = excluded.updated_at
			  RETURNING ` + profileColumns

	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = now
	}

	var saved model.Profile
	err := r.db.QueryRow(ctx, query,
		profile.UserID, profile.Email, profile.FullName, profile.Bio, profile.Job,
		profile.Fashion, profile.Age, profile.RelationshipStatus, profile.Location,
		profile.Website, profile.Phone, profile.ProfilePhotoRef, profile.CoverPhotoRef,
		profile.CreatedAt, profile.UpdatedAt,
	).Scan(
		&saved.UserID, &saved.Email, &saved.FullName, &saved.Bio, &saved.Job,
		&saved.Fashion, &saved.Age, &saved.RelationshipStatus, &saved.Location,
		&saved.Website, &saved.Phone, &saved.ProfilePhotoRef, &saved.CoverPhotoRef,
		&saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return saved, nil
}

// EnsureRow creates a minimal profile row for a freshly signed-in user if
// none exists. Existing rows are left untouched.
func (r *ProfileRepository) EnsureRow(ctx context.Context, userID uuid.UUID, email string) error {
	query := `INSERT INTO profiles (user_id, email, created_at, updated_at)
			  VALUES ($1, $2, $3, $3)
			  ON CONFLICT (user_id) DO NOTHING`

	_, err := r.db.Exec(ctx, query, userID, email, time.Now())
	if err != nil {
		return fmt.Errorf("failed to ensure profile row: %w", err)
	}

	return nil
}
