package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProfileStore defines persistence operations for profile rows.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (Profile, error)
	Upsert(ctx context.Context, profile Profile) (Profile, error)
	EnsureRow(ctx context.Context, userID uuid.UUID, email string) error
}

// InterestStore defines persistence operations for the interests relation.
type InterestStore interface {
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]string, error)
	ReplaceForUser(ctx context.Context, userID uuid.UUID, interests []string) error
}

// Profile is the user's personal data, distinct from the auth identity.
// JSON tags define the local-cache snapshot format.
type Profile struct {
	UserID             uuid.UUID `json:"user_id,omitempty"`
	Email              string    `json:"email,omitempty"`
	FullName           string    `json:"full_name"`
	Bio                string    `json:"bio"`
	Job                string    `json:"job,omitempty"`
	Fashion            string    `json:"fashion,omitempty"`
	Age                int       `json:"age,omitempty"`
	RelationshipStatus string    `json:"relationship_status,omitempty"`
	Location           string    `json:"location,omitempty"`
	Interests          []string  `json:"interests,omitempty"`
	Website            string    `json:"website,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	ProfilePhotoRef    string    `json:"profile_photo_ref,omitempty"`
	CoverPhotoRef      string    `json:"cover_photo_ref,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`
}

// Complete reports whether the profile passes the advisory completeness
// check: full name and bio both present.
func (p Profile) Complete() bool {
	return p.FullName != "" && p.Bio != ""
}

// AddInterest appends an interest, preserving insertion order and skipping
// duplicates.
func (p *Profile) AddInterest(interest string) {
	for _, existing := range p.Interests {
		if existing == interest {
			return
		}
	}
	p.Interests = append(p.Interests, interest)
}

// ProfileUpdate is a partial profile mutation. Nil fields are left unchanged.
type ProfileUpdate struct {
	FullName           *string
	Bio                *string
	Job                *string
	Fashion            *string
	Age                *int
	RelationshipStatus *string
	Location           *string
	Interests          *[]string
	Website            *string
	Phone              *string
	ProfilePhotoRef    *string
	CoverPhotoRef      *string
}

// Apply merges the update into the profile and stamps UpdatedAt.
func (u ProfileUpdate) Apply(p *Profile) {
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.Job != nil {
		p.Job = *u.Job
	}
	if u.Fashion != nil {
		p.Fashion = *u.Fashion
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.RelationshipStatus != nil {
		p.RelationshipStatus = *u.RelationshipStatus
	}
	if u.Location != nil {
		p.Location = *u.Location
	}
	if u.Interests != nil {
		p.Interests = append([]string(nil), (*u.Interests)...)
	}
	if u.Website != nil {
		p.Website = *u.Website
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.ProfilePhotoRef != nil {
		p.ProfilePhotoRef = *u.ProfilePhotoRef
	}
	if u.CoverPhotoRef != nil {
		p.CoverPhotoRef = *u.CoverPhotoRef
	}
	p.UpdatedAt = time.Now()
}
