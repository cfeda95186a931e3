package user

import (
	"context"

	"shopbridge/internal/domain"
)

// ProfileUpdate carries the editable profile fields. Nil leaves a field as is.
type ProfileUpdate struct {
	Name            *string
	Phone           *string
	ShippingAddress *string
}

// Repository persists and fetches registered users.
type Repository interface {
	Create(ctx context.Context, u domain.UserProfile) (*domain.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error)
	GetByID(ctx context.Context, id string) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*domain.UserProfile, error)
}
