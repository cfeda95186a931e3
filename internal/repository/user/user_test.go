package user

import (
	"context"
	"testing"

	"shopbridge/internal/db/dbtest"
	"shopbridge/internal/domain"
)

func TestPostgres_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	created, err := repo.Create(ctx, domain.UserProfile{
		Email:        "Asha@Example.com",
		PasswordHash: "hash",
		Name:         "Asha",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.Email != "asha@example.com" {
		t.Fatalf("unexpected user %+v", created)
	}

	if _, err := repo.Create(ctx, domain.UserProfile{Email: "ASHA@example.com", PasswordHash: "x"}); err != domain.ErrAlreadyExists {
		t.Fatalf("expected already exists, got %v", err)
	}

	byEmail, err := repo.GetByEmail(ctx, "asha@EXAMPLE.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, byEmail.ID)
	}
}

func TestPostgres_UpdateProfileKeepsUnsetFields(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	created, err := repo.Create(ctx, domain.UserProfile{
		Email:        "ravi@example.com",
		PasswordHash: "hash",
		Name:         "Ravi",
		Phone:        "+91 98000 00000",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	addr := "12 MG Road, Bengaluru"
	updated, err := repo.UpdateProfile(ctx, created.ID, ProfileUpdate{ShippingAddress: &addr})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.ShippingAddress != addr || updated.Name != "Ravi" || updated.Phone != "+91 98000 00000" {
		t.Fatalf("unexpected profile %+v", updated)
	}

	if _, err := repo.UpdateProfile(ctx, "00000000-0000-0000-0000-000000000000", ProfileUpdate{}); err != domain.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
