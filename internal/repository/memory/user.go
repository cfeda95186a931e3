package memory

import (
	"context"
	"strings"

	"shopbridge/internal/domain"
	"shopbridge/internal/repository/user"

	"github.com/google/uuid"
)

type UserRepo struct {
	s *Store
}

var _ user.Repository = (*UserRepo)(nil)

func (r *UserRepo) Create(_ context.Context, u domain.UserProfile) (*domain.UserProfile, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.userEmails[email]; ok {
		return nil, domain.ErrAlreadyExists
	}
	u.ID = uuid.NewString()
	u.Email = email
	u.CreatedAt = r.s.now()
	r.s.users[u.ID] = u
	r.s.userEmails[email] = u.ID
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.UserProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.userEmails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := r.s.users[id]
	return &u, nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*domain.UserProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) UpdateProfile(_ context.Context, id string, in user.ProfileUpdate) (*domain.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.ShippingAddress != nil {
		u.ShippingAddress = *in.ShippingAddress
	}
	r.s.users[id] = u
	return &u, nil
}
