package memory

import (
	"context"
	"sort"

	"shopbridge/internal/domain"
	"shopbridge/internal/repository/role"
)

type RoleRepo struct {
	s *Store
}

var _ role.Repository = (*RoleRepo)(nil)

func (r *RoleRepo) Get(_ context.Context, principal string) (*domain.RoleAssignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.roles[principal]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *RoleRepo) Upsert(_ context.Context, a domain.RoleAssignment) (*domain.RoleAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.roles[a.Principal] = a
	return &a, nil
}

func (r *RoleRepo) List(_ context.Context) ([]domain.RoleAssignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.RoleAssignment, 0, len(r.s.roles))
	for _, a := range r.s.roles {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Principal < out[j].Principal })
	return out, nil
}
