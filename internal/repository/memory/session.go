package memory

import (
	"context"

	"shopbridge/internal/domain"
	"shopbridge/internal/repository/session"
)

type SessionRepo struct {
	s *Store
}

var _ session.Repository = (*SessionRepo)(nil)

func (r *SessionRepo) Create(_ context.Context, cs domain.CheckoutSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[cs.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if cs.UpdatedAt.IsZero() {
		cs.UpdatedAt = cs.CreatedAt
	}
	r.s.sessions[cs.ID] = cs
	return nil
}

func (r *SessionRepo) Get(_ context.Context, id string) (*domain.CheckoutSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cs, ok := r.s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cs, nil
}

func (r *SessionRepo) MarkTerminal(_ context.Context, id string, status domain.SessionStatus, errMsg string) (*domain.CheckoutSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cs, ok := r.s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if cs.Status == domain.SessionStatusOpen {
		cs.Status = status
		cs.Error = errMsg
		cs.UpdatedAt = r.s.now()
		r.s.sessions[id] = cs
	}
	return &cs, nil
}
