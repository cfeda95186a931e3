package session

import (
	"context"

	"shopbridge/internal/domain"
)

// Repository stores checkout session records mirrored from the processor.
type Repository interface {
	Create(ctx context.Context, s domain.CheckoutSession) error
	Get(ctx context.Context, id string) (*domain.CheckoutSession, error)
	// MarkTerminal moves an open session to a terminal status. Sessions that
	// are already terminal are left untouched and returned as stored.
	MarkTerminal(ctx context.Context, id string, status domain.SessionStatus, errMsg string) (*domain.CheckoutSession, error)
}
