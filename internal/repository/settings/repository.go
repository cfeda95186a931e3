package settings

import (
	"context"

	"shopbridge/internal/domain"
)

// Repository owns the singleton configuration record.
type Repository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	// ApplyMarkup stores the percentage, bumps the version and rewrites every
	// product's listed price in one atomic step. It returns the new settings
	// and the number of repriced products.
	ApplyMarkup(ctx context.Context, percent int64, price domain.PriceFunc) (*domain.Settings, int, error)
	SetPayment(ctx context.Context, cfg domain.PaymentConfig) (*domain.Settings, error)
}
