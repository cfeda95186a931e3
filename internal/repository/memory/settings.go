package memory

import (
	"context"

	"shopbridge/internal/domain"
	"shopbridge/internal/repository/settings"
)

type SettingsRepo struct {
	s *Store
}

var _ settings.Repository = (*SettingsRepo)(nil)

func (r *SettingsRepo) Get(_ context.Context) (*domain.Settings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st := cloneSettings(r.s.settings)
	return &st, nil
}

func (r *SettingsRepo) ApplyMarkup(_ context.Context, percent int64, price domain.PriceFunc) (*domain.Settings, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.products {
		p.ListedPrice = price(p.BasePrice, percent)
		r.s.products[id] = p
	}
	r.s.settings.MarkupPercent = percent
	r.s.settings.Version++
	r.s.settings.UpdatedAt = r.s.now()
	st := cloneSettings(r.s.settings)
	return &st, len(r.s.products), nil
}

func (r *SettingsRepo) SetPayment(_ context.Context, cfg domain.PaymentConfig) (*domain.Settings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cfg.AllowedCountries = append([]string(nil), cfg.AllowedCountries...)
	r.s.settings.Payment = &cfg
	r.s.settings.Version++
	r.s.settings.UpdatedAt = r.s.now()
	st := cloneSettings(r.s.settings)
	return &st, nil
}
