package pricing

import (
	"context"

	"shopbridge/internal/domain"
	"shopbridge/internal/metrics"
	settingsrepo "shopbridge/internal/repository/settings"
	"shopbridge/internal/service/access"

	"go.uber.org/zap"
)

// ComputeListedPrice inflates base by markup percent, rounding down. Base
// prices above domain.MaxBasePrice are rejected before they get here.
func ComputeListedPrice(basePrice, markupPercent int64) int64 {
	return basePrice + basePrice*markupPercent/100
}

var _ domain.PriceFunc = ComputeListedPrice

type Authorizer interface {
	Authorize(ctx context.Context, principal string, action access.Action) (access.Grant, error)
}

// Service owns the markup percentage and the bulk reprice it triggers.
type Service struct {
	settings settingsrepo.Repository
	gate     Authorizer
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func New(settings settingsrepo.Repository, gate Authorizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{settings: settings, gate: gate, logger: logger.Named("pricing")}
}

// WithMetrics counts successful markup changes on m.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) Markup(ctx context.Context) (int64, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	return st.MarkupPercent, nil
}

// Reprice returns the listed price for base under the current markup.
func (s *Service) Reprice(ctx context.Context, basePrice int64) (int64, error) {
	markup, err := s.Markup(ctx)
	if err != nil {
		return 0, err
	}
	return ComputeListedPrice(basePrice, markup), nil
}

// SetMarkup stores percent and rewrites every listed price atomically.
func (s *Service) SetMarkup(ctx context.Context, caller string, percent int64) (*domain.Settings, error) {
	grant, err := s.gate.Authorize(ctx, caller, access.ActionSetMarkup)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateMarkup(percent); err != nil {
		return nil, err
	}
	st, repriced, err := s.settings.ApplyMarkup(ctx, percent, ComputeListedPrice)
	if err != nil {
		s.logger.Error("apply markup", zap.Int64("markup_percent", percent), zap.Error(err))
		return nil, err
	}
	s.metrics.MarkupChanged()
	s.logger.Info("markup changed",
		zap.String("by", grant.Principal),
		zap.Int64("markup_percent", st.MarkupPercent),
		zap.Int64("version", st.Version),
		zap.Int("repriced", repriced),
	)
	return st, nil
}
