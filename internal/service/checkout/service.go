package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopbridge/internal/cache"
	"shopbridge/internal/domain"
	"shopbridge/internal/metrics"
	"shopbridge/internal/payment"
	sessionrepo "shopbridge/internal/repository/session"
	settingsrepo "shopbridge/internal/repository/settings"
	"shopbridge/internal/service/access"

	"go.uber.org/zap"
)

type Authorizer interface {
	Authorize(ctx context.Context, principal string, action access.Action) (access.Grant, error)
}

type Config struct {
	Currency       string
	Timeout        time.Duration
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Currency == "" {
		c.Currency = "inr"
	}
	c.Currency = strings.ToLower(c.Currency)
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 200 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 2 * time.Second
	}
	return c
}

type Deps struct {
	Settings settingsrepo.Repository
	Sessions sessionrepo.Repository
	Provider payment.Provider
	Cache    cache.SessionCache
	Gate     Authorizer
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Service opens hosted checkout sessions and reports their status. It is
// the only writer of session records.
type Service struct {
	settings settingsrepo.Repository
	sessions sessionrepo.Repository
	provider payment.Provider
	cache    cache.SessionCache
	gate     Authorizer
	metrics  *metrics.Metrics
	logger   *zap.Logger
	cfg      Config
	now      func() time.Time
}

func New(d Deps, cfg Config) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Cache == nil {
		d.Cache = cache.NewMemorySessionCache()
	}
	return &Service{
		settings: d.Settings,
		sessions: d.Sessions,
		provider: d.Provider,
		cache:    d.Cache,
		gate:     d.Gate,
		metrics:  d.Metrics,
		logger:   d.Logger.Named("checkout"),
		cfg:      cfg.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateSessionInput struct {
	Items      []domain.ShoppingItem `json:"items"`
	SuccessURL string                `json:"successUrl"`
	CancelURL  string                `json:"cancelUrl"`
}

func (in CreateSessionInput) validate() error {
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: cart is empty", domain.ErrInvalidArgument)
	}
	var total int64
	for i, item := range in.Items {
		if strings.TrimSpace(item.ProductName) == "" {
			return fmt.Errorf("%w: item %d has no name", domain.ErrInvalidArgument, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", domain.ErrInvalidArgument, i)
		}
		if item.PriceInCents < 0 {
			return fmt.Errorf("%w: item %d price cannot be negative", domain.ErrInvalidArgument, i)
		}
		var err error
		if total, err = domain.AddLine(total, item.PriceInCents, item.Quantity); err != nil {
			return err
		}
	}
	if strings.TrimSpace(in.SuccessURL) == "" || strings.TrimSpace(in.CancelURL) == "" {
		return fmt.Errorf("%w: success and cancel urls required", domain.ErrInvalidArgument)
	}
	return nil
}

// itemsTotal sums items that passed validate.
func itemsTotal(items []domain.ShoppingItem) int64 {
	var total int64
	for _, item := range items {
		total += item.PriceInCents * item.Quantity
	}
	return total
}

func (s *Service) paymentConfig(ctx context.Context) (*domain.PaymentConfig, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if st.Payment == nil {
		return nil, fmt.Errorf("%w: payment processor not configured", domain.ErrNotConfigured)
	}
	return st.Payment, nil
}

// CreateSession opens a hosted checkout session for the caller's items.
func (s *Service) CreateSession(ctx context.Context, caller string, in CreateSessionInput) (*domain.CheckoutSession, error) {
	grant, err := s.gate.Authorize(ctx, caller, access.ActionPlaceOrder)
	if err != nil {
		return nil, err
	}
	cfg, err := s.paymentConfig(ctx)
	if err != nil {
		s.metrics.CheckoutSession("not_configured")
		return nil, err
	}
	if err := in.validate(); err != nil {
		s.metrics.CheckoutSession("invalid")
		return nil, err
	}

	req := payment.OpenSessionRequest{
		SecretKey:        cfg.SecretKey,
		Items:            in.Items,
		SuccessURL:       strings.TrimSpace(in.SuccessURL),
		CancelURL:        strings.TrimSpace(in.CancelURL),
		Currency:         s.cfg.Currency,
		AllowedCountries: cfg.AllowedCountries,
		ClientReference:  grant.Principal,
	}
	opened, err := s.call(ctx, "open session", func(ctx context.Context) (*payment.Session, error) {
		return s.provider.OpenSession(ctx, req)
	})
	if err != nil {
		s.metrics.CheckoutSession("provider_error")
		return nil, err
	}
	if opened.URL == "" {
		s.metrics.CheckoutSession("provider_error")
		return nil, fmt.Errorf("%w: session %s has no redirect url", domain.ErrProviderError, opened.ID)
	}

	now := s.now()
	cs := domain.CheckoutSession{
		ID:          opened.ID,
		Status:      domain.SessionStatusOpen,
		Principal:   grant.Principal,
		RedirectURL: opened.URL,
		AmountTotal: opened.AmountTotal,
		Currency:    s.cfg.Currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if cs.AmountTotal == 0 {
		cs.AmountTotal = itemsTotal(in.Items)
	}
	if err := s.sessions.Create(ctx, cs); err != nil {
		s.logger.Error("store session", zap.String("session_id", cs.ID), zap.Error(err))
		return nil, err
	}
	s.metrics.CheckoutSession("created")
	s.logger.Info("checkout session opened",
		zap.String("session_id", cs.ID),
		zap.String("principal", cs.Principal),
		zap.Int64("amount_total", cs.AmountTotal),
		zap.Int("items", len(in.Items)),
	)
	return &cs, nil
}

// SessionStatus reads a session's state. Repeated calls are safe; the only
// write is moving this service's own record to a terminal status.
func (s *Service) SessionStatus(ctx context.Context, id string) (*domain.SessionResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: session id required", domain.ErrInvalidArgument)
	}
	if cached, err := s.cache.Get(ctx, id); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("session cache read", zap.String("session_id", id), zap.Error(err))
	}

	stored, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.Status.IsTerminal() {
		res := resultFromRecord(stored)
		s.remember(ctx, res)
		return &res, nil
	}

	cfg, err := s.paymentConfig(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := s.call(ctx, "get session", func(ctx context.Context) (*payment.Session, error) {
		return s.provider.GetSession(ctx, cfg.SecretKey, id)
	})
	if err != nil {
		return nil, err
	}
	if remote.ID != id {
		return nil, fmt.Errorf("%w: asked for session %s, got %s", domain.ErrProviderError, id, remote.ID)
	}

	res := domain.SessionResult{
		SessionID:   id,
		Status:      remote.Status,
		Principal:   remote.Principal,
		AmountTotal: remote.AmountTotal,
		Raw:         remote.Raw,
		Error:       remote.Error,
	}
	if res.Principal == "" {
		res.Principal = stored.Principal
	}
	if res.AmountTotal == 0 {
		res.AmountTotal = stored.AmountTotal
	}
	if !res.Status.IsTerminal() {
		return &res, nil
	}

	updated, err := s.sessions.MarkTerminal(ctx, id, res.Status, res.Error)
	if err != nil {
		return nil, err
	}
	if updated.Status != res.Status {
		// A concurrent read already recorded a different outcome; it wins.
		res = resultFromRecord(updated)
	}
	s.logger.Info("checkout session settled",
		zap.String("session_id", id),
		zap.String("status", string(res.Status)),
		zap.String("error", res.Error),
	)
	s.remember(ctx, res)
	return &res, nil
}

// SessionStatusFor is SessionStatus restricted to the session's owner.
func (s *Service) SessionStatusFor(ctx context.Context, caller, id string) (*domain.SessionResult, error) {
	grant, err := s.gate.Authorize(ctx, caller, access.ActionPlaceOrder)
	if err != nil {
		return nil, err
	}
	stored, err := s.sessions.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if stored.Principal != grant.Principal && grant.Role != domain.RoleAdmin {
		return nil, domain.ErrNotFound
	}
	return s.SessionStatus(ctx, id)
}

func (s *Service) remember(ctx context.Context, res domain.SessionResult) {
	if err := s.cache.Put(ctx, res); err != nil {
		s.logger.Warn("session cache write", zap.String("session_id", res.SessionID), zap.Error(err))
	}
}

func resultFromRecord(cs *domain.CheckoutSession) domain.SessionResult {
	return domain.SessionResult{
		SessionID:   cs.ID,
		Status:      cs.Status,
		Principal:   cs.Principal,
		AmountTotal: cs.AmountTotal,
		Error:       cs.Error,
	}
}

func (s *Service) Configure(ctx context.Context, caller string, cfg domain.PaymentConfig) (*domain.Settings, error) {
	grant, err := s.gate.Authorize(ctx, caller, access.ActionConfigurePayment)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st, err := s.settings.SetPayment(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.logger.Info("payment configured", zap.String("by", grant.Principal), zap.Strings("allowed_countries", cfg.AllowedCountries))
	return st, nil
}

func (s *Service) IsConfigured(ctx context.Context) (bool, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return false, err
	}
	return st.Payment != nil, nil
}

// PaymentConfig returns the stored configuration with the secret masked.
func (s *Service) PaymentConfig(ctx context.Context, caller string) (*domain.PaymentConfig, error) {
	if _, err := s.gate.Authorize(ctx, caller, access.ActionConfigurePayment); err != nil {
		return nil, err
	}
	cfg, err := s.paymentConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.PaymentConfig{
		SecretKey:        maskSecret(cfg.SecretKey),
		AllowedCountries: append([]string(nil), cfg.AllowedCountries...),
	}, nil
}

func maskSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
