package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"shopbridge/internal/domain"
	"shopbridge/internal/events"
	"shopbridge/internal/metrics"
	orderrepo "shopbridge/internal/repository/order"
	"shopbridge/internal/service/access"

	"go.uber.org/zap"
)

const (
	MaxPageSize = 100

	sessionKeyPrefix = "checkout-session:"
	clientKeyPrefix  = "client:"
)

type orderRepo interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	ListByPrincipal(ctx context.Context, principal string) ([]domain.Order, error)
	ListAll(ctx context.Context, offset, limit int) ([]domain.Order, error)
	Update(ctx context.Context, id int64, fn orderrepo.UpdateFunc) (*domain.Order, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, principal string, action access.Action) (access.Grant, error)
}

// SessionReader reports checkout session outcomes. The ledger never writes
// sessions.
type SessionReader interface {
	SessionStatus(ctx context.Context, id string) (*domain.SessionResult, error)
}

type Config struct {
	// RequireCheckoutSession rejects orders that do not reference a
	// completed checkout session.
	RequireCheckoutSession bool
}

type Deps struct {
	Orders    orderrepo.Repository
	Sessions  SessionReader
	Gate      Authorizer
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Ledger is the only writer of orders and their statuses.
type Ledger struct {
	repo      orderRepo
	sessions  SessionReader
	gate      Authorizer
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time
}

func New(d Deps, cfg Config) *Ledger {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Publisher == nil {
		d.Publisher = events.NewNopPublisher()
	}
	return &Ledger{
		repo:      d.Orders,
		sessions:  d.Sessions,
		gate:      d.Gate,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		logger:    d.Logger.Named("order_ledger"),
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrderInput is a buyer's order. IdempotencyKey deduplicates retries
// of orders placed without a checkout session and is ignored when a session
// is referenced.
type CreateOrderInput struct {
	Customer          domain.CustomerInfo     `json:"customer"`
	Products          []domain.OrderedProduct `json:"products"`
	Total             int64                   `json:"total"`
	CheckoutSessionID string                  `json:"checkoutSessionId,omitempty"`
	IdempotencyKey    string                  `json:"-"`
}

// CreateOrder records a new order. With a checkout session the session
// must have completed and the order is committed with payment completed.
// Replays carrying the same session or key return the original order with
// created=false.
func (l *Ledger) CreateOrder(ctx context.Context, caller string, in CreateOrderInput) (*domain.Order, bool, error) {
	grant, err := l.gate.Authorize(ctx, caller, access.ActionPlaceOrder)
	if err != nil {
		return nil, false, err
	}
	if err := domain.ValidateLines(in.Products); err != nil {
		return nil, false, err
	}
	if sum := domain.LineTotal(in.Products); sum != in.Total {
		return nil, false, fmt.Errorf("%w: total %d, lines sum to %d", domain.ErrTotalMismatch, in.Total, sum)
	}

	sessionID := strings.TrimSpace(in.CheckoutSessionID)
	var key string
	switch {
	case sessionID != "":
		key = sessionKeyPrefix + sessionID
	case l.cfg.RequireCheckoutSession:
		return nil, false, fmt.Errorf("%w: checkout session required", domain.ErrInvalidArgument)
	case strings.TrimSpace(in.IdempotencyKey) != "":
		key = clientKeyPrefix + grant.Principal + ":" + strings.TrimSpace(in.IdempotencyKey)
	}

	if key != "" {
		existing, err := l.repo.GetByIdempotencyKey(ctx, key)
		switch {
		case err == nil:
			return l.replay(existing, grant)
		case !errors.Is(err, domain.ErrNotFound):
			return nil, false, err
		}
	}

	now := l.now()
	o := domain.Order{
		Principal:         grant.Principal,
		Products:          append([]domain.OrderedProduct(nil), in.Products...),
		Total:             in.Total,
		Customer:          trimCustomer(in.Customer),
		OrderStatus:       domain.OrderStatusPending,
		PaymentStatus:     domain.PaymentStatusPending,
		IdempotencyKey:    key,
		CheckoutSessionID: sessionID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if sessionID != "" {
		if err := l.verifySession(ctx, grant, sessionID, in.Total); err != nil {
			return nil, false, err
		}
		if err := o.SetPaymentStatus(domain.PaymentStatusCompleted, now); err != nil {
			return nil, false, err
		}
	}

	created, isNew, err := l.repo.Create(ctx, o)
	if err != nil {
		l.logger.Error("create order", zap.String("principal", grant.Principal), zap.Error(err))
		return nil, false, err
	}
	if !isNew {
		return l.replay(created, grant)
	}

	l.metrics.OrderCreated()
	l.logger.Info("order created",
		zap.Int64("order_id", created.ID),
		zap.String("principal", created.Principal),
		zap.Int64("total", created.Total),
		zap.String("checkout_session_id", created.CheckoutSessionID),
	)
	l.publish(ctx, events.OrderCreated, created, grant.Principal)
	return created, true, nil
}

func (l *Ledger) replay(existing *domain.Order, grant access.Grant) (*domain.Order, bool, error) {
	if existing.Principal != grant.Principal {
		return nil, false, fmt.Errorf("%w: order belongs to another principal", domain.ErrUnauthorized)
	}
	l.metrics.OrderReplayed()
	l.logger.Info("order replay", zap.Int64("order_id", existing.ID), zap.String("principal", grant.Principal))
	return existing, false, nil
}

func (l *Ledger) verifySession(ctx context.Context, grant access.Grant, sessionID string, total int64) error {
	if l.sessions == nil {
		return fmt.Errorf("%w: checkout sessions unavailable", domain.ErrNotConfigured)
	}
	res, err := l.sessions.SessionStatus(ctx, sessionID)
	if err != nil {
		return err
	}
	switch res.Status {
	case domain.SessionStatusCompleted:
	case domain.SessionStatusFailed:
		return fmt.Errorf("%w: checkout session %s failed: %s", domain.ErrInvalidArgument, sessionID, res.Error)
	default:
		return fmt.Errorf("%w: checkout session %s is not completed", domain.ErrInvalidArgument, sessionID)
	}
	if res.Principal != "" && res.Principal != grant.Principal {
		return fmt.Errorf("%w: checkout session belongs to another principal", domain.ErrUnauthorized)
	}
	if res.AmountTotal != 0 && res.AmountTotal != total {
		return fmt.Errorf("%w: session charged %d, order total %d", domain.ErrTotalMismatch, res.AmountTotal, total)
	}
	return nil
}

func trimCustomer(c domain.CustomerInfo) domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:            strings.TrimSpace(c.Name),
		Email:           strings.TrimSpace(c.Email),
		Phone:           strings.TrimSpace(c.Phone),
		ShippingAddress: strings.TrimSpace(c.ShippingAddress),
	}
}

func (l *Ledger) UpdateOrderStatus(ctx context.Context, caller string, id int64, status domain.OrderStatus) (*domain.Order, error) {
	return l.mutate(ctx, caller, id, events.OrderStatusChanged, func(o *domain.Order) error {
		if !status.IsValid() {
			return fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidArgument, status)
		}
		return o.SetOrderStatus(status, l.now())
	})
}

func (l *Ledger) UpdatePaymentStatus(ctx context.Context, caller string, id int64, status domain.PaymentStatus) (*domain.Order, error) {
	return l.mutate(ctx, caller, id, events.OrderPaymentStatusChanged, func(o *domain.Order) error {
		if !status.IsValid() {
			return fmt.Errorf("%w: unknown payment status %q", domain.ErrInvalidArgument, status)
		}
		return o.SetPaymentStatus(status, l.now())
	})
}

// AddFulfillmentNotes replaces the order's notes; the latest write wins.
func (l *Ledger) AddFulfillmentNotes(ctx context.Context, caller string, id int64, notes string) (*domain.Order, error) {
	return l.mutate(ctx, caller, id, events.OrderNotesUpdated, func(o *domain.Order) error {
		return o.SetFulfillmentNotes(notes, l.now())
	})
}

func (l *Ledger) mutate(ctx context.Context, caller string, id int64, evt events.EventType, fn orderrepo.UpdateFunc) (*domain.Order, error) {
	grant, err := l.gate.Authorize(ctx, caller, access.ActionManageOrders)
	if err != nil {
		return nil, err
	}
	o, err := l.repo.Update(ctx, id, fn)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidTransition) && !errors.Is(err, domain.ErrInvalidArgument) {
			l.logger.Error("update order", zap.Int64("order_id", id), zap.String("event", string(evt)), zap.Error(err))
		}
		return nil, err
	}
	l.logger.Info("order updated",
		zap.Int64("order_id", o.ID),
		zap.String("event", string(evt)),
		zap.String("order_status", string(o.OrderStatus)),
		zap.String("payment_status", string(o.PaymentStatus)),
		zap.String("by", grant.Principal),
	)
	l.publish(ctx, evt, o, grant.Principal)
	return o, nil
}

// MyOrders lists the caller's orders oldest first.
func (l *Ledger) MyOrders(ctx context.Context, caller string) ([]domain.Order, error) {
	grant, err := l.gate.Authorize(ctx, caller, access.ActionViewOwnOrders)
	if err != nil {
		return nil, err
	}
	orders, err := l.repo.ListByPrincipal(ctx, grant.Principal)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

type Page struct {
	Orders   []domain.Order `json:"orders"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// AllOrders pages through every order newest first. Pages are zero based.
func (l *Ledger) AllOrders(ctx context.Context, caller string, page, pageSize int) (*Page, error) {
	if _, err := l.gate.Authorize(ctx, caller, access.ActionViewAllOrders); err != nil {
		return nil, err
	}
	if page < 0 {
		return nil, fmt.Errorf("%w: page must not be negative", domain.ErrInvalidArgument)
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: page size must be between 1 and %d", domain.ErrInvalidArgument, MaxPageSize)
	}
	if page > math.MaxInt/pageSize {
		return nil, fmt.Errorf("%w: page %d out of range", domain.ErrInvalidArgument, page)
	}
	orders, err := l.repo.ListAll(ctx, page*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return &Page{Orders: orders, Page: page, PageSize: pageSize}, nil
}

// GetOrder returns an order to its owner or to an admin. Other callers get
// ErrNotFound.
func (l *Ledger) GetOrder(ctx context.Context, caller string, id int64) (*domain.Order, error) {
	grant, err := l.gate.Authorize(ctx, caller, access.ActionViewOwnOrders)
	if err != nil {
		return nil, err
	}
	o, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Principal != grant.Principal && grant.Role != domain.RoleAdmin {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (l *Ledger) publish(ctx context.Context, t events.EventType, o *domain.Order, actor string) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := l.publisher.Publish(pubCtx, events.NewOrderEvent(t, o, actor, l.now())); err != nil {
		l.logger.Warn("publish order event", zap.String("type", string(t)), zap.Int64("order_id", o.ID), zap.Error(err))
	}
}
