package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// OrderStatus tracks fulfillment progress.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// fulfillment position along pending -> processing -> shipped -> delivered.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusRank[s]
	return ok || s == OrderStatusCancelled
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the move is legal. Forward moves may skip
// stages; backward moves, self moves and moves out of a terminal state are not.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return orderStatusRank[next] > orderStatusRank[s]
}

// ParseOrderStatus is case-insensitive.
func ParseOrderStatus(v string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidArgument, v)
	}
	return s, nil
}

// PaymentStatus tracks settlement of the order's payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// CanTransitionTo allows only pending -> completed and pending -> failed.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentStatusPending && next.IsTerminal()
}

func ParsePaymentStatus(v string) (PaymentStatus, error) {
	s := PaymentStatus(strings.ToLower(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown payment status %q", ErrInvalidArgument, v)
	}
	return s, nil
}

// CustomerInfo is the contact and shipping snapshot taken at order time.
type CustomerInfo struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	ShippingAddress string `json:"shippingAddress"`
}

// OrderedProduct is a line item; PriceAtPurchase is frozen at creation.
type OrderedProduct struct {
	ProductID       int64 `json:"productId"`
	Quantity        int64 `json:"quantity"`
	PriceAtPurchase int64 `json:"priceAtPurchase"`
}

type Order struct {
	ID                int64            `json:"id"`
	Principal         string           `json:"principal"`
	Products          []OrderedProduct `json:"products"`
	Total             int64            `json:"total"`
	Customer          CustomerInfo     `json:"customer"`
	OrderStatus       OrderStatus      `json:"orderStatus"`
	PaymentStatus     PaymentStatus    `json:"paymentStatus"`
	FulfillmentNotes  string           `json:"fulfillmentNotes,omitempty"`
	IdempotencyKey    string           `json:"-"`
	CheckoutSessionID string           `json:"checkoutSessionId,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// AddLine returns total + price*qty for non-negative operands. A result
// past math.MaxInt64 is ErrInvalidArgument.
func AddLine(total, price, qty int64) (int64, error) {
	if qty > 0 && price > math.MaxInt64/qty {
		return 0, fmt.Errorf("%w: line amount %d x %d overflows", ErrInvalidArgument, price, qty)
	}
	line := price * qty
	if total > math.MaxInt64-line {
		return 0, fmt.Errorf("%w: total overflows", ErrInvalidArgument)
	}
	return total + line, nil
}

// LineTotal sums price-at-purchase times quantity over lines that passed
// ValidateLines.
func LineTotal(products []OrderedProduct) int64 {
	var total int64
	for _, p := range products {
		total += p.PriceAtPurchase * p.Quantity
	}
	return total
}

// ValidateLines checks the line items of a new order.
func ValidateLines(products []OrderedProduct) error {
	if len(products) == 0 {
		return fmt.Errorf("%w: order requires at least one product", ErrInvalidArgument)
	}
	var sum int64
	for i, p := range products {
		if p.Quantity <= 0 {
			return fmt.Errorf("%w: product %d quantity must be positive", ErrInvalidArgument, i)
		}
		if p.PriceAtPurchase < 0 {
			return fmt.Errorf("%w: product %d price cannot be negative", ErrInvalidArgument, i)
		}
		var err error
		if sum, err = AddLine(sum, p.PriceAtPurchase, p.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// SetOrderStatus applies a fulfillment transition.
func (o *Order) SetOrderStatus(next OrderStatus, at time.Time) error {
	if !o.OrderStatus.CanTransitionTo(next) {
		return fmt.Errorf("%w: order %d %s -> %s", ErrInvalidTransition, o.ID, o.OrderStatus, next)
	}
	o.OrderStatus = next
	o.UpdatedAt = at
	return nil
}

// SetPaymentStatus applies a payment transition.
func (o *Order) SetPaymentStatus(next PaymentStatus, at time.Time) error {
	if !o.PaymentStatus.CanTransitionTo(next) {
		return fmt.Errorf("%w: order %d payment %s -> %s", ErrInvalidTransition, o.ID, o.PaymentStatus, next)
	}
	o.PaymentStatus = next
	o.UpdatedAt = at
	return nil
}

// SetFulfillmentNotes replaces the notes; the latest write wins.
func (o *Order) SetFulfillmentNotes(notes string, at time.Time) error {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return fmt.Errorf("%w: notes required", ErrInvalidArgument)
	}
	o.FulfillmentNotes = notes
	o.UpdatedAt = at
	return nil
}
