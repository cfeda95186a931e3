package domain

import (
	"encoding/json"
	"time"
)

// SessionStatus is the lifecycle of a hosted checkout session.
type SessionStatus string

const (
	SessionStatusOpen      SessionStatus = "open"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
)

func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusFailed
}

// ShoppingItem is a priced line sent to the payment processor. It only
// lives for the duration of a checkout request.
type ShoppingItem struct {
	ProductName        string `json:"productName"`
	ProductDescription string `json:"productDescription,omitempty"`
	Quantity           int64  `json:"quantity"`
	PriceInCents       int64  `json:"priceInCents"`
	Currency           string `json:"currency"`
}

type CheckoutSession struct {
	ID          string        `json:"id"`
	Status      SessionStatus `json:"status"`
	Principal   string        `json:"-"`
	RedirectURL string        `json:"url"`
	AmountTotal int64         `json:"amountTotal"`
	Currency    string        `json:"currency"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// SessionResult is a point-in-time read of a session at the processor.
type SessionResult struct {
	SessionID   string          `json:"sessionId"`
	Status      SessionStatus   `json:"status"`
	Principal   string          `json:"principal,omitempty"`
	AmountTotal int64           `json:"amountTotal,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
	Error       string          `json:"error,omitempty"`
}
