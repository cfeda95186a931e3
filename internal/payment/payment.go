// Package payment defines the boundary to the hosted checkout processor.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"shopbridge/internal/domain"
)

// OpenSessionRequest describes a hosted session. ClientReference is echoed
// back on status reads and carries the principal.
type OpenSessionRequest struct {
	SecretKey        string
	Items            []domain.ShoppingItem
	SuccessURL       string
	CancelURL        string
	Currency         string
	AllowedCountries []string
	ClientReference  string
}

// Session is the processor's view of a checkout session.
type Session struct {
	ID          string
	URL         string
	Status      domain.SessionStatus
	Principal   string
	AmountTotal int64
	Currency    string
	Error       string
	Raw         json.RawMessage
}

type Provider interface {
	OpenSession(ctx context.Context, req OpenSessionRequest) (*Session, error)
	GetSession(ctx context.Context, secretKey, id string) (*Session, error)
}

// Error is a non-2xx answer from the processor.
type Error struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment provider: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("payment provider: %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether a retry may succeed.
func (e *Error) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
