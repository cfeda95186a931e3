// Package stripe opens hosted Stripe Checkout sessions and reads them back
// through stripe-go. Every response passes Transform before the SDK decodes
// it.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"shopbridge/internal/domain"
	"shopbridge/internal/payment"

	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = stripego.APIURL
	maxBodyBytes   = 1 << 20
)

type Client struct {
	backend stripego.Backend
	logger  *zap.Logger
}

var _ payment.Provider = (*Client)(nil)

// NewClient builds a client against baseURL. Retries are left to the
// caller, so the SDK's own network retries are disabled.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("stripe")

	hc := *httpClient
	hc.Transport = newTransformTransport(httpClient.Transport, logger)
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		HTTPClient:        &hc,
		URL:               stripego.String(strings.TrimRight(baseURL, "/")),
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel)).Sugar(),
	})
	return &Client{backend: backend, logger: logger}
}

func (c *Client) OpenSession(ctx context.Context, req payment.OpenSessionRequest) (*payment.Session, error) {
	params := &stripego.CheckoutSessionParams{
		Mode:       stripego.String(string(stripego.CheckoutSessionModePayment)),
		SuccessURL: stripego.String(req.SuccessURL),
		CancelURL:  stripego.String(req.CancelURL),
	}
	params.Context = ctx
	if req.ClientReference != "" {
		params.ClientReferenceID = stripego.String(req.ClientReference)
	}
	for _, item := range req.Items {
		currency := item.Currency
		if currency == "" {
			currency = req.Currency
		}
		product := &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripego.String(item.ProductName),
		}
		if item.ProductDescription != "" {
			product.Description = stripego.String(item.ProductDescription)
		}
		params.LineItems = append(params.LineItems, &stripego.CheckoutSessionLineItemParams{
			Quantity: stripego.Int64(item.Quantity),
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripego.String(strings.ToLower(currency)),
				UnitAmount:  stripego.Int64(item.PriceInCents),
				ProductData: product,
			},
		})
	}
	if len(req.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripego.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripego.StringSlice(req.AllowedCountries),
		}
	}

	sc := session.Client{B: c.backend, Key: req.SecretKey}
	cs, err := sc.New(params)
	if err != nil {
		return nil, c.translate("open session", err)
	}
	return toSession(cs)
}

func (c *Client) GetSession(ctx context.Context, secretKey, id string) (*payment.Session, error) {
	params := &stripego.CheckoutSessionParams{}
	params.Context = ctx

	sc := session.Client{B: c.backend, Key: secretKey}
	cs, err := sc.Get(id, params)
	if err != nil {
		return nil, c.translate("get session", err)
	}
	return toSession(cs)
}

// translate maps SDK and transport failures onto payment.Error so callers
// can tell retryable answers apart.
func (c *Client) translate(op string, err error) error {
	var serr *stripego.Error
	if errors.As(err, &serr) {
		c.logger.Warn("stripe error",
			zap.String("op", op),
			zap.Int("status", serr.HTTPStatusCode),
			zap.String("code", string(serr.Code)),
		)
		return &payment.Error{
			StatusCode: serr.HTTPStatusCode,
			Type:       string(serr.Type),
			Code:       string(serr.Code),
			Message:    serr.Msg,
		}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		var perr *payment.Error
		if errors.As(uerr.Err, &perr) {
			return perr
		}
		if errors.Is(uerr.Err, ErrUntrustedResponse) {
			return uerr.Err
		}
	}
	return err
}

func toSession(cs *stripego.CheckoutSession) (*payment.Session, error) {
	if cs == nil || cs.ID == "" {
		return nil, fmt.Errorf("%w: session without id", ErrUntrustedResponse)
	}
	out := &payment.Session{
		ID:          cs.ID,
		URL:         cs.URL,
		Principal:   cs.ClientReferenceID,
		AmountTotal: cs.AmountTotal,
		Currency:    string(cs.Currency),
	}
	if cs.LastResponse != nil {
		out.Raw = json.RawMessage(cs.LastResponse.RawJSON)
	}
	out.Status, out.Error = sessionStatus(cs.Status, cs.PaymentStatus)
	return out, nil
}

func sessionStatus(status stripego.CheckoutSessionStatus, paid stripego.CheckoutSessionPaymentStatus) (domain.SessionStatus, string) {
	switch status {
	case stripego.CheckoutSessionStatusComplete:
		if paid == stripego.CheckoutSessionPaymentStatusPaid || paid == stripego.CheckoutSessionPaymentStatusNoPaymentRequired {
			return domain.SessionStatusCompleted, ""
		}
		return domain.SessionStatusFailed, "payment " + string(paid)
	case stripego.CheckoutSessionStatusExpired:
		return domain.SessionStatusFailed, "session expired"
	default:
		return domain.SessionStatusOpen, ""
	}
}
