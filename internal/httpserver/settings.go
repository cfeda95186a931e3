package httpserver

import (
	"errors"
	"net/http"

	"shopbridge/internal/domain"

	"github.com/gin-gonic/gin"
)

type markupRequest struct {
	MarkupPercent *int64 `json:"markupPercent"`
}

type paymentView struct {
	Configured bool                  `json:"configured"`
	Config     *domain.PaymentConfig `json:"config,omitempty"`
}

func (h *handlers) getMarkup(c *gin.Context) {
	markup, err := h.deps.Pricing.Markup(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"markupPercent": markup})
}

func (h *handlers) setMarkup(c *gin.Context) {
	var req markupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MarkupPercent == nil {
		badRequest(c, "markupPercent required")
		return
	}
	st, err := h.deps.Pricing.SetMarkup(c.Request.Context(), principal(c), *req.MarkupPercent)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// getPayment tells anyone whether checkout is available; admins also see
// the stored configuration with the secret masked.
func (h *handlers) getPayment(c *gin.Context) {
	ctx := c.Request.Context()
	configured, err := h.deps.Checkout.IsConfigured(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	view := paymentView{Configured: configured}
	if configured && principal(c) != "" {
		cfg, err := h.deps.Checkout.PaymentConfig(ctx, principal(c))
		switch {
		case err == nil:
			view.Config = cfg
		case !errors.Is(err, domain.ErrUnauthorized):
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) setPayment(c *gin.Context) {
	var req domain.PaymentConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	if _, err := h.deps.Checkout.Configure(c.Request.Context(), principal(c), req); err != nil {
		writeError(c, err)
		return
	}
	cfg, err := h.deps.Checkout.PaymentConfig(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentView{Configured: true, Config: cfg})
}
