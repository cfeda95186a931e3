package httpserver

import (
	"net/http"

	"shopbridge/internal/domain"
	"shopbridge/internal/service/catalog"
	"shopbridge/internal/service/checkout"

	"github.com/gin-gonic/gin"
)

// sessionRequest carries either priced items or catalog lines. Lines are
// priced from the catalog before the session is opened.
type sessionRequest struct {
	Items      []domain.ShoppingItem `json:"items"`
	Lines      []catalog.QuoteLine   `json:"lines"`
	SuccessURL string                `json:"successUrl"`
	CancelURL  string                `json:"cancelUrl"`
}

func (h *handlers) createSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	ctx := c.Request.Context()
	items := req.Items
	if len(req.Lines) > 0 {
		quoted, err := h.deps.Catalog.Quote(ctx, req.Lines)
		if err != nil {
			writeError(c, err)
			return
		}
		items = quoted.ShoppingItems("")
	}
	cs, err := h.deps.Checkout.CreateSession(ctx, principal(c), checkout.CreateSessionInput{
		Items:      items,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cs)
}

func (h *handlers) sessionStatus(c *gin.Context) {
	res, err := h.deps.Checkout.SessionStatusFor(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
