package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"shopbridge/internal/domain"
	"shopbridge/internal/service/order"

	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	Customer          *domain.CustomerInfo    `json:"customer"`
	Products          []domain.OrderedProduct `json:"products"`
	Total             int64                   `json:"total"`
	CheckoutSessionID string                  `json:"checkoutSessionId"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// createOrder answers 201 for a new order and 200 for a replay of one
// already recorded under the same session or idempotency key.
func (h *handlers) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	ctx := c.Request.Context()
	caller := principal(c)

	var customer domain.CustomerInfo
	if req.Customer != nil {
		customer = *req.Customer
	} else {
		info, err := h.deps.Profiles.CustomerInfo(ctx, caller)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			writeError(c, err)
			return
		}
		customer = info
	}

	o, created, err := h.deps.Orders.CreateOrder(ctx, caller, order.CreateOrderInput{
		Customer:          customer,
		Products:          req.Products,
		Total:             req.Total,
		CheckoutSessionID: req.CheckoutSessionID,
		IdempotencyKey:    c.GetHeader(idempotencyHeader),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, o)
}

func (h *handlers) myOrders(c *gin.Context) {
	orders, err := h.deps.Orders.MyOrders(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"results": orders, "total": len(orders)})
}

func (h *handlers) allOrders(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		badRequest(c, "invalid page")
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil {
		badRequest(c, "invalid pageSize")
		return
	}
	res, err := h.deps.Orders.AllOrders(c.Request.Context(), principal(c), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) getOrder(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	o, err := h.deps.Orders.GetOrder(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status required")
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	o, err := h.deps.Orders.UpdateOrderStatus(c.Request.Context(), principal(c), id, status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) updatePaymentStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status required")
		return
	}
	status, err := domain.ParsePaymentStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	o, err := h.deps.Orders.UpdatePaymentStatus(c.Request.Context(), principal(c), id, status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) updateNotes(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	o, err := h.deps.Orders.AddFulfillmentNotes(c.Request.Context(), principal(c), id, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
