package httpserver

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/domain"
	orderrepo "storefront-backend/internal/repository/order"
	ordersvc "storefront-backend/internal/service/order"
)

type orderHandlers struct {
	svc    OrderService
	logger *log.Logger
}

type createOrderRequest struct {
	Items           []ordersvc.ItemInput `json:"items" binding:"required"`
	CouponCode      string               `json:"couponCode"`
	PaymentMethod   string               `json:"paymentMethod"`
	ShippingAddress domain.Address       `json:"shippingAddress"`
	BillingAddress  *domain.Address      `json:"billingAddress"`
	Notes           string               `json:"notes"`
}

type patchOrderRequest struct {
	Action             string `json:"action" binding:"required"`
	CancellationReason string `json:"cancellationReason"`
}

type updateStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"trackingNumber"`
}

type orderListResponse struct {
	Orders []domain.Order `json:"orders"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

func (h *orderHandlers) create(c *gin.Context) {
	custID, ok := customerID(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid order payload")
		return
	}
	order, err := h.svc.Create(c.Request.Context(), ordersvc.CreateInput{
		CustomerID:      custID,
		Items:           req.Items,
		CouponCode:      req.CouponCode,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *orderHandlers) get(c *gin.Context) {
	custID, ok := customerID(c)
	if !ok {
		return
	}
	order, err := h.svc.Get(c.Request.Context(), custID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *orderHandlers) list(c *gin.Context) {
	custID, ok := customerID(c)
	if !ok {
		return
	}
	filter := orderrepo.ListFilter{
		Status: c.Query("status"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}
	orders, total, err := h.svc.List(c.Request.Context(), custID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, orderListResponse{Orders: orders, Total: total, Page: filter.Page, Limit: filter.Limit})
}

// patch applies shopper-initiated order actions. Cancellation is the only
// action shoppers may take on their own orders.
func (h *orderHandlers) patch(c *gin.Context) {
	custID, ok := customerID(c)
	if !ok {
		return
	}
	var req patchOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "action is required")
		return
	}
	if req.Action != "cancel" {
		badRequest(c, "unsupported action")
		return
	}
	order, err := h.svc.Cancel(c.Request.Context(), custID, c.Param("id"), req.CancellationReason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *orderHandlers) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	order, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status), req.TrackingNumber)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
