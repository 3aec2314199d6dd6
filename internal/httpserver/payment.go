package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront-backend/internal/domain"
	paymentsvc "storefront-backend/internal/service/payment"
)

type paymentHandlers struct {
	svc    PaymentService
	logger *log.Logger
}

type recordPaymentRequest struct {
	OrderID       string          `json:"orderId" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        string          `json:"status" binding:"required"`
	TransactionID string          `json:"transactionId" binding:"required"`
	FailureReason string          `json:"failureReason"`
}

type refundRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *paymentHandlers) createIntent(c *gin.Context) {
	result, err := h.svc.CreateIntent(c.Request.Context(), cartOwner(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *paymentHandlers) record(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "orderId, status and transactionId are required")
		return
	}
	payment, err := h.svc.Record(c.Request.Context(), paymentsvc.RecordInput{
		OrderID:       req.OrderID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        domain.PaymentStatus(req.Status),
		TransactionID: req.TransactionID,
		FailureReason: req.FailureReason,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *paymentHandlers) listByOrder(c *gin.Context) {
	payments, err := h.svc.ListByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (h *paymentHandlers) refund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		badRequest(c, "invalid refund payload")
		return
	}
	payment, err := h.svc.Refund(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
