package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/domain"
)

type cartHandlers struct {
	svc    CartService
	logger *log.Logger
}

type cartResponse struct {
	Cart *domain.Cart `json:"cart"`
}

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required"`
}

type applyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *cartHandlers) get(c *gin.Context) {
	cart, err := h.svc.Resolve(c.Request.Context(), cartOwner(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: cart})
}

func (h *cartHandlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	cart, err := h.svc.AddItem(c.Request.Context(), cartOwner(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: cart})
}

func (h *cartHandlers) updateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "productId and quantity are required")
		return
	}
	cart, err := h.svc.UpdateQuantity(c.Request.Context(), cartOwner(c), req.ProductID, *req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: cart})
}

// remove handles both DELETE /cart?productId=… (drop one line) and
// DELETE /cart?clear=true (empty the cart).
func (h *cartHandlers) remove(c *gin.Context) {
	owner := cartOwner(c)

	if productID := c.Query("productId"); productID != "" {
		cart, err := h.svc.RemoveItem(c.Request.Context(), owner, productID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse{Cart: cart})
		return
	}

	if c.Query("clear") != "true" {
		badRequest(c, "productId or clear=true is required")
		return
	}
	cart, err := h.svc.Clear(c.Request.Context(), owner)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: cart})
}

func (h *cartHandlers) applyCoupon(c *gin.Context) {
	var req applyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}
	cart, err := h.svc.ApplyCoupon(c.Request.Context(), cartOwner(c), req.Code)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: cart})
}

func (h *cartHandlers) removeCoupon(c *gin.Context) {
	cart, err := h.svc.RemoveCoupon(c.Request.Context(), cartOwner(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{Cart: cart})
}
