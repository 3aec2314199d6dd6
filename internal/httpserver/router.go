package httpserver

import (
	"errors"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.CartSvc == nil || deps.OrderSvc == nil || deps.PaymentSvc == nil || deps.Sessions == nil {
		return nil, errors.New("httpserver: missing service dependencies")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", customerHeader, adminHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	carts := &cartHandlers{svc: deps.CartSvc, logger: logger}
	orders := &orderHandlers{svc: deps.OrderSvc, logger: logger}
	payments := &paymentHandlers{svc: deps.PaymentSvc, logger: logger}

	sessionTTL := deps.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	owner := ownerMiddleware(deps.Sessions, int(sessionTTL.Seconds()), logger)
	admin := adminMiddleware(deps.AdminKey, logger)

	cart := router.Group("/cart", owner)
	{
		cart.GET("", carts.get)
		cart.POST("", carts.addItem)
		cart.PUT("", carts.updateItem)
		cart.DELETE("", carts.remove)
		cart.POST("/coupon", carts.applyCoupon)
		cart.DELETE("/coupon", carts.removeCoupon)
	}

	order := router.Group("/orders", owner)
	{
		order.POST("", orders.create)
		order.GET("", orders.list)
		order.GET("/:id", orders.get)
		order.PATCH("/:id", orders.patch)
	}

	pay := router.Group("/payments")
	{
		pay.POST("/create-order", owner, payments.createIntent)
		pay.POST("/record", admin, payments.record)
		pay.POST("/:id/refund", admin, payments.refund)
	}

	adm := router.Group("/admin", admin)
	{
		adm.PATCH("/orders/:id", orders.updateStatus)
		adm.GET("/orders/:id/payments", payments.listByOrder)
	}

	return router, nil
}
