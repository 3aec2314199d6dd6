package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-backend/internal/cache"
	"storefront-backend/internal/config"
	"storefront-backend/internal/db"
	"storefront-backend/internal/gateway"
	"storefront-backend/internal/httpserver"
	"storefront-backend/internal/pricing"
	cartrepo "storefront-backend/internal/repository/cart"
	couponrepo "storefront-backend/internal/repository/coupon"
	orderrepo "storefront-backend/internal/repository/order"
	paymentrepo "storefront-backend/internal/repository/payment"
	productrepo "storefront-backend/internal/repository/product"
	anonymoussvc "storefront-backend/internal/service/anonymous"
	cartsvc "storefront-backend/internal/service/cart"
	ordersvc "storefront-backend/internal/service/order"
	paymentsvc "storefront-backend/internal/service/payment"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	var cartCache cache.CartCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Printf("redis unreachable, running without cart cache: %v", err)
		} else {
			cartCache = cache.NewRedisCache(client)
		}
		defer client.Close()
	}

	engine := pricing.NewEngine(pricing.Config{
		TaxRate:               cfg.TaxRate,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShippingFee:       cfg.FlatShippingFee,
	})

	productRepo := productrepo.NewPostgres(dbpool, logger)
	couponRepo := couponrepo.NewPostgres(dbpool)
	cartRepo := cartrepo.NewPostgres(dbpool, engine, cfg.CartTTL, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	paymentRepo := paymentrepo.NewPostgres(dbpool, logger)

	cartService := cartsvc.New(cartRepo, productRepo, couponRepo, cartCache, logger)
	orderService := ordersvc.New(orderRepo, productRepo, couponRepo, cartService, engine, logger)
	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewaySecret, logger)
	paymentService := paymentsvc.New(paymentRepo, orderRepo, cartService, gatewayClient, cfg.Currency, cfg.GatewayKeyID, logger)
	anonymousService := anonymoussvc.New()

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CartSvc:    cartService,
		OrderSvc:   orderService,
		PaymentSvc: paymentService,
		Sessions:   anonymousService,
		AdminKey:   cfg.AdminKey,
		SessionTTL: anonymousService.TTL(),
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	go sweepExpiredCarts(sweepCtx, cartRepo, cfg.CartSweepInterval, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// sweepExpiredCarts drops abandoned carts on a fixed interval until ctx ends.
func sweepExpiredCarts(ctx context.Context, repo cartrepo.Repository, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx, time.Now().UTC())
			if err != nil {
				logger.Printf("cart sweep: %v", err)
				continue
			}
			if n > 0 {
				logger.Printf("cart sweep: purged %d expired carts", n)
			}
		}
	}
}
