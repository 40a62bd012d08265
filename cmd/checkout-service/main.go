package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/soko-commerce/checkout-service/internal/cart"
	"github.com/soko-commerce/checkout-service/internal/checkout"
	"github.com/soko-commerce/checkout-service/internal/clients"
	"github.com/soko-commerce/checkout-service/internal/config"
	"github.com/soko-commerce/checkout-service/internal/db"
	"github.com/soko-commerce/checkout-service/internal/events"
	"github.com/soko-commerce/checkout-service/internal/httpapi"
	"github.com/soko-commerce/checkout-service/internal/order"
	"github.com/soko-commerce/checkout-service/internal/payment"
	"github.com/soko-commerce/checkout-service/internal/shipping"
	"github.com/soko-commerce/checkout-service/internal/vendor"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	if err := db.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rabbitConn, err := events.Dial(cfg.RabbitURL)
	if err != nil {
		logger.Fatal("connect to rabbitmq", zap.Error(err))
	}
	defer rabbitConn.Close()

	publisher, err := events.NewPublisher(rabbitConn, events.NewSequenceRepository(pool))
	if err != nil {
		logger.Fatal("create event publisher", zap.Error(err))
	}

	provider, err := payment.NewStripeProvider(cfg.StripeAPIKey, logger)
	if err != nil {
		logger.Fatal("create stripe provider", zap.Error(err))
	}

	upstreamHTTP := &http.Client{Timeout: cfg.UpstreamTimeout}

	shippingClient, err := clients.NewClient("shipping-service", cfg.ShippingURL, upstreamHTTP)
	if err != nil {
		logger.Fatal("create shipping client", zap.Error(err))
	}
	vendorClient, err := clients.NewClient("vendor-service", cfg.VendorURL, upstreamHTTP)
	if err != nil {
		logger.Fatal("create vendor client", zap.Error(err))
	}

	cartRepo := cart.NewPostgresRepository(pool)
	sessionRepo := checkout.NewPostgresSessionRepository(pool)
	orderRepo := order.NewPostgresRepository(pool)
	vendors := vendor.NewClient(vendorClient)

	checkoutSvc := checkout.NewService(cartRepo, sessionRepo, orderRepo, provider, vendors, publisher, logger)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:           logger,
		Carts:            cartRepo,
		Orders:           orderRepo,
		Checkout:         checkoutSvc,
		Shipping:         shipping.NewResolver(shippingClient),
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("checkout-service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Fatal("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("publisher close error", zap.Error(err))
	}
}
