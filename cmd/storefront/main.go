package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/maktabati/gateway"
	"github.com/example/maktabati/pkg/cart"
	"github.com/example/maktabati/pkg/checkout"
	"github.com/example/maktabati/pkg/config"
	"github.com/example/maktabati/pkg/discovery"
	"github.com/example/maktabati/pkg/events"
	"github.com/example/maktabati/pkg/grpc"
	"github.com/example/maktabati/pkg/media"
	"github.com/example/maktabati/pkg/service"
)

const sweepInterval = time.Minute

func main() {
	configPath := flag.String("config", os.Getenv("MAKTABATI_CONFIG"), "path to the YAML config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting storefront",
		zap.String("name", cfg.Server.Name),
		zap.String("address", cfg.Server.Addr()),
		zap.String("storage", cfg.Storage.Driver))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}

	bus, err := events.NewBus(cfg.Server.Name, store.audit, logger)
	if err != nil {
		logger.Fatal("Failed to start event bus", zap.Error(err))
	}

	orders := service.NewOrderService(store.orders, store.products, store.sequence, bus, logger)
	if err := orders.SyncSequence(ctx); err != nil {
		logger.Fatal("Failed to sync order sequence", zap.Error(err))
	}

	carts := cart.NewRegistry(store.carts, cfg.Cart.KeyPrefix, logger)
	go carts.Run(ctx, sweepInterval, cfg.Cart.IdleEvict)

	var uploader media.Uploader = media.Disabled{}
	if cfg.Media.Enabled() {
		cld, err := media.NewCloudinaryUploader(cfg.Media, logger)
		if err != nil {
			logger.Fatal("Failed to configure image hosting", zap.Error(err))
		}
		uploader = cld
	} else {
		logger.Warn("Image hosting credentials missing, uploads are disabled")
	}

	gw := gateway.NewGateway(cfg, logger, gateway.Services{
		Categories: service.NewCategoryService(store.categories, store.products, bus, logger),
		Products:   service.NewProductService(store.products, store.categories, store.cache, bus, logger),
		Orders:     orders,
		Auth:       service.NewAuthService(store.admins, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Stats:      service.NewStatsService(store.products, store.categories, store.orders),
		Seed:       service.NewSeedService(store.categories, store.products, logger),
		Audit:      service.NewAuditService(store.auditLog),
		Carts:      carts,
		Checkout:   checkout.NewSubmitter(orders, logger),
		Media:      uploader,
	})

	health := grpc.NewHealthServer(cfg.GRPC, cfg.Server.Name, logger, store.checks...)
	go health.Run(ctx)

	serverErr := make(chan error, 2)
	go func() {
		if err := health.Start(); err != nil {
			serverErr <- fmt.Errorf("health server: %w", err)
		}
	}()
	go func() {
		if err := gw.Start(); err != nil {
			serverErr <- fmt.Errorf("gateway: %w", err)
		}
	}()

	// Register in etcd when endpoints are configured
	var sd *discovery.ServiceDiscovery
	instance := &discovery.ServiceInstance{
		Name:     cfg.Server.Name,
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		GRPCPort: cfg.GRPC.Port,
	}
	if cfg.Etcd.Enabled() {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, logger)
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else if err := sd.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register service", zap.Error(err))
		} else if peers, err := sd.Discover(ctx, cfg.Server.Name); err != nil {
			logger.Warn("Failed to list registered instances", zap.Error(err))
		} else {
			// carts and SSE streams are per process, so several instances need sticky routing
			logger.Info("Service registered in etcd",
				zap.String("address", instance.Addr()),
				zap.Int("instances", len(peers)))
			if len(peers) > 1 {
				logger.Warn("Multiple storefront instances registered; route each cart id to one instance")
			}
		}
	}

	logger.Info("Storefront started successfully")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Error("Server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
		sd.Close()
	}
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown failed", zap.Error(err))
	}
	health.Stop()
	stop()
	bus.Close()
	store.close(shutdownCtx)

	logger.Info("Storefront stopped")
}
