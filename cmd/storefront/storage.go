package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/cart"
	"github.com/example/maktabati/pkg/config"
	"github.com/example/maktabati/pkg/grpc"
	"github.com/example/maktabati/pkg/repository"
	"github.com/example/maktabati/pkg/repository/memory"
	"github.com/example/maktabati/pkg/service"
)

// backend is the persistence layer selected by storage.driver.
type backend struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	orders     repository.OrderRepository
	admins     repository.AdminRepository
	sequence   repository.SequenceRepository
	audit      repository.AuditRepository
	auditLog   repository.AuditLogReader
	carts      cart.Storage
	cache      service.ProductCache
	checks     []grpc.Check
	close      func(ctx context.Context)
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	if cfg.Storage.Driver == "memory" {
		logger.Warn("Using in-memory storage, data is lost on restart")
		audit := memory.NewAuditRepository(logger)
		return &backend{
			categories: memory.NewCategoryRepository(),
			products:   memory.NewProductRepository(),
			orders:     memory.NewOrderRepository(),
			admins:     memory.NewAdminRepository(),
			sequence:   memory.NewSequenceRepository(),
			audit:      audit,
			auditLog:   audit,
			carts:      memory.NewCartStorage(),
			close:      func(context.Context) {},
		}, nil
	}

	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	ictx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mongoRepo.EnsureIndexes(ictx); err != nil {
		_ = mongoRepo.Close(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("MongoDB connected", zap.String("database", cfg.MongoDB.Database))

	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	db := mongoRepo.Database()
	return &backend{
		categories: repository.NewCategoryRepository(db),
		products:   repository.NewProductRepository(db),
		orders:     repository.NewOrderRepository(db),
		admins:     repository.NewAdminRepository(db),
		sequence:   repository.NewSequenceRepository(db),
		audit:      mongoRepo,
		auditLog:   mongoRepo,
		carts:      repository.NewCartStorage(redisRepo, cfg.Cart.TTL),
		cache:      redisRepo,
		checks: []grpc.Check{
			{Name: "mongodb", Ping: mongoRepo.Ping},
			{Name: "redis", Ping: redisRepo.Ping},
		},
		close: func(ctx context.Context) {
			if err := redisRepo.Close(); err != nil {
				logger.Warn("Failed to close redis", zap.Error(err))
			}
			if err := mongoRepo.Close(ctx); err != nil {
				logger.Warn("Failed to close mongodb", zap.Error(err))
			}
		},
	}, nil
}
