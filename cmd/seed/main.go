// Command seed loads the sample catalog into MongoDB and can bootstrap the
// first super admin account.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/config"
	"github.com/example/maktabati/pkg/repository"
	"github.com/example/maktabati/pkg/service"
)

func main() {
	configPath := flag.String("config", os.Getenv("MAKTABATI_CONFIG"), "path to the YAML config file")
	skipCatalog := flag.Bool("skip-catalog", false, "do not create sample categories and products")
	username := flag.String("admin-username", os.Getenv("MAKTABATI_ADMIN_USERNAME"), "super admin username")
	email := flag.String("admin-email", os.Getenv("MAKTABATI_ADMIN_EMAIL"), "super admin email")
	password := flag.String("admin-password", os.Getenv("MAKTABATI_ADMIN_PASSWORD"), "super admin password")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	if cfg.Storage.Driver != "mongo" {
		logger.Fatal("Seeding needs the mongo storage driver", zap.String("driver", cfg.Storage.Driver))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to mongodb", zap.Error(err))
	}
	defer mongoRepo.Close(context.Background())

	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to ensure indexes", zap.Error(err))
	}
	db := mongoRepo.Database()

	if !*skipCatalog {
		seeder := service.NewSeedService(repository.NewCategoryRepository(db), repository.NewProductRepository(db), logger)
		res, err := seeder.Seed(ctx)
		if err != nil {
			logger.Fatal("Seeding failed", zap.Error(err))
		}
		logger.Info("Catalog seeded",
			zap.Int("categories_created", res.CategoriesCreated),
			zap.Int("products_created", res.ProductsCreated))
	}

	if *email == "" {
		return
	}
	auth := service.NewAuthService(repository.NewAdminRepository(db), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	u, created, err := auth.Bootstrap(ctx, service.RegisterInput{Username: *username, Email: *email, Password: *password})
	if err != nil {
		logger.Fatal("Failed to create super admin", zap.Error(err))
	}
	if created {
		logger.Info("Super admin created", zap.String("email", u.Email))
	} else {
		logger.Info("Admin already exists", zap.String("email", u.Email), zap.String("role", string(u.Role)))
	}
}
