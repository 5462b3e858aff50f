package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/example/maktabati/pkg/query"
	"github.com/example/maktabati/pkg/repository"
)

type DashboardStats struct {
	TotalProducts   int64   `json:"totalProducts"`
	TotalCategories int64   `json:"totalCategories"`
	TotalOrders     int64   `json:"totalOrders"`
	TotalRevenue    float64 `json:"totalRevenue"`
}

type StatsService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	orders     repository.OrderRepository
}

func NewStatsService(products repository.ProductRepository, categories repository.CategoryRepository, orders repository.OrderRepository) *StatsService {
	return &StatsService{products: products, categories: categories, orders: orders}
}

// Dashboard counts active products and sums revenue over orders that were
// not cancelled.
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	products, err := s.products.Count(ctx, query.Eq{Field: "isActive", Value: true})
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	categories, err := s.categories.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	orders, err := s.orders.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	revenue, err := s.orders.Revenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}

	return &DashboardStats{
		TotalProducts:   products,
		TotalCategories: categories,
		TotalOrders:     orders,
		TotalRevenue:    decimal.NewFromFloat(revenue).Round(2).InexactFloat64(),
	}, nil
}
