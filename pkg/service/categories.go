package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/events"
	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/query"
	"github.com/example/maktabati/pkg/repository"
)

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoryService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	events     events.Publisher
	logger     *zap.Logger
}

func NewCategoryService(categories repository.CategoryRepository, products repository.ProductRepository, pub events.Publisher, logger *zap.Logger) *CategoryService {
	return &CategoryService{categories: categories, products: products, events: pub, logger: logger}
}

// List returns every category sorted by name.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	oid, err := parseID(id, ErrCategoryNotFound)
	if err != nil {
		return nil, err
	}
	c, err := s.categories.GetByID(ctx, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput, actor string) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "category name is required")
	}
	if err := s.ensureUniqueName(ctx, name, ""); err != nil {
		return nil, err
	}

	c := &models.Category{Name: name, Description: strings.TrimSpace(in.Description)}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.events.Publish(events.CatalogChanged{
		Entity: events.EntityCategory, Action: events.ActionCreated,
		ID: c.ID.Hex(), Name: c.Name, Actor: actor,
	})
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput, actor string) (*models.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "category name is required")
	}
	if err := s.ensureUniqueName(ctx, name, c.ID.Hex()); err != nil {
		return nil, err
	}

	c.Name = name
	c.Description = strings.TrimSpace(in.Description)
	if err := s.categories.Update(ctx, c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update category: %w", err)
	}

	s.events.Publish(events.CatalogChanged{
		Entity: events.EntityCategory, Action: events.ActionUpdated,
		ID: c.ID.Hex(), Name: c.Name, Actor: actor,
	})
	return c, nil
}

// Delete refuses to remove a category that any product still references.
func (s *CategoryService) Delete(ctx context.Context, id string, actor string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	n, err := s.products.Count(ctx, query.Eq{Field: "category", Value: c.ID})
	if err != nil {
		return fmt.Errorf("count products in category: %w", err)
	}
	if n > 0 {
		return ErrCategoryInUse
	}

	if err := s.categories.Delete(ctx, c.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}

	s.events.Publish(events.CatalogChanged{
		Entity: events.EntityCategory, Action: events.ActionDeleted,
		ID: c.ID.Hex(), Name: c.Name, Actor: actor,
	})
	return nil
}

// ensureUniqueName compares names case-insensitively, ignoring selfID.
func (s *CategoryService) ensureUniqueName(ctx context.Context, name, selfID string) error {
	existing, err := s.categories.FindByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if existing.ID.Hex() == selfID {
		return nil
	}
	return ErrCategoryExists
}
