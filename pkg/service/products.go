package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/events"
	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/query"
	"github.com/example/maktabati/pkg/repository"
)

const FeaturedLimit = 12

// ProductCache holds the public product detail view. The Redis repository
// implements it; a nil cache disables caching.
type ProductCache interface {
	CacheProduct(ctx context.Context, p *models.Product) error
	GetProductCache(ctx context.Context, id string) (*models.Product, error)
	InvalidateProduct(ctx context.Context, id string) error
}

type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
	Stock       int      `json:"stock"`
	IsActive    *bool    `json:"isActive"`
	Tags        []string `json:"tags"`
}

// ProductPatch carries only the fields a partial update touches.
type ProductPatch struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Category    *string   `json:"category"`
	Images      *[]string `json:"images"`
	Stock       *int      `json:"stock"`
	IsActive    *bool     `json:"isActive"`
	Tags        *[]string `json:"tags"`
}

type ProductPage struct {
	Products   []models.Product
	Pagination query.Pagination
}

type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	cache      ProductCache
	events     events.Publisher
	logger     *zap.Logger
}

func NewProductService(products repository.ProductRepository, categories repository.CategoryRepository, cache ProductCache, pub events.Publisher, logger *zap.Logger) *ProductService {
	return &ProductService{products: products, categories: categories, cache: cache, events: pub, logger: logger}
}

// List runs the storefront product search. Inactive products are never
// returned regardless of params.
func (s *ProductService) List(ctx context.Context, params query.ProductParams) (*ProductPage, error) {
	params.IncludeInactive = false
	return s.find(ctx, params)
}

// AdminList includes inactive products.
func (s *ProductService) AdminList(ctx context.Context, params query.ProductParams) (*ProductPage, error) {
	params.IncludeInactive = true
	return s.find(ctx, params)
}

func (s *ProductService) find(ctx context.Context, params query.ProductParams) (*ProductPage, error) {
	q, err := query.BuildProductQuery(params)
	if err != nil {
		return nil, fromQueryError(err)
	}
	products, total, err := s.products.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	if err := s.populate(ctx, products); err != nil {
		return nil, err
	}
	return &ProductPage{Products: products, Pagination: q.Page.Paginate(total)}, nil
}

func (s *ProductService) Featured(ctx context.Context) ([]models.Product, error) {
	products, _, err := s.products.Find(ctx, query.FeaturedProducts(FeaturedLimit))
	if err != nil {
		return nil, fmt.Errorf("find featured products: %w", err)
	}
	if err := s.populate(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// Get returns an active product for the storefront, served from the cache
// when possible. Cache failures only cost a database read.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	if s.cache != nil {
		p, err := s.cache.GetProductCache(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Product cache read failed", zap.String("product_id", id), zap.Error(err))
		}
	}

	p, err := s.AdminGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrProductNotFound
	}

	if s.cache != nil {
		if err := s.cache.CacheProduct(ctx, p); err != nil {
			s.logger.Warn("Product cache write failed", zap.String("product_id", id), zap.Error(err))
		}
	}
	return p, nil
}

func (s *ProductService) AdminGet(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.populateOne(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) load(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id, ErrProductNotFound)
	if err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput, actor string) (*models.Product, error) {
	p := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Images:      in.Images,
		Stock:       in.Stock,
		IsActive:    true,
		Tags:        cleanTags(in.Tags),
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	catID, err := s.resolveCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}
	p.CategoryID = catID

	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	if err := s.populateOne(ctx, p); err != nil {
		return nil, err
	}

	s.events.Publish(events.CatalogChanged{
		Entity: events.EntityProduct, Action: events.ActionCreated,
		ID: p.ID.Hex(), Name: p.Name, Actor: actor,
	})
	return p, nil
}

// Update applies a partial update; fields absent from patch keep their value.
func (s *ProductService) Update(ctx context.Context, id string, patch ProductPatch, actor string) (*models.Product, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		catID, err := s.resolveCategory(ctx, *patch.Category)
		if err != nil {
			return nil, err
		}
		p.CategoryID = catID
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.Tags != nil {
		p.Tags = cleanTags(*patch.Tags)
	}

	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx, p.ID.Hex())
	if err := s.populateOne(ctx, p); err != nil {
		return nil, err
	}

	s.events.Publish(events.CatalogChanged{
		Entity: events.EntityProduct, Action: events.ActionUpdated,
		ID: p.ID.Hex(), Name: p.Name, Actor: actor,
	})
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string, actor string) error {
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, p.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx, p.ID.Hex())

	s.events.Publish(events.CatalogChanged{
		Entity: events.EntityProduct, Action: events.ActionDeleted,
		ID: p.ID.Hex(), Name: p.Name, Actor: actor,
	})
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("Product cache invalidation failed", zap.String("product_id", id), zap.Error(err))
	}
}

func (s *ProductService) resolveCategory(ctx context.Context, id string) (primitive.ObjectID, error) {
	if strings.TrimSpace(id) == "" {
		return primitive.NilObjectID, invalid("category", "category is required")
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, invalid("category", "category does not exist")
	}
	if _, err := s.categories.GetByID(ctx, oid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return primitive.NilObjectID, invalid("category", "category does not exist")
		}
		return primitive.NilObjectID, fmt.Errorf("get category: %w", err)
	}
	return oid, nil
}

// populate attaches the {id, name} category reference to each product.
func (s *ProductService) populate(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	cats, err := s.categories.List(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	refs := make(map[primitive.ObjectID]*models.CategoryRef, len(cats))
	for i := range cats {
		refs[cats[i].ID] = cats[i].Ref()
	}
	for i := range products {
		products[i].Category = refs[products[i].CategoryID]
	}
	return nil
}

func (s *ProductService) populateOne(ctx context.Context, p *models.Product) error {
	c, err := s.categories.GetByID(ctx, p.CategoryID)
	if errors.Is(err, repository.ErrNotFound) {
		p.Category = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	p.Category = c.Ref()
	return nil
}

func validateProduct(p *models.Product) error {
	switch {
	case p.Name == "":
		return invalid("name", "product name is required")
	case p.Description == "":
		return invalid("description", "product description is required")
	case p.Price <= 0:
		return invalid("price", "price must be greater than 0")
	case p.Stock < 0:
		return invalid("stock", "stock cannot be negative")
	case len(p.Images) == 0:
		return invalid("images", "at least one image is required")
	}
	for _, img := range p.Images {
		if strings.TrimSpace(img) == "" {
			return invalid("images", "image URLs must not be empty")
		}
	}
	return nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
