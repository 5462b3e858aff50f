package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/query"
	"github.com/example/maktabati/pkg/repository"
)

type sampleProduct struct {
	name        string
	description string
	price       float64
	category    string
	stock       int
	image       string
	tags        []string
}

var sampleCategories = []models.Category{
	{Name: "Textbooks", Description: "Academic textbooks for all subjects"},
	{Name: "Notebooks", Description: "Notebooks and writing pads"},
	{Name: "Stationery", Description: "Pens, pencils, and writing supplies"},
	{Name: "Art Supplies", Description: "Drawing and painting materials"},
	{Name: "Calculators", Description: "Scientific and graphing calculators"},
	{Name: "Bags & Cases", Description: "Backpacks and pencil cases"},
}

var sampleProducts = []sampleProduct{
	{
		name:        "Mathematics Textbook - Algebra",
		description: "Comprehensive algebra textbook for high school students with solved examples and practice problems.",
		price:       45.99, category: "Textbooks", stock: 25,
		image: "https://images.unsplash.com/photo-1544947950-fa07a98d237f?w=400&h=400&fit=crop",
		tags:  []string{"math", "school"},
	},
	{
		name:        "Scientific Calculator",
		description: "Advanced scientific calculator with graphing capabilities and 2-line display.",
		price:       89.99, category: "Calculators", stock: 15,
		image: "https://images.unsplash.com/photo-1572177812156-58036aae439c?w=400&h=400&fit=crop",
		tags:  []string{"math", "exam"},
	},
	{
		name:        "Premium Notebook Set",
		description: "Set of 5 premium spiral notebooks with 200 pages each, perfect for note-taking.",
		price:       24.99, category: "Notebooks", stock: 40,
		image: "https://images.unsplash.com/photo-1531346878377-a5be20888e57?w=400&h=400&fit=crop",
		tags:  []string{"school", "writing"},
	},
	{
		name:        "Art Supply Kit",
		description: "Complete art supply kit including colored pencils, markers, sketchbook, and paints.",
		price:       67.99, category: "Art Supplies", stock: 12,
		image: "https://images.unsplash.com/photo-1513475382585-d06e58bcb0e0?w=400&h=400&fit=crop",
		tags:  []string{"art", "drawing"},
	},
	{
		name:        "School Backpack",
		description: "Durable waterproof backpack with multiple compartments for books and supplies.",
		price:       39.99, category: "Bags & Cases", stock: 30,
		image: "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=400&h=400&fit=crop",
		tags:  []string{"school", "bags"},
	},
	{
		name:        "Mechanical Pencil Set",
		description: "Professional mechanical pencil set with 0.5mm and 0.7mm leads and erasers.",
		price:       18.99, category: "Stationery", stock: 60,
		image: "https://images.unsplash.com/photo-1554224155-6726b3ff858f?w=400&h=400&fit=crop",
		tags:  []string{"writing", "school"},
	},
}

type SeedResult struct {
	CategoriesCreated int `json:"categoriesCreated"`
	ProductsCreated   int `json:"productsCreated"`
}

type SeedService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	logger     *zap.Logger
}

func NewSeedService(categories repository.CategoryRepository, products repository.ProductRepository, logger *zap.Logger) *SeedService {
	return &SeedService{categories: categories, products: products, logger: logger}
}

// Seed inserts the sample catalog. Categories and products that already
// exist by name are left alone, so running it twice creates nothing new.
func (s *SeedService) Seed(ctx context.Context) (*SeedResult, error) {
	var res SeedResult
	byName := make(map[string]*models.Category, len(sampleCategories))

	for _, sample := range sampleCategories {
		c, err := s.categories.FindByName(ctx, sample.Name)
		if errors.Is(err, repository.ErrNotFound) {
			c = &models.Category{Name: sample.Name, Description: sample.Description}
			if err := s.categories.Create(ctx, c); err != nil {
				return nil, fmt.Errorf("seed category %s: %w", sample.Name, err)
			}
			res.CategoriesCreated++
		} else if err != nil {
			return nil, fmt.Errorf("find category %s: %w", sample.Name, err)
		}
		byName[sample.Name] = c
	}

	for _, sp := range sampleProducts {
		cat := byName[sp.category]
		n, err := s.products.Count(ctx, query.Eq{Field: "name", Value: sp.name})
		if err != nil {
			return nil, fmt.Errorf("find product %s: %w", sp.name, err)
		}
		if n > 0 {
			continue
		}
		p := &models.Product{
			Name:        sp.name,
			Description: sp.description,
			Price:       sp.price,
			CategoryID:  cat.ID,
			Images:      []string{sp.image},
			Stock:       sp.stock,
			IsActive:    true,
			Tags:        sp.tags,
		}
		if err := s.products.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("seed product %s: %w", sp.name, err)
		}
		res.ProductsCreated++
	}

	s.logger.Info("Sample data seeded",
		zap.Int("categories_created", res.CategoriesCreated),
		zap.Int("products_created", res.ProductsCreated))
	return &res, nil
}
