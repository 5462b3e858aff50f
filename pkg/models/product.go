package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	CategoryID  primitive.ObjectID `bson:"category" json:"categoryId"`
	Category    *CategoryRef       `bson:"-" json:"category,omitempty"`
	Images      []string           `bson:"images" json:"images"`
	Stock       int                `bson:"stock" json:"stock"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	Tags        []string           `bson:"tags" json:"tags"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Lookup exposes document fields by their stored path for in-memory query
// evaluation. Array fields yield one value per element.
func (p Product) Lookup(path string) []any {
	switch path {
	case "_id":
		return []any{p.ID}
	case "name":
		return []any{p.Name}
	case "description":
		return []any{p.Description}
	case "price":
		return []any{p.Price}
	case "category":
		return []any{p.CategoryID}
	case "stock":
		return []any{p.Stock}
	case "isActive":
		return []any{p.IsActive}
	case "images":
		return stringsToAny(p.Images)
	case "tags":
		return stringsToAny(p.Tags)
	case "createdAt":
		return []any{p.CreatedAt}
	case "updatedAt":
		return []any{p.UpdatedAt}
	}
	return nil
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
