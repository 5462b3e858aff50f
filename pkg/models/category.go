package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CategoryRef is the populated {id, name} view attached to products.
type CategoryRef struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

func (c *Category) Ref() *CategoryRef {
	return &CategoryRef{ID: c.ID, Name: c.Name}
}

func (c Category) Lookup(path string) []any {
	switch path {
	case "_id":
		return []any{c.ID}
	case "name":
		return []any{c.Name}
	case "description":
		return []any{c.Description}
	case "createdAt":
		return []any{c.CreatedAt}
	case "updatedAt":
		return []any{c.UpdatedAt}
	}
	return nil
}
