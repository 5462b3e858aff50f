package query

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var productSortFields = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"name":      true,
	"price":     true,
	"stock":     true,
}

// ProductParams are the optional knobs of the product list. The storefront
// always leaves IncludeInactive false.
type ProductParams struct {
	Search          string
	Category        string
	MinPrice        *float64
	MaxPrice        *float64
	SortBy          string
	SortOrder       string
	Page            int
	Limit           int
	IncludeInactive bool
}

// SearchTerms splits a search string on whitespace, dropping empty terms.
func SearchTerms(search string) []string {
	return strings.Fields(search)
}

// BuildProductQuery turns product list parameters into a Query.
//
// Search is split into terms; a product must match every term, and a term
// matches when it occurs in the name, the description or any tag. Category
// "all" or empty means no category filter. Price bounds are inclusive.
func BuildProductQuery(p ProductParams) (Query, error) {
	conds := AllOf{}

	if !p.IncludeInactive {
		conds = append(conds, Eq{Field: "isActive", Value: true})
	}

	if c := strings.TrimSpace(p.Category); c != "" && c != "all" {
		id, err := primitive.ObjectIDFromHex(c)
		if err != nil {
			return Query{}, &InvalidParamError{Param: "category", Message: "not a valid id"}
		}
		conds = append(conds, Eq{Field: "category", Value: id})
	}

	if p.MinPrice != nil || p.MaxPrice != nil {
		if (p.MinPrice != nil && *p.MinPrice < 0) || (p.MaxPrice != nil && *p.MaxPrice < 0) {
			return Query{}, &InvalidParamError{Param: "price", Message: "bounds must not be negative"}
		}
		conds = append(conds, Range{Field: "price", Min: p.MinPrice, Max: p.MaxPrice})
	}

	for _, term := range SearchTerms(p.Search) {
		conds = append(conds, AnyOf{
			Contains{Field: "name", Substr: term},
			Contains{Field: "description", Substr: term},
			Contains{Field: "tags", Substr: term},
		})
	}

	return Query{
		Filter: conds,
		Sort:   buildSort(p.SortBy, p.SortOrder, productSortFields),
		Page:   NewPage(p.Page, p.Limit),
	}, nil
}

// FeaturedProducts selects the newest active products that have images.
func FeaturedProducts(limit int) Query {
	return Query{
		Filter: AllOf{
			Eq{Field: "isActive", Value: true},
			NotEmpty{Field: "images"},
		},
		Sort: Sort{Field: "createdAt", Direction: Desc},
		Page: NewPage(1, limit),
	}
}
