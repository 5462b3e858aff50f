package query

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/maktabati/pkg/models"
)

var orderSortFields = map[string]bool{
	"createdAt":     true,
	"updatedAt":     true,
	"orderId":       true,
	"status":        true,
	"totalAmount":   true,
	"totalItems":    true,
	"customer.name": true,
	"customer.city": true,
}

// OrderParams are the optional knobs of the admin order list.
type OrderParams struct {
	Search    string
	Status    string
	Category  string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// BuildOrderQuery turns order list parameters into a Query. Search matches
// orderId, customer name or phone as a case-insensitive substring. Category
// matches orders holding at least one item from that category. The default
// order is newest first.
func BuildOrderQuery(p OrderParams) (Query, error) {
	conds := AllOf{}

	if s := strings.TrimSpace(p.Status); s != "" {
		if !models.OrderStatus(s).Valid() {
			return Query{}, &InvalidParamError{Param: "status", Message: "unknown order status " + s}
		}
		conds = append(conds, Eq{Field: "status", Value: s})
	}

	if c := strings.TrimSpace(p.Category); c != "" {
		id, err := primitive.ObjectIDFromHex(c)
		if err != nil {
			return Query{}, &InvalidParamError{Param: "category", Message: "not a valid id"}
		}
		conds = append(conds, Eq{Field: "items.categoryId", Value: id})
	}

	if s := strings.TrimSpace(p.Search); s != "" {
		conds = append(conds, AnyOf{
			Contains{Field: "orderId", Substr: s},
			Contains{Field: "customer.name", Substr: s},
			Contains{Field: "customer.phone", Substr: s},
		})
	}

	return Query{
		Filter: conds,
		Sort:   buildSort(p.SortBy, p.SortOrder, orderSortFields),
		Page:   NewPage(p.Page, p.Limit),
	}, nil
}

func buildSort(field, order string, allowed map[string]bool) Sort {
	if !allowed[field] {
		field = "createdAt"
	}
	return Sort{Field: field, Direction: ParseDirection(order)}
}
