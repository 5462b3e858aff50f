// Package query holds the storage-neutral description of catalog and order
// lookups: a filter expression, a sort key and a page window. Filters render
// to BSON for the Mongo repositories and evaluate directly against documents
// for the in-memory ones, so both backends agree on semantics.
package query

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is anything that can report the values stored under a field path.
// Array fields report one value per element.
type Document interface {
	Lookup(path string) []any
}

// Filter is a closed set of predicate kinds: Eq, Contains, Range, NotEmpty,
// AnyOf and AllOf.
type Filter interface {
	BSON() bson.D
	Match(doc Document) bool
	filter()
}

// Eq matches when any value at Field equals Value.
type Eq struct {
	Field string
	Value any
}

// Contains is a case-insensitive substring match. Substr is literal text,
// not a pattern.
type Contains struct {
	Field  string
	Substr string
}

// Range bounds a numeric field; both ends are inclusive and either may be nil.
type Range struct {
	Field    string
	Min, Max *float64
}

// NotEmpty matches documents whose array field has at least one element.
type NotEmpty struct {
	Field string
}

// AnyOf is a disjunction. An empty AnyOf matches nothing.
type AnyOf []Filter

// AllOf is a conjunction. An empty AllOf matches everything.
type AllOf []Filter

func (Eq) filter()       {}
func (Contains) filter() {}
func (Range) filter()    {}
func (NotEmpty) filter() {}
func (AnyOf) filter()    {}
func (AllOf) filter()    {}

func (f Eq) BSON() bson.D {
	return bson.D{{Key: f.Field, Value: f.Value}}
}

func (f Eq) Match(doc Document) bool {
	for _, v := range doc.Lookup(f.Field) {
		if v == f.Value {
			return true
		}
	}
	return false
}

func (f Contains) BSON() bson.D {
	return bson.D{{Key: f.Field, Value: primitive.Regex{Pattern: regexp.QuoteMeta(f.Substr), Options: "i"}}}
}

func (f Contains) Match(doc Document) bool {
	needle := strings.ToLower(f.Substr)
	for _, v := range doc.Lookup(f.Field) {
		s, ok := v.(string)
		if ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func (f Range) BSON() bson.D {
	bounds := bson.D{}
	if f.Min != nil {
		bounds = append(bounds, bson.E{Key: "$gte", Value: *f.Min})
	}
	if f.Max != nil {
		bounds = append(bounds, bson.E{Key: "$lte", Value: *f.Max})
	}
	return bson.D{{Key: f.Field, Value: bounds}}
}

func (f Range) Match(doc Document) bool {
	for _, v := range doc.Lookup(f.Field) {
		n, ok := toFloat(v)
		if !ok {
			continue
		}
		if f.Min != nil && n < *f.Min {
			continue
		}
		if f.Max != nil && n > *f.Max {
			continue
		}
		return true
	}
	return false
}

func (f NotEmpty) BSON() bson.D {
	return bson.D{{Key: f.Field, Value: bson.D{
		{Key: "$exists", Value: true},
		{Key: "$ne", Value: bson.A{}},
	}}}
}

func (f NotEmpty) Match(doc Document) bool {
	return len(doc.Lookup(f.Field)) > 0
}

func (f AnyOf) BSON() bson.D {
	if len(f) == 0 {
		return bson.D{{Key: "$expr", Value: false}}
	}
	return bson.D{{Key: "$or", Value: renderAll(f)}}
}

func (f AnyOf) Match(doc Document) bool {
	for _, c := range f {
		if c.Match(doc) {
			return true
		}
	}
	return false
}

func (f AllOf) BSON() bson.D {
	switch len(f) {
	case 0:
		return bson.D{}
	case 1:
		return f[0].BSON()
	}
	return bson.D{{Key: "$and", Value: renderAll(f)}}
}

func (f AllOf) Match(doc Document) bool {
	for _, c := range f {
		if !c.Match(doc) {
			return false
		}
	}
	return true
}

func renderAll(fs []Filter) bson.A {
	out := make(bson.A, 0, len(fs))
	for _, c := range fs {
		out = append(out, c.BSON())
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
