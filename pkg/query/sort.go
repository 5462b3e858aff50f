package query

import (
	"bytes"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Direction int

const (
	Asc  Direction = 1
	Desc Direction = -1
)

// ParseDirection maps "asc" to Asc; anything else, including "", is Desc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "asc") {
		return Asc
	}
	return Desc
}

type Sort struct {
	Field     string
	Direction Direction
}

// BSON adds _id as a tie breaker so page windows are stable.
func (s Sort) BSON() bson.D {
	d := bson.D{{Key: s.Field, Value: int(s.Direction)}}
	if s.Field != "_id" {
		d = append(d, bson.E{Key: "_id", Value: int(s.Direction)})
	}
	return d
}

// Less orders a before b under s, using _id to break ties.
func (s Sort) Less(a, b Document) bool {
	c := compareFirst(a.Lookup(s.Field), b.Lookup(s.Field))
	if c == 0 && s.Field != "_id" {
		c = compareFirst(a.Lookup("_id"), b.Lookup("_id"))
	}
	if s.Direction == Desc {
		return c > 0
	}
	return c < 0
}

func compareFirst(a, b []any) int {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	case len(a) == 0:
		return -1
	case len(b) == 0:
		return 1
	}
	return compare(a[0], b[0])
}

func compare(a, b any) int {
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	case primitive.ObjectID:
		if y, ok := b.(primitive.ObjectID); ok {
			return bytes.Compare(x[:], y[:])
		}
	}
	return 0
}
