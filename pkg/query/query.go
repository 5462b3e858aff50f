package query

import (
	"fmt"
	"sort"
)

// Query is a complete lookup: which documents, in what order, which window.
type Query struct {
	Filter Filter
	Sort   Sort
	Page   Page
}

// InvalidParamError reports a request parameter the builders cannot use.
type InvalidParamError struct {
	Param   string
	Message string
}

func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Message)
}

// Apply evaluates q over docs in memory, returning the page window and the
// total number of matches before paging.
func Apply[T Document](docs []T, q Query) ([]T, int64) {
	matched := make([]T, 0, len(docs))
	for _, d := range docs {
		if q.Filter == nil || q.Filter.Match(d) {
			matched = append(matched, d)
		}
	}
	if q.Sort.Field != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			return q.Sort.Less(matched[i], matched[j])
		})
	}

	total := int64(len(matched))
	if q.Page.Size == 0 {
		return matched, total
	}
	start := q.Page.Skip()
	if start < 0 || start >= total {
		return []T{}, total
	}
	end := start + q.Page.Limit()
	if end > total {
		end = total
	}
	return matched[start:end], total
}
