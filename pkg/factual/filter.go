package factual

import (
	"encoding/json"
	"sort"
)

// Filter is a conjunction of row filters in the Factual filter language.
// It serializes as {"$and": [...]}.
type Filter struct {
	And []map[string]any
}

// MarshalJSON implements json.Marshaler.
func (f Filter) MarshalJSON() ([]byte, error) {
	and := f.And
	if and == nil {
		and = []map[string]any{}
	}
	return json.Marshal(map[string]any{"$and": and})
}

// CityFilter builds an equality filter for every key of query. Keys are
// emitted in sorted order so the request is deterministic.
func CityFilter(query map[string]any) Filter {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := Filter{And: make([]map[string]any, 0, len(keys)+1)}
	for _, k := range keys {
		f.And = append(f.And, map[string]any{k: map[string]any{"$eq": query[k]}})
	}
	return f
}

// WithCategories returns a copy of f that also requires category_ids to
// include any of ids.
func (f Filter) WithCategories(ids []int) Filter {
	and := make([]map[string]any, len(f.And), len(f.And)+1)
	copy(and, f.And)
	and = append(and, map[string]any{"category_ids": map[string]any{"$includes_any": ids}})
	return Filter{And: and}
}
