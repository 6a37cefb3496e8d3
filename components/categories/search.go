package categories

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formprompt/pkg/catalog"
)

// Option is one selector entry.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func optionOf(category catalog.Category) Option {
	return Option{Value: category.Code, Label: category.Label}
}

// Search filters categories by query, case-insensitively, on the fields
// selected by o.Match. Categories whose code or label starts with the query
// rank first; ties keep code order. A blank query lists the first categories
// by code when o.ListOnEmpty is set.
func (o Options) Search(categories []catalog.Category, query string, limit int) []catalog.Category {
	limit = o.limit(limit)
	if limit == 0 {
		return nil
	}

	sorted := append([]catalog.Category{}, categories...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		if !o.ListOnEmpty {
			return nil
		}
		if len(sorted) > limit {
			sorted = sorted[:limit]
		}
		return sorted
	}

	var prefixed, contained []catalog.Category
	for _, category := range sorted {
		switch o.rank(category, q) {
		case rankPrefix:
			prefixed = append(prefixed, category)
		case rankContains:
			contained = append(contained, category)
		}
	}

	out := append(prefixed, contained...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type rank int

const (
	rankNone rank = iota
	rankContains
	rankPrefix
)

func (o Options) rank(category catalog.Category, q string) rank {
	best := rankNone
	consider := func(text string) {
		text = strings.ToLower(text)
		switch {
		case strings.HasPrefix(text, q):
			best = rankPrefix
		case best == rankNone && strings.Contains(text, q):
			best = rankContains
		}
	}
	if o.Match&MatchCode != 0 {
		consider(category.Code)
	}
	if o.Match&MatchLabel != 0 {
		consider(category.Label)
	}
	return best
}
