package categories

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formprompt/pkg/catalog"
)

// Source provides the categories offered by the selector. *catalog.Catalog
// satisfies it.
type Source interface {
	Categories() []catalog.Category
	Category(code string) (catalog.Category, bool)
}

var _ Source = (*catalog.Catalog)(nil)

// List is a fixed Source. Categories are reported ordered by code.
type List []catalog.Category

// Categories returns a copy of the list ordered by code.
func (l List) Categories() []catalog.Category {
	out := append([]catalog.Category{}, l...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Category looks up code in the list.
func (l List) Category(code string) (catalog.Category, bool) {
	code = strings.TrimSpace(code)
	for _, category := range l {
		if category.Code == code {
			return category, true
		}
	}
	return catalog.Category{}, false
}
