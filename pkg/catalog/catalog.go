package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formprompt/pkg/model"
)

// ErrNotFound is returned when no base form exists for a category code.
var ErrNotFound = errors.New("catalog: category not found")

// Category identifies a merchant category.
type Category struct {
	Code  string `json:"code" yaml:"code"`
	Label string `json:"label" yaml:"label"`
}

// Entry pairs a category with its base form.
type Entry struct {
	Category `yaml:",inline"`
	Form     model.Form `json:"form" yaml:"form"`
}

// Fetcher resolves a category code to its base form. Every returned field is
// locked.
type Fetcher interface {
	Fetch(ctx context.Context, code string) (model.Form, error)
}

// Catalog is an immutable in-memory set of base forms.
type Catalog struct {
	entries map[string]Entry
	codes   []string
}

var _ Fetcher = (*Catalog)(nil)

// New builds a catalog from entries, validating each one.
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, entry := range entries {
		if err := c.add(entry, "entries"); err != nil {
			return nil, err
		}
	}
	c.sort()
	return c, nil
}

func (c *Catalog) add(entry Entry, source string) error {
	normalized, err := normalizeEntry(entry, source)
	if err != nil {
		return err
	}
	if _, exists := c.entries[normalized.Code]; exists {
		return fmt.Errorf("catalog: duplicate category %q (%s)", normalized.Code, source)
	}
	c.entries[normalized.Code] = normalized
	c.codes = append(c.codes, normalized.Code)
	return nil
}

func (c *Catalog) sort() {
	sort.Strings(c.codes)
}

// Categories lists every category ordered by code.
func (c *Catalog) Categories() []Category {
	if c == nil {
		return nil
	}
	out := make([]Category, 0, len(c.codes))
	for _, code := range c.codes {
		out = append(out, c.entries[code].Category)
	}
	return out
}

// Len reports the number of categories.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.codes)
}

// Category looks up a category by code.
func (c *Catalog) Category(code string) (Category, bool) {
	if c == nil {
		return Category{}, false
	}
	entry, ok := c.entries[strings.TrimSpace(code)]
	return entry.Category, ok
}

// Fetch returns a copy of the base form for code with every field locked.
func (c *Catalog) Fetch(ctx context.Context, code string) (model.Form, error) {
	if err := ctx.Err(); err != nil {
		return model.Form{}, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return model.Form{}, fmt.Errorf("catalog: category code is required")
	}
	if c == nil {
		return model.Form{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	entry, ok := c.entries[code]
	if !ok {
		return model.Form{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return model.Form{ID: entry.Form.ID, Fields: model.LockAll(entry.Form.Fields)}, nil
}
