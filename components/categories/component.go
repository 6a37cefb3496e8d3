package categories

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-formprompt/pkg/catalog"
)

// Component serves category search and lookup from a Source.
type Component struct {
	opts Options
}

// New builds a component. Without a Source the embedded catalog is loaded.
func New(fns ...OptionFn) (*Component, error) {
	opts := NewOptions(fns...)
	if opts.Source == nil {
		cat, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("categories: %w", err)
		}
		opts.Source = cat
	}
	return &Component{opts: opts}, nil
}

// Options returns the resolved configuration.
func (c *Component) Options() Options {
	return c.opts
}

// Search runs Options.Search over the component's source.
func (c *Component) Search(query string, limit int) []Option {
	results := c.opts.Search(c.opts.Source.Categories(), query, limit)
	out := make([]Option, 0, len(results))
	for _, category := range results {
		out = append(out, optionOf(category))
	}
	return out
}

// Routes returns a router serving GET / and GET /{code}. HEAD is answered
// by the GET handlers.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.GetHead)
	if c.opts.Guard != nil {
		r.Use(c.guard)
	}
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", http.StatusText(http.StatusMethodNotAllowed))
	})
	r.Get("/", c.list)
	r.Get("/{code}", c.get)
	return r
}

// Mount attaches Routes to r under pattern.
func (c *Component) Mount(r chi.Router, pattern string) error {
	if r == nil {
		return errors.New("categories: missing router")
	}
	pattern = "/" + strings.Trim(strings.TrimSpace(pattern), "/")
	r.Mount(pattern, c.Routes())
	return nil
}
