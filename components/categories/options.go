package categories

import (
	"net/http"

	"github.com/goliatone/go-formprompt/pkg/catalog"
)

// MatchField selects what a query is compared against.
type MatchField uint8

const (
	MatchCode MatchField = 1 << iota
	MatchLabel

	MatchAll = MatchCode | MatchLabel
)

// GuardFunc authorises a request before any category is read.
type GuardFunc func(r *http.Request) error

// Options configures a Component.
type Options struct {
	// Source defaults to the embedded catalog.
	Source Source
	Match  MatchField

	DefaultLimit int
	MaxLimit     int
	// ListOnEmpty returns the first categories by code when q is blank.
	ListOnEmpty bool

	Guard GuardFunc
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		Match:        MatchAll,
		DefaultLimit: 50,
		MaxLimit:     200,
		ListOnEmpty:  true,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.Match&MatchAll == 0 {
		opts.Match = MatchAll
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.MaxLimit > 0 && opts.DefaultLimit > opts.MaxLimit {
		opts.DefaultLimit = opts.MaxLimit
	}
	return opts
}

// WithSource reads categories from src, typically the catalog serving forms.
func WithSource(src Source) OptionFn {
	return func(o *Options) {
		o.Source = src
	}
}

// WithCategories serves a fixed list.
func WithCategories(categories []catalog.Category) OptionFn {
	return func(o *Options) {
		if categories == nil {
			o.Source = nil
			return
		}
		o.Source = List(append([]catalog.Category{}, categories...))
	}
}

func WithMatch(fields MatchField) OptionFn {
	return func(o *Options) {
		o.Match = fields
	}
}

// WithLimits sets the page size used when limit is absent and the cap
// applied to any requested limit. A non-positive max disables the cap.
func WithLimits(defaultLimit, maxLimit int) OptionFn {
	return func(o *Options) {
		o.DefaultLimit = defaultLimit
		o.MaxLimit = maxLimit
	}
}

func WithListOnEmpty(enabled bool) OptionFn {
	return func(o *Options) {
		o.ListOnEmpty = enabled
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		o.Guard = guard
	}
}

func (o Options) limit(requested int) int {
	if requested < 0 {
		return 0
	}
	if requested == 0 {
		requested = o.DefaultLimit
	}
	if o.MaxLimit > 0 && requested > o.MaxLimit {
		return o.MaxLimit
	}
	return requested
}
