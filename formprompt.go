// Package formprompt wires the form-merge components together from a Config.
// Callers that only need one piece can use the pkg/ packages directly.
package formprompt

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formprompt/internal/config"
	"github.com/goliatone/go-formprompt/internal/instructions"
	"github.com/goliatone/go-formprompt/pkg/catalog"
	"github.com/goliatone/go-formprompt/pkg/merge"
	"github.com/goliatone/go-formprompt/pkg/model"
	"github.com/goliatone/go-formprompt/pkg/proposal"
	"github.com/goliatone/go-formprompt/pkg/proposal/gemini"
	"github.com/goliatone/go-formprompt/pkg/proposal/openai"
	"github.com/goliatone/go-formprompt/pkg/proposal/remote"
	"github.com/goliatone/go-formprompt/pkg/session"
	"github.com/goliatone/go-formprompt/pkg/store"
)

// Field aliases model.Field for callers importing only the root package.
type Field = model.Field

// Form aliases model.Form.
type Form = model.Form

// Policy aliases merge.Policy.
type Policy = merge.Policy

// Config aliases the runtime configuration.
type Config = config.Config

// NewInstructions builds the prompt builder for the configured language and
// merge policy.
func NewInstructions(cfg Config) (*instructions.Builder, error) {
	return instructions.New(
		instructions.WithLanguage(cfg.Proposer.Language),
		instructions.WithPolicy(cfg.MergePolicy()),
	)
}

// NewRegistry registers every proposal backend whose credentials are present
// in cfg. Backends without credentials are skipped, not reported.
func NewRegistry(ctx context.Context, cfg Config, logger *zap.Logger) (*proposal.Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	builder, err := NewInstructions(cfg)
	if err != nil {
		return nil, fmt.Errorf("formprompt: %w", err)
	}

	registry := proposal.NewRegistry()
	pc := cfg.Proposer

	if pc.OpenAI.APIKey != "" {
		p, err := openai.New(pc.OpenAI.APIKey,
			openai.WithModel(pc.OpenAI.Model),
			openai.WithBaseURL(pc.OpenAI.BaseURL),
			openai.WithTemperature(pc.Temperature),
			openai.WithMaxTokens(pc.MaxTokens),
			openai.WithInstructions(builder),
			openai.WithLogger(logger.Named(openai.Name)),
		)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(openai.Name, p); err != nil {
			return nil, err
		}
	}

	if pc.Gemini.APIKey != "" {
		p, err := gemini.New(ctx, pc.Gemini.APIKey,
			gemini.WithModel(pc.Gemini.Model),
			gemini.WithTemperature(pc.Temperature),
			gemini.WithMaxTokens(int32(pc.MaxTokens)),
			gemini.WithInstructions(builder),
			gemini.WithLogger(logger.Named(gemini.Name)),
		)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(gemini.Name, p); err != nil {
			return nil, err
		}
	}

	if pc.Remote.URL != "" {
		p, err := remote.New(pc.Remote.URL,
			remote.WithTimeout(pc.Remote.Timeout),
			remote.WithLogger(logger.Named(remote.Name)),
		)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(remote.Name, p); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// NewProposer returns the backend named by cfg.Proposer.Backend.
func NewProposer(ctx context.Context, cfg Config, logger *zap.Logger) (proposal.Proposer, error) {
	registry, err := NewRegistry(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	backend := cfg.Proposer.Backend
	if !registry.Has(backend) {
		return nil, fmt.Errorf("formprompt: proposer %q is not configured (available: %s)", backend, available(registry))
	}
	return registry.Get(backend)
}

func available(registry *proposal.Registry) string {
	names := registry.List()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// NewFetcher resolves the base-form source. The category list is nil when
// forms come from a remote server.
func NewFetcher(cfg config.CatalogConfig) (catalog.Fetcher, []catalog.Category, error) {
	switch {
	case cfg.URL != "":
		fetcher, err := catalog.NewHTTPFetcher(cfg.URL)
		if err != nil {
			return nil, nil, err
		}
		return fetcher, nil, nil
	case cfg.Dir != "":
		cat, err := catalog.LoadFS(os.DirFS(cfg.Dir))
		if err != nil {
			return nil, nil, err
		}
		return cat, cat.Categories(), nil
	default:
		cat, err := catalog.Default()
		if err != nil {
			return nil, nil, err
		}
		return cat, cat.Categories(), nil
	}
}

// OpenStore opens the configured key-value store. The returned closer is
// always non-nil.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.KV, io.Closer, error) {
	switch cfg.Driver {
	case config.StoreSQLite:
		db, err := store.OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case config.StoreMemory, "":
		return store.NewMemory(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("formprompt: unknown store driver %q", cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewManager builds a session manager that merges with the configured policy.
func NewManager(cfg Config, fetcher catalog.Fetcher, proposer proposal.Proposer, logger *zap.Logger) (*session.Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := merge.New(merge.WithPolicy(cfg.MergePolicy()))
	return session.NewManager(fetcher, proposer,
		session.WithManagerLogger(logger),
		session.WithSessionOptions(
			session.WithEngine(engine),
			session.WithLogger(logger),
		),
	)
}
