package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	formprompt "github.com/goliatone/go-formprompt"
	"github.com/goliatone/go-formprompt/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr       string
		catalogDir string
		storeDSN   string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the forms, prompt and session API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("catalog-dir") {
				a.cfg.Catalog.Dir = catalogDir
				a.cfg.Catalog.URL = ""
			}
			if cmd.Flags().Changed("sqlite") {
				a.cfg.Store.Driver = "sqlite"
				a.cfg.Store.DSN = storeDSN
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.serve(cmd)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&catalogDir, "catalog-dir", "", "directory of YAML/JSON base forms")
	cmd.Flags().StringVar(&storeDSN, "sqlite", "", "persist submitted forms in this SQLite database")
	return cmd
}

func (a *app) serve(cmd *cobra.Command) error {
	ctx := cmd.Context()

	fetcher, cats, err := formprompt.NewFetcher(a.cfg.Catalog)
	if err != nil {
		return err
	}
	proposer := a.proposer
	if proposer == nil {
		proposer, err = formprompt.NewProposer(ctx, a.cfg, a.logger)
		if err != nil {
			return err
		}
	}
	kv := a.kv
	if kv == nil {
		opened, closer, err := formprompt.OpenStore(ctx, a.cfg.Store)
		if err != nil {
			return err
		}
		defer closer.Close()
		kv = opened
	}
	manager, err := formprompt.NewManager(a.cfg, fetcher, proposer, a.logger)
	if err != nil {
		return err
	}

	srv, err := server.New(fetcher, proposer, manager,
		server.WithLogger(a.logger),
		server.WithStore(kv),
		server.WithCategories(cats),
	)
	if err != nil {
		return err
	}

	a.logger.Info("starting",
		zap.String("addr", a.cfg.Server.Addr),
		zap.String("proposer", a.cfg.Proposer.Backend),
		zap.String("policy", string(a.cfg.MergePolicy())),
		zap.String("store", a.cfg.Store.Driver),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, a.cfg.Server)
	})
	g.Go(func() error {
		return manager.Janitor(gctx, a.cfg.Sessions.CleanupInterval, a.cfg.Sessions.MaxIdle)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
