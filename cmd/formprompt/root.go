package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-formprompt/internal/config"
	"github.com/goliatone/go-formprompt/pkg/fillin"
	"github.com/goliatone/go-formprompt/pkg/proposal"
	"github.com/goliatone/go-formprompt/pkg/store"
)

// app carries state shared by subcommands. The driver, proposer and kv fields
// replace the configured collaborators when set.
type app struct {
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
	out    io.Writer

	driver   fillin.PromptDriver
	proposer proposal.Proposer
	kv       store.KV
}

func newApp() *app {
	return &app{out: os.Stdout}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "formprompt",
		Short:         "Grow category forms from natural-language prompts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			if a.logger == nil {
				zcfg := zap.NewProductionConfig()
				if a.verbose {
					zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
				}
				logger, err := zcfg.Build()
				if err != nil {
					return fmt.Errorf("failed to initialize logger: %w", err)
				}
				a.logger = logger
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(a.out)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(a),
		newEditCmd(a),
		newFillCmd(a),
		newCategoriesCmd(a),
	)
	return root
}

func (a *app) promptDriver() fillin.PromptDriver {
	if a.driver != nil {
		return a.driver
	}
	return fillin.NewSurveyDriver()
}
