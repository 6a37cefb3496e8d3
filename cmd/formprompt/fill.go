package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	formprompt "github.com/goliatone/go-formprompt"
	"github.com/goliatone/go-formprompt/pkg/fillin"
	"github.com/goliatone/go-formprompt/pkg/model"
	"github.com/goliatone/go-formprompt/pkg/store"
)

func newFillCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill in the submitted form and print the answers as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var form model.Form
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("fill: %w", err)
				}
				if err := json.Unmarshal(data, &form); err != nil {
					return fmt.Errorf("fill: decode %s: %w", file, err)
				}
			} else {
				kv := a.kv
				if kv == nil {
					opened, closer, err := formprompt.OpenStore(ctx, a.cfg.Store)
					if err != nil {
						return err
					}
					defer closer.Close()
					kv = opened
				}
				loaded, err := store.LoadForm(ctx, kv)
				if err != nil {
					return err
				}
				form = loaded
			}

			answers, err := fillin.New(fillin.WithPromptDriver(a.promptDriver())).Fill(ctx, form)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(answers)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the form from an exported JSON file instead of the store")
	return cmd
}
