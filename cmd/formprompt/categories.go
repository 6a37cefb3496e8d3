package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	formprompt "github.com/goliatone/go-formprompt"
)

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the merchant categories that have a base form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cats, err := formprompt.NewFetcher(a.cfg.Catalog)
			if err != nil {
				return err
			}
			if cats == nil {
				return errors.New("categories: listing is not available for a remote catalog")
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range cats {
				fmt.Fprintf(tw, "%s\t%s\n", c.Code, c.Label)
			}
			return tw.Flush()
		},
	}
}
