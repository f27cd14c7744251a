package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	catalogservice "github.com/Gizz1e/Gizzle/internal/catalog/service"
	"github.com/Gizz1e/Gizzle/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "plans",
		Short:   "Print the catalog the service would load",
		Aliases: []string{"catalog"},
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := catalogservice.New(catalogservice.Params{
				Cfg: config.Load(),
				Log: zap.NewNop(),
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PLAN\tNAME\tPRICE\tINTERVAL\tFEATURES")
			for _, plan := range catalog.ListPlans() {
				name := plan.Name
				if plan.IsPopular {
					name += " *"
				}
				fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\n",
					plan.ID, name, plan.Price.StringFixed(2), strings.ToUpper(plan.Currency),
					plan.Interval, strings.Join(plan.Features, "; "))
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "ITEM\tNAME\tPRICE\tDESCRIPTION\t")
			for _, item := range catalog.ListItems() {
				fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t\n",
					item.ID, item.Name, item.Price.StringFixed(2), strings.ToUpper(item.Currency), item.Description)
			}
			return w.Flush()
		},
	}
}
