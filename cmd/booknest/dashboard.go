package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func dashboardCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show store statistics (Admin accounts)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := c.dashboard.Stats(cmd.Context(), c.scope)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(c.out, "Total books:   %d\nBooks on sale: %d\nTotal orders:  %d\n",
				stats.TotalBooks, stats.BooksOnSale, stats.TotalOrders)
			return nil
		},
	}
}
