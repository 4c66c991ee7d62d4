package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func ordersCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Work the pending order queue (Staff accounts)",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "pending",
			Short: "List pending orders",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				orders, err := c.workspace.Orders.Load(cmd.Context())
				if err != nil {
					return describe(err)
				}
				if len(orders) == 0 {
					fmt.Fprintln(c.out, "No pending orders.")
					return nil
				}

				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ORDER\tDATE\tCUSTOMER\tEMAIL\tCLAIM CODE\tTOTAL")
				for _, o := range orders {
					email := o.UserEmail
					if email == "" {
						email = "(none)"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\n",
						o.ID, o.OrderDate.Format("2006-01-02"), o.UserFullName, email, o.ClaimCode, o.TotalAmount)
				}
				return tw.Flush()
			},
		},
		orderActionCmd(c, "process", "Process an order and email the customer", func(cmd *cobra.Command, id string) (string, error) {
			result, err := c.workspace.Orders.Process(cmd.Context(), id)
			return result.Message, err
		}),
		orderActionCmd(c, "retry", "Re-run order processing without email", func(cmd *cobra.Command, id string) (string, error) {
			return c.workspace.Orders.Retry(cmd.Context(), id)
		}),
		orderActionCmd(c, "resend", "Resend the confirmation email", func(cmd *cobra.Command, id string) (string, error) {
			return c.workspace.Orders.Resend(cmd.Context(), id)
		}),
	)

	return cmd
}

// orderActionCmd loads the queue first because actions resolve the order's
// user and claim code from it.
func orderActionCmd(c *client, use string, short string, action func(*cobra.Command, string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <order-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if use != "resend" {
				if _, err := c.workspace.Orders.Load(cmd.Context()); err != nil {
					return describe(err)
				}
			}
			message, err := action(cmd, args[0])
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(c.out, message)
			return nil
		},
	}
}
