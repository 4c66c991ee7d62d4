package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"booknest/internal/model"
	"booknest/internal/service"
)

func cartCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart (Member accounts)",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.workspace.Cart.Refresh(cmd.Context()); err != nil {
					return describe(err)
				}
				return printCart(c, c.workspace.Cart.Snapshot())
			},
		},
		cartAddCmd(c),
		&cobra.Command{
			Use:   "remove <book-id>",
			Short: "Remove a book from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				bookID, err := parseBookID(args[0])
				if err != nil {
					return err
				}
				return cartResult(c, c.workspace.Cart.RemoveItem(cmd.Context(), bookID))
			},
		},
		&cobra.Command{
			Use:   "set <book-id> <quantity>",
			Short: "Set the quantity of a book",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				bookID, err := parseBookID(args[0])
				if err != nil {
					return err
				}
				quantity, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("quantity must be a number: %q", args[1])
				}
				return cartResult(c, c.workspace.Cart.SetQuantity(cmd.Context(), bookID, quantity))
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cartResult(c, c.workspace.Cart.Clear(cmd.Context()))
			},
		},
	)

	return cmd
}

func cartAddCmd(c *client) *cobra.Command {
	var quantity int

	cmd := &cobra.Command{
		Use:   "add <book-id>",
		Short: "Add a book to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			return cartResult(c, c.workspace.Cart.AddItem(cmd.Context(), bookID, quantity))
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "Copies to add")

	return cmd
}

func cartResult(c *client, err error) error {
	if err != nil {
		return describe(err)
	}
	return printCart(c, c.workspace.Cart.Snapshot())
}

func printCart(c *client, snap model.CartSnapshot) error {
	if len(snap.Items) == 0 {
		fmt.Fprintln(c.out, "Your cart is empty.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BOOK\tTITLE\tQTY\tPRICE\tDISCOUNT\tSUBTOTAL")
	for _, line := range snap.Items {
		discount := "-"
		if line.DiscountPercent > 0 {
			discount = fmt.Sprintf("%g%%", line.DiscountPercent)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\t%s\t%.2f\n",
			line.BookID, line.Title, line.Quantity, line.EffectivePrice(), discount,
			line.EffectivePrice()*float64(line.Quantity))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n%d item(s), %d line(s). Total: %.2f\n", snap.LineCount, len(snap.Items), snap.TotalPrice)
	return nil
}

func parseBookID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("book id must be a positive number: %q", raw)
	}
	return id, nil
}

// describe turns service failures into their display message.
func describe(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(service.Describe(err))
}
