package cli

import (
	"fmt"

	"go-inventory-pos/internal/app"
	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func NewStockCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Read and adjust stock levels",
	}
	cmd.AddCommand(newStockGetCommand(opts))
	cmd.AddCommand(newStockSetCommand(opts))
	cmd.AddCommand(newStockTransferCommand(opts))
	return cmd
}

func newStockGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <product-id> <store-id>",
		Short: "Show the stock of a product at a store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args...)
			if err != nil {
				return err
			}
			out := opts.output(cmd)
			return opts.withCore(func(core *app.Core) error {
				stock, err := core.Stock.GetStock(cmd.Context(), ids[0], ids[1])
				if err != nil {
					return out.fail(err)
				}
				return out.Success(stock, stockLine(stock))
			})
		},
	}
}

func newStockSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <product-id> <store-id> <quantity>",
		Short: "Set the absolute stock quantity, creating the row if needed",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[:2]...)
			if err != nil {
				return err
			}
			qty, err := parseDecimal(args[2])
			if err != nil {
				return err
			}
			out := opts.output(cmd)
			return opts.withCore(func(core *app.Core) error {
				req := service.StockRequest{ProductID: ids[0], StoreID: ids[1], Quantity: qty}
				stock, err := core.Stock.UpdateStock(cmd.Context(), req)
				if service.IsNotFound(err) {
					stock, err = core.Stock.AddStock(cmd.Context(), req)
				}
				if err != nil {
					return out.fail(err)
				}
				return out.Success(stock, stockLine(stock))
			})
		},
	}
}

func newStockTransferCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <product-id> <from-store-id> <to-store-id> <quantity>",
		Short: "Move stock between two stores",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[:3]...)
			if err != nil {
				return err
			}
			qty, err := parseDecimal(args[3])
			if err != nil {
				return err
			}
			out := opts.output(cmd)
			return opts.withCore(func(core *app.Core) error {
				res, err := core.Stock.TransferStock(cmd.Context(), service.TransferRequest{
					ProductID:   ids[0],
					FromStoreID: ids[1],
					ToStoreID:   ids[2],
					Quantity:    qty,
				})
				if err != nil {
					return out.fail(err)
				}
				return out.Success(res, stockLine(&res.From)+"\n"+stockLine(&res.To))
			})
		},
	}
}

func stockLine(s *model.Stock) string {
	return fmt.Sprintf("product %s store %s quantity %s", s.ProductID, s.StoreID, s.Quantity)
}

func parseIDs(args ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(args))
	for i, a := range args {
		id, err := uuid.Parse(a)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid id %q", a), err)
		}
		ids[i] = id
	}
	return ids, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, WrapExitError(ExitCommandError, fmt.Sprintf("invalid number %q", s), err)
	}
	return d, nil
}
