package cli

import (
	"fmt"

	"go-inventory-pos/internal/app"
	"go-inventory-pos/internal/service"

	"github.com/spf13/cobra"
)

func NewSessionCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage POS sessions",
	}
	cmd.AddCommand(newSessionCloseCommand(opts))
	return cmd
}

func newSessionCloseCommand(opts *RootOptions) *cobra.Command {
	var (
		amount string
		by     string
	)
	cmd := &cobra.Command{
		Use:   "close <session-id>",
		Short: "Close a session with the counted cash",
		Long: `Close an open POS session. The expected cash is the opening amount plus
cash sales minus cash purchases; the difference to --amount is stored on the session.

Example:
  inventoryctl session close 3f0e... --amount 412.50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[0])
			if err != nil {
				return err
			}
			closeAmount, err := parseDecimal(amount)
			if err != nil {
				return err
			}
			out := opts.output(cmd)
			return opts.withCore(func(core *app.Core) error {
				session, err := core.Sessions.Close(cmd.Context(), service.CloseSessionRequest{
					SessionID:   ids[0],
					CloseAmount: closeAmount,
					By:          by,
				})
				if err != nil {
					return out.fail(err)
				}
				text := fmt.Sprintf("session %s closed: expected %s, counted %s, difference %s",
					session.ID, session.ExpectedAmount.Decimal, session.CloseAmount.Decimal, session.CashDifference.Decimal)
				return out.Success(session, text)
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "counted cash in the drawer (required)")
	cmd.Flags().StringVar(&by, "by", "inventoryctl", "actor recorded on the session")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
