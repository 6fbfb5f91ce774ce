package cli

import (
	"fmt"
	"strings"
	"time"

	"go-inventory-pos/internal/app"

	"github.com/spf13/cobra"
)

func NewRevisionsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "revisions <transaction|sale|purchase> <id>",
		Short: "Print the revision history of a transaction, sale or purchase",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1])
			if err != nil {
				return err
			}
			out := opts.output(cmd)
			return opts.withCore(func(core *app.Core) error {
				revs, err := core.Audit.ListRevisions(cmd.Context(), args[0], ids[0])
				if err != nil {
					return out.fail(err)
				}
				var b strings.Builder
				for _, r := range revs {
					fmt.Fprintf(&b, "#%d %s %s by %s\n", r.Number, r.Type, r.CreatedAt.Format(time.RFC3339), r.CreatedBy)
				}
				return out.Success(revs, strings.TrimRight(b.String(), "\n"))
			})
		},
	}
}
