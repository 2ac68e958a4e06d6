package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iavc/agenda-extractor/internal/outfmt"
)

func newListCmd() *cobra.Command {
	var (
		rf         rangeFlags
		expression string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the events of a date range as JSON",
		Long: `Fetch the events of the configured calendar between --from and --to and
print them as a JSON array. Start and end are printed exactly as the calendar
reports them: RFC 3339 for timed events, YYYY-MM-DD for all-day events.

Use --jq to filter the output, for example:
  agenda-extractor list --from 01-03-2025 --to 31-03-2025 --jq '.[].title'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg := *appConfig
			applyExclude(&cfg, rf.exclude, cmd.Flags().Changed("exclude"))

			a, err := newApp(ctx, &cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.Background()) }()

			r, err := resolveRange(rf.from, rf.to, a.today())
			if err != nil {
				return userError(err)
			}
			res, err := a.service.Extract(ctx, r)
			if err != nil {
				return userError(err)
			}
			if res.Empty() {
				fmt.Fprintln(cmd.ErrOrStderr(), res.Message())
			}
			return outfmt.WriteJSON(cmd.OutOrStdout(), res.Records, expression)
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&expression, "jq", "", "jq expression applied to the JSON output")
	return cmd
}
