package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iavc/agenda-extractor/internal/schedule"
)

func newScheduleCmd() *cobra.Command {
	var (
		once bool
		spec string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Export a rolling date window on a cron schedule",
		Long: `Export the events from schedule.days_back days before today to
schedule.days_ahead days after today whenever schedule.cron fires (five-field
cron syntax, evaluated in export.timezone or the local zone).

Files go to export.output_dir. A window without events writes no file.
Use --once to run a single export and exit, for example from an external
scheduler.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg := *appConfig
			if cmd.Flags().Changed("cron") {
				cfg.Schedule.Cron = spec
			}

			a, err := newApp(ctx, &cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.Background()) }()

			s, err := schedule.New(a.service, schedule.Config{
				Spec:      cfg.Schedule.Cron,
				DaysBack:  cfg.Schedule.DaysBack,
				DaysAhead: cfg.Schedule.DaysAhead,
				OutputDir: cfg.Export.OutputDir,
				Format:    cfg.Export.Format,
				Location:  a.location,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if once {
				run := s.RunOnce(ctx)
				if run.Err != nil {
					return userError(run.Err)
				}
				if run.Path == "" {
					fmt.Fprintf(out, "No events found for %s.\n", run.Range)
					return nil
				}
				fmt.Fprintf(out, "Exported %d events for %s to %s\n", run.Count, run.Range, run.Path)
				return nil
			}

			fmt.Fprintf(out, "Scheduled export %q, press Ctrl+C to stop\n", cfg.Schedule.Cron)
			return s.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run one export now and exit")
	cmd.Flags().StringVar(&spec, "cron", schedule.DefaultSpec, "Cron expression overriding schedule.cron")
	return cmd
}
