package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iavc/agenda-extractor/internal/config"
)

type rangeFlags struct {
	from    string
	to      string
	exclude string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "First day (DD-MM-YYYY or YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last day (DD-MM-YYYY or YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&f.exclude, "exclude", "", "Comma-separated event titles to leave out (default: calendar.exclude from the config)")
}

func newExportCmd() *cobra.Command {
	var (
		rf         rangeFlags
		outDir     string
		format     string
		timeFormat string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the events of a date range to a file",
		Long: `Fetch every event of the configured calendar between --from and --to
(both inclusive) and write them to agenda_<from>_a_<to>.xlsx in the output
directory. Placeholder entries ("Modelo agendamento", "Dados do hospital")
are left out. Nothing is written when the range has no events.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *appConfig
			applyExclude(&cfg, rf.exclude, cmd.Flags().Changed("exclude"))
			if cmd.Flags().Changed("out") {
				cfg.Export.OutputDir = outDir
			}
			if cmd.Flags().Changed("format") {
				cfg.Export.Format = format
			}
			if cmd.Flags().Changed("time-format") {
				cfg.Export.TimeFormat = timeFormat
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runExport(cmd, &cfg, rf)
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: export.output_dir from the config)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: xlsx or ics (default: export.format from the config)")
	cmd.Flags().StringVar(&timeFormat, "time-format", "", "Time format: display (DD/MM/YYYY HH:MM) or raw")
	return cmd
}

func runExport(cmd *cobra.Command, cfg *config.Config, rf rangeFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
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

	out := cmd.OutOrStdout()
	if res.Empty() {
		fmt.Fprintln(out, res.Message())
		return nil
	}

	path, err := a.service.ExportFile(ctx, cfg.Export.OutputDir, cfg.Export.Format, res)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res.Message())
	fmt.Fprintf(out, "Written to %s\n", path)
	return nil
}
