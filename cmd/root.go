package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iavc/agenda-extractor/internal/config"
	"github.com/iavc/agenda-extractor/internal/logging"
)

// rootCmd represents the base command for the agenda-extractor application
var rootCmd = &cobra.Command{
	Use:   "agenda-extractor",
	Short: "Exports Google Calendar events for a date range to a spreadsheet",
	Long: `agenda-extractor reads the events of one Google Calendar between two dates
and writes them to an Excel spreadsheet (or an iCalendar file).

It can run as:
  - A one-shot CLI export (default)
  - A web form with a download button (serve)
  - An MCP (Model Context Protocol) server for AI assistants (mcp)
  - A scheduled exporter (schedule)`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// version will be set by main
var version = "dev"

var (
	configPath string
	logLevel   string
	logFormat  string

	// appConfig is loaded before every subcommand runs.
	appConfig *config.Config
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "agenda-extractor version %s\n" .Version}}`)

	// If no subcommand is provided, run the export command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "export")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	appConfig = cfg
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <user config dir>/agenda-extractor/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error. Can also use LOG_LEVEL env var.")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json. Can also use LOG_FORMAT env var.")

	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newHashSecretCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
