package cmd

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/iavc/agenda-extractor/internal/resources"
	"github.com/iavc/agenda-extractor/internal/tools/agenda_tools"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the agenda tools over MCP on stdio",
		Long: `Start an MCP (Model Context Protocol) server on stdin/stdout exposing:
  agenda_list_events    events of a date range as JSON
  agenda_export_events  the same events written to a spreadsheet or .ics file
and the resources agenda://settings and agenda://export/columns.

Logs go to stderr so they never corrupt the protocol stream. Run
"agenda-extractor auth" first: the consent flow cannot prompt over stdio.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := newApp(ctx, appConfig, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.Background()) }()

			mcpSrv, err := newMCPServer(a)
			if err != nil {
				return err
			}
			return runStdioServer(mcpSrv)
		},
	}
}

func newMCPServer(a *app) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("agenda-extractor", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
	err := agenda_tools.RegisterAgendaTools(mcpSrv, a.service, agenda_tools.Options{
		OutputDir: a.cfg.Export.OutputDir,
		Format:    a.cfg.Export.Format,
		Metrics:   a.telemetry.Metrics(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register agenda tools: %w", err)
	}
	err = resources.RegisterAgendaResources(mcpSrv, resources.Settings{
		CalendarID: a.cfg.Calendar.ID,
		Exclusions: a.cfg.Calendar.Exclude,
		Format:     a.cfg.Export.Format,
		OutputDir:  a.cfg.Export.OutputDir,
		TimeFormat: a.cfg.Export.TimeFormat,
		Timezone:   a.cfg.Export.Timezone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register agenda resources: %w", err)
	}
	return mcpSrv, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
