package agenda_tools

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/iavc/agenda-extractor/internal/agenda"
	"github.com/iavc/agenda-extractor/internal/calendar"
	"github.com/iavc/agenda-extractor/internal/export"
	"github.com/iavc/agenda-extractor/internal/instrumentation"
	"github.com/iavc/agenda-extractor/internal/tools/common"
)

// Tool names.
const (
	ToolListEvents   = "agenda_list_events"
	ToolExportEvents = "agenda_export_events"
)

// Extractor is the part of agenda.Service the tools use.
type Extractor interface {
	Extract(ctx context.Context, r calendar.DateRange) (*agenda.Result, error)
	ExportFile(ctx context.Context, dir, format string, res *agenda.Result) (string, error)
	ExportFileAt(ctx context.Context, path, format string, res *agenda.Result) error
}

// Options configures the agenda tools.
type Options struct {
	// OutputDir receives exports that name no explicit path.
	OutputDir string

	// Format is the export format used when the caller names none.
	Format string

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// RegisterAgendaTools registers the agenda tools with the MCP server.
func RegisterAgendaTools(s *mcpserver.MCPServer, svc Extractor, opts Options) error {
	if svc == nil {
		return errors.New("agenda tools require an extractor")
	}
	if opts.Format == "" {
		opts.Format = export.FormatXLSX
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	t := &tools{svc: svc, opts: opts}

	listTool := mcp.NewTool(ToolListEvents,
		mcp.WithDescription("List the events of the agenda calendar between two dates (inclusive). Placeholder entries are left out."),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("First day of the range (DD-MM-YYYY or YYYY-MM-DD)"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("Last day of the range (DD-MM-YYYY or YYYY-MM-DD)"),
		),
		mcp.WithString("jq",
			mcp.Description("Optional jq expression applied to the JSON result"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler(ToolListEvents, opts.Metrics, opts.Logger, t.handleListEvents))

	exportTool := mcp.NewTool(ToolExportEvents,
		mcp.WithDescription("Export the events of the agenda calendar between two dates to a spreadsheet or iCalendar file"),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("First day of the range (DD-MM-YYYY or YYYY-MM-DD)"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("Last day of the range (DD-MM-YYYY or YYYY-MM-DD)"),
		),
		mcp.WithString("path",
			mcp.Description("Output file path. Defaults to agenda_<start>_a_<end>.<format> in the output directory."),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'xlsx' or 'ics'"),
			mcp.Enum(export.FormatXLSX, export.FormatICS),
		),
	)
	s.AddTool(exportTool, common.InstrumentedToolHandler(ToolExportEvents, opts.Metrics, opts.Logger, t.handleExportEvents))

	return nil
}

type tools struct {
	svc  Extractor
	opts Options
}
