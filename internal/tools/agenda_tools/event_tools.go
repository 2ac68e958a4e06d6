package agenda_tools

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/iavc/agenda-extractor/internal/agenda"
	"github.com/iavc/agenda-extractor/internal/calendar"
	"github.com/iavc/agenda-extractor/internal/export"
	"github.com/iavc/agenda-extractor/internal/logging"
	"github.com/iavc/agenda-extractor/internal/outfmt"
	"github.com/iavc/agenda-extractor/internal/tools/common"
)

// listResult is the JSON body of agenda_list_events.
type listResult struct {
	Start   string                 `json:"start"`
	End     string                 `json:"end"`
	Count   int                    `json:"count"`
	Message string                 `json:"message"`
	Events  []calendar.EventRecord `json:"events"`
}

func parseRange(args map[string]interface{}) (calendar.DateRange, *mcp.CallToolResult) {
	start := common.StringArg(args, "start")
	if start == "" {
		return calendar.DateRange{}, mcp.NewToolResultError("start is required")
	}
	end := common.StringArg(args, "end")
	if end == "" {
		return calendar.DateRange{}, mcp.NewToolResultError("end is required")
	}
	r, err := calendar.ParseDateRange(start, end)
	if err != nil {
		return calendar.DateRange{}, mcp.NewToolResultError(agenda.UserMessage(err))
	}
	return r, nil
}

func (t *tools) extract(ctx context.Context, tool string, r calendar.DateRange) (*agenda.Result, *mcp.CallToolResult) {
	res, err := t.svc.Extract(ctx, r)
	if err != nil {
		t.opts.Logger.Error("extraction failed",
			logging.Operation(tool),
			slog.String("kind", agenda.Kind(err)),
			logging.Err(err))
		return nil, mcp.NewToolResultError(agenda.UserMessage(err))
	}
	return res, nil
}

func (t *tools) handleListEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	r, errResult := parseRange(args)
	if errResult != nil {
		return errResult, nil
	}

	res, errResult := t.extract(ctx, ToolListEvents, r)
	if errResult != nil {
		return errResult, nil
	}

	out := listResult{
		Start:   r.Start.Format("2006-01-02"),
		End:     r.End.Format("2006-01-02"),
		Count:   len(res.Records),
		Message: res.Message(),
		Events:  res.Records,
	}

	var buf bytes.Buffer
	if err := outfmt.WriteJSON(&buf, out, common.StringArg(args, "jq")); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (t *tools) handleExportEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	r, errResult := parseRange(args)
	if errResult != nil {
		return errResult, nil
	}

	format := common.StringArgOr(args, "format", t.opts.Format)
	if format != export.FormatXLSX && format != export.FormatICS {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q, must be 'xlsx' or 'ics'", format)), nil
	}

	res, errResult := t.extract(ctx, ToolExportEvents, r)
	if errResult != nil {
		return errResult, nil
	}
	if res.Empty() {
		return mcp.NewToolResultText(res.Message()), nil
	}

	path := common.StringArg(args, "path")
	var err error
	if path != "" {
		err = t.svc.ExportFileAt(ctx, path, format, res)
	} else {
		path, err = t.svc.ExportFile(ctx, t.opts.OutputDir, format, res)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to write export: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\nExported to %s", res.Message(), path)), nil
}
