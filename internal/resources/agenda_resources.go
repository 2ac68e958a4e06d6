package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/iavc/agenda-extractor/internal/export"
)

// Resource URIs.
const (
	URISettings = "agenda://settings"
	URIColumns  = "agenda://export/columns"
)

// Settings is the configuration an MCP client may inspect.
type Settings struct {
	CalendarID string   `json:"calendar_id"`
	Exclusions []string `json:"exclusions"`
	Format     string   `json:"format"`
	OutputDir  string   `json:"output_dir"`
	TimeFormat string   `json:"time_format"`
	Timezone   string   `json:"timezone,omitempty"`
}

// RegisterAgendaResources registers the settings and column resources.
func RegisterAgendaResources(s *mcpserver.MCPServer, settings Settings) error {
	if settings.Exclusions == nil {
		settings.Exclusions = []string{}
	}

	settingsResource := mcp.NewResource(
		URISettings,
		"Agenda Settings",
		mcp.WithResourceDescription("Calendar, exclusion list and export defaults used by the agenda tools"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(settingsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(request.Params.URI, settings)
	})

	columnsResource := mcp.NewResource(
		URIColumns,
		"Export Columns",
		mcp.WithResourceDescription("Header row of exported spreadsheets, in column order"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(columnsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(request.Params.URI, map[string]interface{}{
			"columns": export.Columns,
			"formats": []string{export.FormatXLSX, export.FormatICS},
		})
	})

	return nil
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
