// Package cmd implements the command-line interface for agenda-extractor.
//
// This package provides the following commands:
//   - export: Write the events of a date range to an .xlsx or .ics file
//   - list: Print the events of a date range as JSON
//   - auth: Run the credential flow and store the result
//   - serve: Serve the date form with a results table and download link
//   - mcp: Serve the agenda tools over MCP on stdio
//   - schedule: Export a rolling window on a cron schedule
//   - hash-secret: Hash an access code for the web form
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The export command is the default command when no subcommand is specified.
package cmd
