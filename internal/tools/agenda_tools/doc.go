// Package agenda_tools provides the MCP tools that list and export the
// agenda calendar:
//
//   - agenda_list_events: JSON records for a date range, optionally
//     filtered with a jq expression
//   - agenda_export_events: writes an xlsx or ics file and returns its path
//
// Failures are reported as tool errors carrying the same generic message
// the web form shows; details go to the log.
package agenda_tools
