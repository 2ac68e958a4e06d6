// Package server serves the agenda form over HTTP.
//
// The form asks for a start and an end date (and an access code when a gate
// is configured), runs one extraction per submission and renders the results
// table with a download link for the generated spreadsheet. Generated files
// live in a DownloadStore until fetched once or until their TTL expires.
//
// Routes:
//   - GET  /                 form, both dates default to today
//   - POST /events           extraction
//   - GET  /download/{id}    one-shot spreadsheet download
//   - GET  /healthz, /readyz, /healthz/detailed
//
// Prometheus metrics are served by MetricsServer on a separate address.
package server
