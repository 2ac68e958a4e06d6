// Package agenda ties authentication, fetching and export together.
//
// Service.Extract is the single operation every surface (CLI, web form,
// MCP tools, scheduler) calls. It never distinguishes an empty calendar
// from success: Result.Empty reports the "no events found" notice, and
// only real failures are returned as errors. UserMessage turns any of
// those errors into the one message shown to people, while Kind keeps the
// failure class for logs and metrics.
package agenda
