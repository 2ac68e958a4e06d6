// Package resources provides read-only MCP resources describing how the
// agenda tools behave: which calendar they read, what they exclude and which
// columns an export contains. Clients read them before calling a tool.
package resources
