// Package outfmt renders command output as JSON with optional jq filtering.
package outfmt
