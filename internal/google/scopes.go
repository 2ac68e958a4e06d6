package google

import (
	calendar "google.golang.org/api/calendar/v3"
)

// DefaultScopes are the OAuth scopes requested by every strategy. The tool
// only reads events, so a read-only calendar scope is sufficient.
var DefaultScopes = []string{
	calendar.CalendarReadonlyScope,
}
