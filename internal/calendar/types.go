package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors.
var (
	// ErrFetchFailure wraps any failed page request.
	ErrFetchFailure = errors.New("failed to fetch events")

	// ErrInvalidRange is returned for a range whose end precedes its start.
	ErrInvalidRange = errors.New("invalid date range")
)

const (
	dateLayout     = "2006-01-02"
	userDateLayout = "02-01-2006"
)

// DateRange is an inclusive range of calendar dates. Only the year, month
// and day of Start and End are used.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates start and end to dates and validates the range.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: dateOnly(start), End: dateOnly(end)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// ParseDateRange parses both ends with ParseDate.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(s, e)
}

// ParseDate accepts DD-MM-YYYY and YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateLayout, userDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a DD-MM-YYYY or YYYY-MM-DD date", ErrInvalidRange, s)
}

// Validate rejects ranges whose end precedes their start.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidRange)
	}
	if dateOnly(r.End).Before(dateOnly(r.Start)) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange,
			r.End.Format(dateLayout), r.Start.Format(dateLayout))
	}
	return nil
}

// TimeMin is the lower query bound, the start date at 00:00:00 UTC.
func (r DateRange) TimeMin() string {
	return r.Start.Format(dateLayout) + "T00:00:00Z"
}

// TimeMax is the upper query bound, the end date at 23:59:59 UTC.
func (r DateRange) TimeMax() string {
	return r.End.Format(dateLayout) + "T23:59:59Z"
}

// String renders the range as "YYYY-MM-DD..YYYY-MM-DD".
func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + ".." + r.End.Format(dateLayout)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EventTime is an event boundary as the provider reported it.
type EventTime struct {
	// Raw is the provider value verbatim: RFC3339 for timed events,
	// YYYY-MM-DD for all-day events.
	Raw string

	// Time is Raw parsed. All-day values are midnight UTC. Zero when Raw
	// is empty or unparseable.
	Time time.Time

	// AllDay is set for date-only values.
	AllDay bool
}

// IsZero reports whether the provider sent no value.
func (t EventTime) IsZero() bool {
	return t.Raw == ""
}

// MarshalJSON encodes the verbatim provider value.
func (t EventTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Raw)
}

// EventRecord is one exported event. Empty Location and Description mean
// the provider omitted them.
type EventRecord struct {
	Title       string    `json:"title"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
}

// ExclusionSet holds titles that are never returned.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds a set from titles, trimming each one.
func NewExclusionSet(titles ...string) ExclusionSet {
	set := make(ExclusionSet, len(titles))
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// Contains matches an already trimmed title exactly.
func (s ExclusionSet) Contains(title string) bool {
	_, ok := s[title]
	return ok
}
