package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/iavc/agenda-extractor/internal/calendar"
)

// TimeFormat selects how event times are written.
type TimeFormat string

const (
	// TimeDisplay renders DD/MM/YYYY HH:MM, or DD/MM/YYYY for all-day values.
	TimeDisplay TimeFormat = "display"

	// TimeRaw writes the provider value verbatim.
	TimeRaw TimeFormat = "raw"
)

// File formats.
const (
	FormatXLSX = "xlsx"
	FormatICS  = "ics"
)

const (
	displayLayout     = "02/01/2006 15:04"
	displayDateLayout = "02/01/2006"
	filenameLayout    = "02-01-2006"
)

// Options control rendering.
type Options struct {
	TimeFormat TimeFormat

	// Location converts timed values for display. Nil keeps each event's
	// own offset.
	Location *time.Location
}

// FormatTime renders one event boundary.
func FormatTime(t calendar.EventTime, opts Options) string {
	if t.IsZero() {
		return ""
	}
	if opts.TimeFormat == TimeRaw || t.Time.IsZero() {
		return t.Raw
	}
	if t.AllDay {
		return t.Time.Format(displayDateLayout)
	}
	ts := t.Time
	if opts.Location != nil {
		ts = ts.In(opts.Location)
	}
	return ts.Format(displayLayout)
}

// Filename returns agenda_DD-MM-YYYY_a_DD-MM-YYYY.<ext>.
func Filename(r calendar.DateRange, ext string) string {
	return fmt.Sprintf("agenda_%s_a_%s.%s", r.Start.Format(filenameLayout), r.End.Format(filenameLayout), ext)
}

// Path joins dir and Filename.
func Path(dir string, r calendar.DateRange, ext string) string {
	return filepath.Join(dir, Filename(r, ext))
}

// Write encodes records in format ("xlsx" or "ics").
func Write(w io.Writer, format string, records []calendar.EventRecord, opts Options) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, records, opts)
	case FormatICS:
		return WriteICS(w, records, opts)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteFile writes records to dir under the Filename for r and returns the path.
func WriteFile(dir string, r calendar.DateRange, format string, records []calendar.EventRecord, opts Options) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := Path(dir, r, format)
	if err := WriteFileAt(path, format, records, opts); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFileAt writes records to an explicit path. A partially written file
// is removed.
func WriteFileAt(path, format string, records []calendar.EventRecord, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, format, records, opts); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
