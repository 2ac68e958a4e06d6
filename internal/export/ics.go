package export

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/iavc/agenda-extractor/internal/calendar"
)

const productID = "-//agenda-extractor//Agenda Export//PT"

// WriteICS writes records as an iCalendar file. All-day events use
// VALUE=DATE; timed events are written in UTC.
func WriteICS(w io.Writer, records []calendar.EventRecord, _ Options) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	stamp := time.Now().UTC()
	for _, rec := range records {
		event := cal.AddEvent(eventUID(rec))
		event.SetDtStampTime(stamp)
		event.SetSummary(rec.Title)
		if rec.Location != "" {
			event.SetLocation(rec.Location)
		}
		if rec.Description != "" {
			event.SetDescription(rec.Description)
		}

		if !rec.Start.Time.IsZero() {
			if rec.Start.AllDay {
				event.SetAllDayStartAt(rec.Start.Time)
			} else {
				event.SetStartAt(rec.Start.Time)
			}
		}
		if !rec.End.Time.IsZero() {
			if rec.End.AllDay {
				event.SetAllDayEndAt(rec.End.Time)
			} else {
				event.SetEndAt(rec.End.Time)
			}
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}

// eventUID derives a stable UID so re-exports of the same event collide.
func eventUID(rec calendar.EventRecord) string {
	name := rec.Title + "\x00" + rec.Start.Raw + "\x00" + rec.End.Raw
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String() + "@agenda-extractor"
}
