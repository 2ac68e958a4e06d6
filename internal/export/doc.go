// Package export writes fetched events to files.
//
// The spreadsheet has one sheet named "Agenda" with a header row
// (Title, Start, End, Location, Description) and one row per event, in
// fetch order. Timestamps are rendered as DD/MM/YYYY HH:MM by default, or
// written exactly as the calendar returned them. The same records can also
// be written as an iCalendar file.
package export
