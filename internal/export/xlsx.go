package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/iavc/agenda-extractor/internal/calendar"
)

// SheetName is the single worksheet of a generated spreadsheet.
const SheetName = "Agenda"

// Columns is the header row.
var Columns = []string{"Title", "Start", "End", "Location", "Description"}

// Row is one data row as read back from a spreadsheet.
type Row struct {
	Title       string
	Start       string
	End         string
	Location    string
	Description string
}

// RowFor renders a record the way WriteXLSX writes it.
func RowFor(rec calendar.EventRecord, opts Options) Row {
	return Row{
		Title:       rec.Title,
		Start:       FormatTime(rec.Start, opts),
		End:         FormatTime(rec.End, opts),
		Location:    rec.Location,
		Description: rec.Description,
	}
}

func (r Row) values() []interface{} {
	return []interface{}{r.Title, r.Start, r.End, r.Location, r.Description}
}

// WriteXLSX writes records as a spreadsheet to w.
func WriteXLSX(w io.Writer, records []calendar.EventRecord, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "E1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := RowFor(rec, opts).values()
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "C", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "D", "E", 40); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return nil
}

// ReadXLSX reads the data rows of a spreadsheet written by WriteXLSX.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("spreadsheet has no sheets")
	}

	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("spreadsheet has no header row")
	}

	rows := make([]Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		// GetRows drops trailing empty cells.
		padded := make([]string, len(Columns))
		copy(padded, cells)
		rows = append(rows, Row{
			Title:       padded[0],
			Start:       padded[1],
			End:         padded[2],
			Location:    padded[3],
			Description: padded[4],
		})
	}
	return rows, nil
}
