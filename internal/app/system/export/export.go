// Package export renders the registration list as a spreadsheet using a
// fixed column projection.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dalemusser/splereg/internal/domain/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the single worksheet.
const SheetName = "Registrations"

// ErrNoData is returned when there is nothing to export.
var ErrNoData = errors.New("no data to export")

// NoDataMessage is shown to the reviewer for ErrNoData.
const NoDataMessage = "No data to export"

// Column is one exported column.
type Column struct {
	Header string
	Width  float64
}

// Columns is the fixed projection, in order.
var Columns = []Column{
	{"Surname", 15},
	{"First Name", 15},
	{"Middle Name", 15},
	{"Email", 25},
	{"Contact", 15},
	{"WhatsApp", 15},
	{"University", 30},
	{"Degree", 30},
	{"Category", 20},
	{"Type", 20},
	{"Remarks", 30},
	{"Date", 12},
}

// Headers returns the column headers in order.
func Headers() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = c.Header
	}
	return out
}

// Row projects one registration. Dates are YYYY-MM-DD in loc; a missing
// creation time exports as an empty cell.
func Row(r models.Registration, loc *time.Location) []string {
	date := ""
	if r.CreatedAt != nil && !r.CreatedAt.IsZero() {
		date = r.CreatedAt.In(loc).Format("2006-01-02")
	}
	return []string{
		r.Surname,
		r.FirstName,
		r.MiddleName,
		r.Email,
		r.Contact,
		r.WhatsApp,
		r.University,
		r.Degree,
		r.Category,
		r.TypeLabel(),
		r.Remarks,
		date,
	}
}

// Rows projects the list in its given order.
func Rows(list []models.Registration, loc *time.Location) [][]string {
	if loc == nil {
		loc = time.UTC
	}
	out := make([][]string, len(list))
	for i, r := range list {
		out[i] = Row(r, loc)
	}
	return out
}

// Filename is the download name for an export taken at now.
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("SPLE_Kuwait_Registrations_%s.%s", now.Format("2006-01-02"), ext)
}

// WriteXLSX writes a workbook with one sheet holding the header row and
// one row per registration.
func WriteXLSX(w io.Writer, list []models.Registration, loc *time.Location) error {
	if len(list) == 0 {
		return ErrNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	if err := setRow(f, 1, Headers()); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return err
	}

	for i, row := range Rows(list, loc) {
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}

	for i, c := range Columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, c.Width); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func setRow(f *excelize.File, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(SheetName, cell, &row)
}

// WriteCSV writes the same projection as CSV.
func WriteCSV(w io.Writer, list []models.Registration, loc *time.Location) error {
	if len(list) == 0 {
		return ErrNoData
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers()); err != nil {
		return err
	}
	if err := cw.WriteAll(Rows(list, loc)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
