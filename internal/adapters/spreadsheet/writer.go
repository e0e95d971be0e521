package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"gradebook/internal/domain/student"
)

// ExportColumns is the header written by WriteXLSX. It uses the wire keys so
// an exported file imports back unchanged.
var ExportColumns = student.WireKeys

const exportSheet = "Élèves"

// WriteXLSX writes records as a single-sheet workbook.
// POST: row 1 is ExportColumns; one row per record in the given order
func WriteXLSX(w io.Writer, records []student.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("renommer la feuille: %w", err)
	}

	for col, name := range ExportColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(exportSheet, cell, name); err != nil {
			return err
		}
	}

	for i, rec := range records {
		fields := rec.Fields()
		for col, name := range ExportColumns {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			var value any = fields[name]
			if col >= 4 && col < 10 {
				value = rec.Scores[col-4]
			}
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("écriture du classeur: %w", err)
	}
	return nil
}
