// Package spreadsheet turns uploaded .xlsx, .xls and .csv files into
// loosely-keyed rows for student.Normalize, and writes rosters back out.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"gradebook/internal/domain/student"
)

// MaxRows caps the rows read from a single sheet.
const MaxRows = 100000

var (
	ErrUnsupported = errors.New("format non pris en charge (.xlsx, .xls ou .csv attendu)")
	ErrEmpty       = errors.New("la feuille est vide")
	ErrNoSheet     = errors.New("aucune feuille trouvée")
	ErrManySheets  = errors.New("plusieurs feuilles trouvées, enregistrez un fichier à une seule feuille")
)

// Supported reports whether filename has an importable extension.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls", ".csv":
		return true
	}
	return false
}

// ReadRows reads the first sheet of the file. The first row is the header;
// every following non-blank row becomes a map keyed by header cell, with
// missing cells as "".
// PRE: filename carries the original extension
// POST: Returns at least one row or an error
func ReadRows(r io.Reader, filename string) ([]map[string]any, error) {
	if !Supported(filename) {
		return nil, ErrUnsupported
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lecture du fichier: %w", err)
	}

	var grid [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		grid, err = readXLSX(data)
	case ".xls":
		grid, err = readXLS(data)
	case ".csv":
		grid, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}
	return toRows(grid)
}

func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("fichier xlsx illisible: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoSheet
	}
	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("feuille %q: %w", sheetName, err)
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("fichier xls illisible: %w", err)
	}
	switch workbook.NumSheets() {
	case 0:
		return nil, ErrNoSheet
	case 1:
	default:
		// ReadAllCells concatenates every sheet.
		return nil, ErrManySheets
	}
	return workbook.ReadAllCells(MaxRows), nil
}

// readCSV accepts comma or semicolon separated files; French spreadsheet
// exports default to semicolons.
func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	firstLine, _, _ := bytes.Cut(data, []byte("\n"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		cr.Comma = ';'
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("fichier csv illisible: %w", err)
	}
	return rows, nil
}

// toRows keys every data row by the header. Columns with a blank header
// are dropped, and so are rows where every cell is blank.
func toRows(grid [][]string) ([]map[string]any, error) {
	if len(grid) == 0 {
		return nil, ErrEmpty
	}
	header := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		header[i] = strings.TrimSpace(h)
	}

	var rows []map[string]any
	for _, cells := range grid[1:] {
		if blank(cells) {
			continue
		}
		row := make(map[string]any, len(header))
		for i, key := range header {
			if key == "" {
				continue
			}
			value := ""
			if i < len(cells) {
				value = strings.TrimSpace(cells[i])
			}
			if student.FoldKey(key) == "date" {
				value = excelDate(value)
			}
			row[key] = value
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return rows, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// excelDate converts a serial day number left in a date column into the
// record date layout. Anything else passes through unchanged.
func excelDate(value string) string {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial < 20000 || serial > 80000 {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.Format(student.DateLayout)
}
