package tabular

import (
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/coltype/internal/core"
	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads the first worksheet of an Excel workbook. Unformatted
// numeric cells become number cells; everything else is read as its
// displayed text.
func LoadXLSX(r io.Reader) (cols []core.RawColumn, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Format: "spreadsheet", Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Format: "spreadsheet", Err: err}
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	header := rows[0]
	width := len(header)
	for _, row := range rows[1:] {
		width = max(width, len(row))
	}
	// Data beyond the header gets a generated name, as a blank header would.
	for len(header) < width {
		header = append(header, "")
	}

	g := newGrid(header)
	for ri, row := range rows[1:] {
		cells := make([]core.Cell, len(row))
		for ci, text := range row {
			cell, err := sheetCell(f, sheet, ci+1, ri+2, text)
			if err != nil {
				return nil, err
			}
			cells[ci] = cell
		}
		g.addRow(cells)
	}
	return g.columns(), nil
}

// sheetCell classifies one cell. A numeric cell whose displayed text equals
// its stored value has no number format applied and is kept as a number.
func sheetCell(f *excelize.File, sheet string, col, row int, text string) (core.Cell, error) {
	if text == "" {
		return core.MissingCell(), nil
	}

	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return core.Cell{}, &ParseError{Format: "spreadsheet", Err: err}
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return core.Cell{}, &ParseError{Format: "spreadsheet", Err: fmt.Errorf("cell %s: %w", axis, err)}
	}
	if typ != excelize.CellTypeNumber && typ != excelize.CellTypeUnset {
		return core.TextCell(text), nil
	}

	raw, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
	if err != nil {
		return core.Cell{}, &ParseError{Format: "spreadsheet", Err: fmt.Errorf("cell %s: %w", axis, err)}
	}
	if raw != text {
		return core.TextCell(text), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return core.TextCell(text), nil
	}
	return core.NumberCell(v), nil
}
