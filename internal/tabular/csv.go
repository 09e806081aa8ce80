package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/coltype/internal/core"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewSanitizingReader strips a leading byte-order mark and replaces invalid
// UTF-8 with U+FFFD while streaming. A UTF-16 BOM switches decoding to UTF-16.
func NewSanitizingReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// LoadCSV reads a comma-separated file. Every field is kept as text.
func LoadCSV(r io.Reader) ([]core.RawColumn, error) {
	cr := csv.NewReader(NewSanitizingReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, &ParseError{Format: "csv", Err: err}
	}

	g := newGrid(header)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Format: "csv", Err: err}
		}
		if len(record) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{
				Format: "csv",
				Err:    fmt.Errorf("line %d has %d fields, header has %d", line, len(record), len(header)),
			}
		}
		row := make([]core.Cell, len(record))
		for i, v := range record {
			row[i] = core.TextCell(v)
		}
		g.addRow(row)
	}
	return g.columns(), nil
}
