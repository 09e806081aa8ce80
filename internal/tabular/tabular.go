// Package tabular reads uploaded CSV and Excel files into raw columns.
//
// The first row is the header. Blank header cells become "Unnamed: N" and
// repeated names get a ".1", ".2" suffix so every column name is unique.
// Rows shorter than the header are padded with missing cells.
package tabular

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/coltype/internal/core"
)

var (
	// ErrUnsupportedFormat is returned for extensions other than .csv and .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when the file has no header row.
	ErrEmptyFile = errors.New("empty file")
)

// ParseError reports a file that could not be parsed in its declared format.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Extensions lists the accepted file extensions.
var Extensions = []string{".csv", ".xlsx"}

// Supported reports whether fileName has an accepted extension.
func Supported(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load dispatches on the file extension. It satisfies core.LoadFunc.
func Load(fileName string, r io.Reader) ([]core.RawColumn, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		return LoadCSV(r)
	case ".xlsx":
		return LoadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// grid accumulates rows under a header.
type grid struct {
	names []string
	cells [][]core.Cell
}

func newGrid(header []string) *grid {
	return &grid{
		names: uniqueNames(header),
		cells: make([][]core.Cell, len(header)),
	}
}

// addRow appends one record. Missing trailing fields become missing cells.
func (g *grid) addRow(row []core.Cell) {
	for i := range g.cells {
		c := core.MissingCell()
		if i < len(row) {
			c = row[i]
		}
		g.cells[i] = append(g.cells[i], c)
	}
}

func (g *grid) columns() []core.RawColumn {
	out := make([]core.RawColumn, len(g.names))
	for i, name := range g.names {
		cells := g.cells[i]
		if cells == nil {
			cells = []core.Cell{}
		}
		out[i] = core.RawColumn{Name: name, Cells: cells}
	}
	return out
}

// uniqueNames trims header cells, names blank ones by position and
// suffixes duplicates.
func uniqueNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if used[name] {
			for n := 1; ; n++ {
				candidate := fmt.Sprintf("%s.%d", name, n)
				if !used[candidate] {
					name = candidate
					break
				}
			}
		}
		used[name] = true
		names[i] = name
	}
	return names
}
