package core

import (
	"strings"
	"time"
)

// TimestampLayout is the textual form of Date values on the wire.
const TimestampLayout = "2006-01-02 15:04:05"

// dateLayout is one entry of the fixed pattern list. Layouts without a year
// take the current year.
type dateLayout struct {
	layout  string
	hasYear bool
}

// dateLayouts is tried in order; the first layout that parses at least one
// cell of a column is used for the whole column. The order encodes the
// day/month precedence callers rely on, so append rather than reorder.
var dateLayouts = []dateLayout{
	{"2006-01-02", true},           // YYYY-MM-DD
	{"02-01-2006", true},           // DD-MM-YYYY
	{"01/02/2006", true},           // MM/DD/YYYY
	{"02/01/2006", true},           // DD/MM/YYYY
	{"20060102", true},             // YYYYMMDD
	{"01/2006", true},              // MM/YYYY
	{"02 January", false},          // DD Month
	{"January 02, 2006", true},     // Month DD, YYYY
	{"January 2, 2006", true},      // Month D, YYYY
	{"January 2006", true},         // Month YYYY
	{"2006/01/02", true},           // YYYY/MM/DD
	{"02.01.2006", true},           // DD.MM.YYYY
	{"2006.01.02", true},           // YYYY.MM.DD
	{"2006-01-02 15:04:05", true},  // timestamp
	{"2006-01-02T15:04:05", true},  // ISO timestamp
	{time.RFC3339, true},           // ISO timestamp with offset
	{"01/02/2006 15:04", true},     // MM/DD/YYYY HH:MM
	{"02 Jan 2006", true},          // DD Mon YYYY
	{"2 January 2006", true},       // D Month YYYY
	{"Jan 02, 2006", true},         // Mon DD, YYYY
	{"Jan 2, 2006", true},          // Mon D, YYYY
	{"Jan 2006", true},             // Mon YYYY
	{"02-Jan-2006", true},          // DD-Mon-YYYY
	{"01-02-2006", true},           // MM-DD-YYYY
	{"2006-01", true},              // YYYY-MM
	{"1/2/2006", true},             // M/D/YYYY
}

// nowFunc supplies the year for year-less layouts.
var nowFunc = time.Now

func (l dateLayout) parse(s string, year int) (time.Time, bool) {
	t, err := time.Parse(l.layout, s)
	if err != nil {
		return time.Time{}, false
	}
	if !l.hasYear {
		t = time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	return t.UTC(), true
}

// dateText returns the trimmed text of a cell that can hold a date.
func dateText(c Cell) (string, bool) {
	if c.kind != CellString || IsMissing(c) {
		return "", false
	}
	return strings.TrimSpace(c.str), true
}

// chooseDateLayout returns the index of the first layout under which any
// cell parses, or -1.
func chooseDateLayout(cells []Cell, year int) int {
	for i, l := range dateLayouts {
		for _, c := range cells {
			s, ok := dateText(c)
			if !ok {
				continue
			}
			if _, ok := l.parse(s, year); ok {
				return i
			}
		}
	}
	return -1
}

// convertDates parses every cell with the chosen layout, or with the general
// parser when no layout matched. Cells that still fail become missing.
func convertDates(cells []Cell) []Value {
	year := nowFunc().Year()
	idx := chooseDateLayout(cells, year)

	return convertCells(cells, func(c Cell) Value {
		s, ok := dateText(c)
		if !ok {
			return Value{}
		}
		var t time.Time
		if idx >= 0 {
			t, ok = dateLayouts[idx].parse(s, year)
		} else {
			t, ok = parseAnyDate(s)
		}
		if !ok {
			return Value{}
		}
		return Value{Kind: ValueTime, Time: t}
	})
}
