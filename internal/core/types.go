package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SemanticType is the business-level type of a column.
type SemanticType int

const (
	Text SemanticType = iota
	Boolean
	Integer
	Decimal
	ComplexNumber
	TimeDuration
	Date
	Category
)

// typeLabels are the labels handed to the transport layer. They must not change.
var typeLabels = map[SemanticType]string{
	Boolean:       "Boolean",
	Integer:       "Integer",
	Decimal:       "Decimal",
	ComplexNumber: "Complex Number",
	TimeDuration:  "Time Duration",
	Date:          "Date",
	Category:      "Category",
	Text:          "Text",
}

// typeAliases accepts the short storage names clients historically sent
// alongside the display labels.
var typeAliases = map[string]SemanticType{
	"bool":        Boolean,
	"boolean":     Boolean,
	"int":         Integer,
	"int64":       Integer,
	"integer":     Integer,
	"float":       Decimal,
	"float64":     Decimal,
	"decimal":     Decimal,
	"complex":     ComplexNumber,
	"timedelta64": TimeDuration,
	"timedelta":   TimeDuration,
	"duration":    TimeDuration,
	"datetime64":  Date,
	"datetime":    Date,
	"date":        Date,
	"category":    Category,
	"str":         Text,
	"string":      Text,
	"object":      Text,
	"text":        Text,
}

// String returns the transport label, e.g. "Complex Number".
func (t SemanticType) String() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return fmt.Sprintf("SemanticType(%d)", int(t))
}

// Valid reports whether t is one of the recognised types.
func (t SemanticType) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

// MarshalText lets SemanticType render as its label in JSON maps and bodies.
func (t SemanticType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText accepts any label or alias ParseSemanticType does.
func (t *SemanticType) UnmarshalText(b []byte) error {
	parsed, err := ParseSemanticType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// AllTypes lists the recognised types in display order.
func AllTypes() []SemanticType {
	return []SemanticType{Integer, Decimal, ComplexNumber, TimeDuration, Boolean, Date, Category, Text}
}

// ParseSemanticType resolves a label ("Time Duration") or a short alias
// ("timedelta64") case-insensitively.
func ParseSemanticType(name string) (SemanticType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for t, label := range typeLabels {
		if strings.ToLower(label) == key {
			return t, nil
		}
	}
	if t, ok := typeAliases[key]; ok {
		return t, nil
	}
	return Text, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

// ----------------------------------------------------------------------------
// Raw cells
// ----------------------------------------------------------------------------

// CellKind tags the source form of a raw cell.
type CellKind uint8

const (
	CellMissing CellKind = iota
	CellString
	CellNumber
	CellComplex
)

// Cell is one raw value as produced by the tabular loader.
type Cell struct {
	kind CellKind
	str  string
	num  float64
	cplx complex128
}

// TextCell wraps a string cell exactly as read from the source.
func TextCell(s string) Cell { return Cell{kind: CellString, str: s} }

// NumberCell wraps a native numeric cell. NaN is stored as missing.
func NumberCell(f float64) Cell {
	if math.IsNaN(f) {
		return MissingCell()
	}
	return Cell{kind: CellNumber, num: f}
}

// ComplexCell wraps a native complex cell.
func ComplexCell(c complex128) Cell { return Cell{kind: CellComplex, cplx: c} }

// MissingCell is the canonical absent value.
func MissingCell() Cell { return Cell{kind: CellMissing} }

// Kind returns the source form of the cell.
func (c Cell) Kind() CellKind { return c.kind }

// IsMissing reports whether the cell is one of the recognised missing forms.
func (c Cell) IsMissing() bool { return IsMissing(c) }

// String returns the canonical text of the cell. Missing cells render as "".
func (c Cell) String() string {
	switch c.kind {
	case CellString:
		return c.str
	case CellNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case CellComplex:
		return formatComplex(c.cplx)
	default:
		return ""
	}
}

// RawColumn is a named, ordered sequence of raw cells. The engine never
// mutates one.
type RawColumn struct {
	Name  string
	Cells []Cell
}

// TextColumn builds a RawColumn from plain strings.
func TextColumn(name string, values ...string) RawColumn {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = TextCell(v)
	}
	return RawColumn{Name: name, Cells: cells}
}

// ----------------------------------------------------------------------------
// Converted values
// ----------------------------------------------------------------------------

// ValueKind tags the representation held by a Value.
type ValueKind uint8

const (
	ValueMissing ValueKind = iota
	ValueBool
	ValueInt
	ValueDecimal
	ValueComplex
	ValueDuration
	ValueTime
	ValueString
)

// Value is one typed cell of a ConvertedColumn. Only the field matching Kind
// is meaningful.
type Value struct {
	Kind    ValueKind
	Bool    bool
	Int     int64
	Decimal decimal.Decimal
	Complex complex128
	Seconds int64
	Time    time.Time
	Str     string
}

// IsMissing reports whether v holds no value.
func (v Value) IsMissing() bool { return v.Kind == ValueMissing }

// Equal compares two values by kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueMissing:
		return true
	case ValueBool:
		return v.Bool == o.Bool
	case ValueInt:
		return v.Int == o.Int
	case ValueDecimal:
		return v.Decimal.Equal(o.Decimal)
	case ValueComplex:
		return v.Complex == o.Complex
	case ValueDuration:
		return v.Seconds == o.Seconds
	case ValueTime:
		return v.Time.Equal(o.Time)
	default:
		return v.Str == o.Str
	}
}

// cell turns a converted value back into a raw cell whose text re-converts
// to the same value.
func (v Value) cell() Cell {
	switch v.Kind {
	case ValueBool:
		return TextCell(strconv.FormatBool(v.Bool))
	case ValueInt:
		return TextCell(strconv.FormatInt(v.Int, 10))
	case ValueDecimal:
		return TextCell(v.Decimal.String())
	case ValueComplex:
		return TextCell(formatComplex(v.Complex))
	case ValueDuration:
		return TextCell(strconv.FormatInt(v.Seconds, 10) + " seconds")
	case ValueTime:
		return TextCell(v.Time.Format(TimestampLayout))
	case ValueString:
		return TextCell(v.Str)
	default:
		return MissingCell()
	}
}

// Outcome is the result class of a conversion.
type Outcome int

const (
	// OutcomeConverted: every non-missing cell survived.
	OutcomeConverted Outcome = iota
	// OutcomeCoerced: some cells were coerced to missing.
	OutcomeCoerced
	// OutcomeRejected: an override refused to commit.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConverted:
		return "converted"
	case OutcomeCoerced:
		return "coerced"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ConvertedColumn is a column materialised under one SemanticType.
// Values is index-aligned with the source cells.
type ConvertedColumn struct {
	Name   string
	Type   SemanticType
	Values []Value
	// Coerced counts cells that were present in the source and are missing here.
	Coerced int
	// Categories is the sorted label set of a Category column.
	Categories []string
}

// Outcome classifies the conversion that produced c.
func (c ConvertedColumn) Outcome() Outcome {
	if c.Coerced > 0 {
		return OutcomeCoerced
	}
	return OutcomeConverted
}

// Integral reports whether every present value uses the integer representation.
func (c ConvertedColumn) Integral() bool {
	seen := false
	for _, v := range c.Values {
		switch v.Kind {
		case ValueMissing:
			continue
		case ValueInt:
			seen = true
		default:
			return false
		}
	}
	return seen
}

// Raw renders c back into a RawColumn, so it can be converted again.
func (c ConvertedColumn) Raw() RawColumn {
	cells := make([]Cell, len(c.Values))
	for i, v := range c.Values {
		cells[i] = v.cell()
	}
	return RawColumn{Name: c.Name, Cells: cells}
}
