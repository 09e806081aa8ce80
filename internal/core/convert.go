package core

// convert.go materialises a raw column under a chosen SemanticType.
//
// Conversion never fails as a whole: a cell that cannot be read under the
// target type becomes missing and is counted in ConvertedColumn.Coerced.
// The messy inputs handled here mirror what uploads actually contain:
//   - thousands separators, currency codes and symbols, accounting negatives
//   - several date layouts (see dates.go)
//   - duration phrases such as "2 weeks 3 days"
//   - complex literals written as a+bj

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// numericRegex validates a numeric string after cleanup.
// Matches integers, decimals, and scientific notation with at most a
// three-digit exponent.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d{1,3})?$`)

// currencyCodePrefix strips a leading ISO code such as "EUR ".
var currencyCodePrefix = regexp.MustCompile(`^[A-Za-z]{3}\s+`)

// secondsPerUnit converts duration units; months and years use calendar averages
// of 30 and 365 days.
var secondsPerUnit = map[string]int64{
	"second": 1,
	"minute": 60,
	"hour":   3600,
	"day":    86400,
	"week":   7 * 86400,
	"month":  30 * 86400,
	"year":   365 * 86400,
}

// Convert returns col materialised under t. It never mutates col and never
// panics; cells that do not fit t become missing.
func Convert(col RawColumn, t SemanticType) ConvertedColumn {
	out := ConvertedColumn{Name: col.Name, Type: t}

	switch t {
	case Boolean:
		out.Values = convertCells(col.Cells, toBool)
	case Integer:
		out.Values = convertNumbers(col.Cells, true)
	case Decimal:
		out.Values = convertNumbers(col.Cells, false)
	case ComplexNumber:
		out.Values = convertCells(col.Cells, toComplex)
	case TimeDuration:
		out.Values = convertCells(col.Cells, toDuration)
	case Date:
		out.Values = convertDates(col.Cells)
	case Category:
		out.Values = convertCells(col.Cells, toText)
		out.Categories = categoryDomain(out.Values)
	default:
		out.Type = Text
		out.Values = convertCells(col.Cells, toText)
	}

	out.Coerced = countCoerced(col.Cells, out.Values)
	return out
}

// convertCells applies fn to each cell. A panic inside fn degrades that one
// cell to missing.
func convertCells(cells []Cell, fn func(Cell) Value) []Value {
	values := make([]Value, len(cells))
	for i, c := range cells {
		if IsMissing(c) {
			continue
		}
		values[i] = safeConvert(c, fn)
	}
	return values
}

func safeConvert(c Cell, fn func(Cell) Value) (v Value) {
	defer func() {
		if recover() != nil {
			v = Value{}
		}
	}()
	return fn(c)
}

// countCoerced counts cells present in the source but missing after conversion.
func countCoerced(cells []Cell, values []Value) int {
	n := 0
	for i, c := range cells {
		if !IsMissing(c) && values[i].IsMissing() {
			n++
		}
	}
	return n
}

func toBool(c Cell) Value {
	b, known := LooksBoolean(c)
	if !known {
		return Value{}
	}
	return Value{Kind: ValueBool, Bool: b}
}

func toText(c Cell) Value {
	return Value{Kind: ValueString, Str: cellLabel(c)}
}

// cellLabel is the text a cell contributes to a Text or Category column.
func cellLabel(c Cell) string {
	return strings.TrimSpace(c.String())
}

func toComplex(c Cell) Value {
	switch c.kind {
	case CellComplex:
		return Value{Kind: ValueComplex, Complex: c.cplx}
	case CellNumber:
		return Value{Kind: ValueComplex, Complex: complex(c.num, 0)}
	case CellString:
		if z, ok := parseComplex(c.str); ok {
			return Value{Kind: ValueComplex, Complex: z}
		}
	}
	return Value{}
}

func toDuration(c Cell) Value {
	if c.kind != CellString {
		return Value{}
	}
	secs, ok := parseDuration(c.str)
	if !ok {
		return Value{}
	}
	return Value{Kind: ValueDuration, Seconds: secs}
}

// parseDuration sums every signed "<n> <unit>" token in s into seconds.
// Fractional amounts are allowed as long as the total is a whole number of
// seconds that fits in int64.
func parseDuration(s string) (int64, bool) {
	matches := durationPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, false
	}
	total := decimal.Zero
	for _, m := range matches {
		n, err := decimal.NewFromString(m[2])
		if err != nil {
			return 0, false
		}
		unit := secondsPerUnit[strings.ToLower(m[3])]
		total = total.Add(n.Mul(decimal.NewFromInt(unit)))
	}
	if !fitsInt64(total) {
		return 0, false
	}
	return total.IntPart(), true
}

// cleanNumeric strips what users put around numbers: currency codes and
// symbols, thousands separators, whitespace, a trailing % and accounting
// parentheses for negatives.
func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = currencyCodePrefix.ReplaceAllString(s, "")

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', '$', '\u20ac', '\u00a3', ' ', '\t', '\u00a0':
			return -1
		}
		return r
	}, s)
	s = strings.TrimSuffix(s, "%")

	if negative {
		s = "-" + s
	}
	return s
}

// toNumber reads a cell as an exact decimal. Values outside float64 range
// are rejected, since they cannot be serialised.
func toNumber(c Cell) (decimal.Decimal, bool) {
	switch c.kind {
	case CellNumber:
		if math.IsInf(c.num, 0) || math.IsNaN(c.num) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(c.num), true
	case CellString:
		s := cleanNumeric(c.str)
		if !numericRegex.MatchString(s) {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil || math.IsInf(d.InexactFloat64(), 0) {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

// fitsInt64 reports whether d is a whole number representable as int64.
func fitsInt64(d decimal.Decimal) bool {
	return d.IsInteger() && d.BigInt().IsInt64()
}

// convertNumbers parses every cell as a decimal, then picks the integer
// representation when every parsed value is integral. With integerOnly,
// values that are not whole numbers become missing.
func convertNumbers(cells []Cell, integerOnly bool) []Value {
	parsed := make([]decimal.Decimal, len(cells))
	ok := make([]bool, len(cells))
	integral := true

	for i, c := range cells {
		if IsMissing(c) {
			continue
		}
		d, good := safeNumber(c)
		if !good {
			continue
		}
		if integerOnly && !fitsInt64(d) {
			continue
		}
		parsed[i], ok[i] = d, true
		if !fitsInt64(d) {
			integral = false
		}
	}

	values := make([]Value, len(cells))
	for i := range cells {
		if !ok[i] {
			continue
		}
		if integral {
			values[i] = Value{Kind: ValueInt, Int: parsed[i].IntPart()}
		} else {
			values[i] = Value{Kind: ValueDecimal, Decimal: parsed[i]}
		}
	}
	return values
}

func safeNumber(c Cell) (d decimal.Decimal, ok bool) {
	defer func() {
		if recover() != nil {
			d, ok = decimal.Decimal{}, false
		}
	}()
	return toNumber(c)
}

// categoryDomain returns the sorted distinct labels present in values.
func categoryDomain(values []Value) []string {
	seen := make(map[string]struct{})
	for _, v := range values {
		if !v.IsMissing() {
			seen[v.Str] = struct{}{}
		}
	}
	domain := make([]string, 0, len(seen))
	for s := range seen {
		domain = append(domain, s)
	}
	sort.Strings(domain)
	return domain
}
