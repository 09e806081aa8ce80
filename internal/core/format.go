package core

// MissingSentinel is what every missing cell serialises to, whatever the
// column type. nil encodes as JSON null.
var MissingSentinel any

// FormatValue turns one converted value into a transport-safe primitive.
func FormatValue(v Value) any {
	switch v.Kind {
	case ValueBool:
		return v.Bool
	case ValueInt:
		return v.Int
	case ValueDecimal:
		return v.Decimal.InexactFloat64()
	case ValueComplex:
		return formatComplex(v.Complex)
	case ValueDuration:
		return v.Seconds
	case ValueTime:
		return v.Time.Format(TimestampLayout)
	case ValueString:
		return v.Str
	default:
		return MissingSentinel
	}
}

// Format serialises a converted column, index-aligned with its values.
func Format(col ConvertedColumn) []any {
	out := make([]any, len(col.Values))
	for i, v := range col.Values {
		out[i] = FormatValue(v)
	}
	return out
}

// Records builds row records (column name -> primitive) from converted
// columns. Columns shorter than the longest one pad with the sentinel.
func Records(cols []ConvertedColumn) []map[string]any {
	rows := 0
	for _, c := range cols {
		rows = max(rows, len(c.Values))
	}

	formatted := make([][]any, len(cols))
	for i, c := range cols {
		formatted[i] = Format(c)
	}

	records := make([]map[string]any, rows)
	for r := range records {
		rec := make(map[string]any, len(cols))
		for i, c := range cols {
			if r < len(formatted[i]) {
				rec[c.Name] = formatted[i][r]
			} else {
				rec[c.Name] = MissingSentinel
			}
		}
		records[r] = rec
	}
	return records
}

// ColumnType pairs a column with its active type label.
type ColumnType struct {
	Column   string       `json:"column"`
	DataType SemanticType `json:"data_type"`
}

// ColumnTypes lists the active type of each column in column order.
func ColumnTypes(cols []ConvertedColumn) []ColumnType {
	out := make([]ColumnType, len(cols))
	for i, c := range cols {
		out[i] = ColumnType{Column: c.Name, DataType: c.Type}
	}
	return out
}
