package core

// DefaultCategoryMaxRatio is the distinct/present ratio below which a column
// is treated as a category.
const DefaultCategoryMaxRatio = 0.5

// InferOptions tunes column type inference.
type InferOptions struct {
	// CategoryMaxRatio is compared strictly: ratio < CategoryMaxRatio.
	// Zero means DefaultCategoryMaxRatio.
	CategoryMaxRatio float64
}

func (o InferOptions) categoryMaxRatio() float64 {
	if o.CategoryMaxRatio <= 0 {
		return DefaultCategoryMaxRatio
	}
	return o.CategoryMaxRatio
}

// cellPredicate is a per-cell classifier.
type cellPredicate func(Cell) bool

// allCells is the unanimity combinator: one disqualifying cell rejects the type.
func allCells(cells []Cell, pred cellPredicate) bool {
	for _, c := range cells {
		if !pred(c) {
			return false
		}
	}
	return true
}

// anyCell is the optimistic combinator: one matching cell is enough.
func anyCell(cells []Cell, pred cellPredicate) bool {
	for _, c := range cells {
		if pred(c) {
			return true
		}
	}
	return false
}

func isBooleanToken(c Cell) bool {
	_, known := LooksBoolean(c)
	return known
}

func isTextual(c Cell) bool { return c.kind == CellString }

// presentCells drops missing cells.
func presentCells(cells []Cell) []Cell {
	out := make([]Cell, 0, len(cells))
	for _, c := range cells {
		if !IsMissing(c) {
			out = append(out, c)
		}
	}
	return out
}

// distinctRatio is |distinct labels| / |values| over present cells, using the
// same trimmed labels a Category conversion produces.
func distinctRatio(present []Cell) float64 {
	if len(present) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(present))
	for _, c := range present {
		seen[cellLabel(c)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(present))
}

// Infer picks one SemanticType for col. The checks run in a fixed order and
// the first match wins: boolean, numeric and currency need every present
// cell to agree, while complex, duration and date need only one.
// Date is always tested before the category ratio.
func Infer(col RawColumn, opts InferOptions) SemanticType {
	present := presentCells(col.Cells)
	if len(present) == 0 {
		return Text
	}

	switch {
	case allCells(present, isBooleanToken):
		return Boolean
	case anyCell(present, LooksComplex):
		return ComplexNumber
	case allCells(present, LooksNumeric):
		return Decimal
	case allCells(present, LooksCurrency):
		return Decimal
	case anyCell(present, LooksTimeDuration):
		return TimeDuration
	case anyCell(present, LooksDate):
		return Date
	case distinctRatio(present) < opts.categoryMaxRatio():
		return Category
	case allCells(present, isTextual):
		return Text
	default:
		return Text
	}
}
