package core

import (
	"maps"
	"sync"
	"time"
)

// OverrideRecord maps a column name to the type a user chose for it.
// An entry replaces the inferred type; it is never merged with it.
type OverrideRecord map[string]SemanticType

// Dataset owns one uploaded table: its raw columns (read-only), the active
// converted column for each, and its override record.
type Dataset struct {
	ID         string
	FileName   string
	UploadedAt time.Time

	raw []RawColumn

	mu        sync.RWMutex
	columns   []ConvertedColumn
	inferred  []SemanticType
	overrides OverrideRecord

	// overrideMu admits one override at a time for this dataset.
	overrideMu sync.Mutex
}

// NewDataset assembles a dataset from analysis results. results must be
// index-aligned with raw.
func NewDataset(id, fileName string, uploadedAt time.Time, raw []RawColumn, results []ColumnResult) *Dataset {
	ds := &Dataset{
		ID:         id,
		FileName:   fileName,
		UploadedAt: uploadedAt,
		raw:        raw,
		columns:    make([]ConvertedColumn, len(results)),
		inferred:   make([]SemanticType, len(results)),
		overrides:  make(OverrideRecord),
	}
	for i, r := range results {
		ds.columns[i] = r.Column
		ds.inferred[i] = r.Inferred
		if r.Overridden {
			ds.overrides[r.Column.Name] = r.Column.Type
		}
	}
	return ds
}

// Columns returns the active converted columns in source order.
func (d *Dataset) Columns() []ConvertedColumn {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]ConvertedColumn, len(d.columns))
	copy(out, d.columns)
	return out
}

// Column returns the active converted column named name.
func (d *Dataset) Column(name string) (ConvertedColumn, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := d.indexLocked(name)
	if i < 0 {
		return ConvertedColumn{}, false
	}
	return d.columns[i], true
}

// RawColumns returns the source columns. Callers must not modify them.
func (d *Dataset) RawColumns() []RawColumn {
	return d.raw
}

// Types returns the active type of each column.
func (d *Dataset) Types() []ColumnType {
	return ColumnTypes(d.Columns())
}

// InferredType returns the type inference chose for name, ignoring overrides.
func (d *Dataset) InferredType(name string) (SemanticType, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := d.indexLocked(name)
	if i < 0 {
		return Text, false
	}
	return d.inferred[i], true
}

// Overrides returns a copy of the override record.
func (d *Dataset) Overrides() OverrideRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.overrides)
}

// Records serialises the active columns into row records.
func (d *Dataset) Records() []map[string]any {
	return Records(d.Columns())
}

// RowCount is the length of the longest raw column.
func (d *Dataset) RowCount() int {
	n := 0
	for _, c := range d.raw {
		n = max(n, len(c.Cells))
	}
	return n
}

func (d *Dataset) indexLocked(name string) int {
	for i, c := range d.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
