// Package store persists uploaded datasets and their per-column type
// metadata: the inferred type name and an optional user override.
//
// Two implementations are provided. PgStore keeps everything in PostgreSQL
// through a pgx pool; MemoryStore keeps it in process memory and is used when
// no database is configured and in tests.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a dataset or column does not exist.
var ErrNotFound = errors.New("not found")

// Dataset is the stored form of an upload. Content holds the original file
// bytes so the raw grid can be rebuilt.
type Dataset struct {
	ID          string
	FileName    string
	UploadedAt  time.Time
	ProcessedAt time.Time
	Content     []byte
}

// ColumnType is the stored type metadata of one column.
type ColumnType struct {
	Column   string
	Position int
	// SourceKind describes the raw cells: "string", "number", "complex",
	// "mixed" or "empty".
	SourceKind   string
	InferredType string
	// OverrideType is empty when the user never overrode the column.
	OverrideType string
}

// Active returns the override when present, else the inferred type.
func (c ColumnType) Active() string {
	if c.OverrideType != "" {
		return c.OverrideType
	}
	return c.InferredType
}

// Store is the persistence collaborator of the inference service.
type Store interface {
	// CreateDataset stores an upload and its column metadata atomically.
	CreateDataset(ctx context.Context, ds Dataset, columns []ColumnType) error

	// SetOverride records typeName as the override of column, replacing any
	// earlier one.
	SetOverride(ctx context.Context, datasetID, column, typeName string) error

	// LoadDataset returns an upload and its columns ordered by position.
	LoadDataset(ctx context.Context, id string) (Dataset, []ColumnType, error)

	// LatestDatasetID returns the id of the most recent upload.
	LatestDatasetID(ctx context.Context) (string, error)

	// DeleteDatasetsBefore removes uploads older than cutoff with their
	// column metadata and reports how many were removed.
	DeleteDatasetsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
