package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is the subset of *pgxpool.Pool used by PgStore.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore is a Store backed by PostgreSQL.
type PgStore struct {
	db DBTX
}

// NewPgStore wraps a pool. Call Migrate once before use.
func NewPgStore(db DBTX) *PgStore {
	return &PgStore{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *PgStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

const (
	insertDatasetSQL = `
		INSERT INTO datasets (id, file_name, uploaded_at, processed_at, content)
		VALUES ($1, $2, $3, $4, $5)`

	insertColumnSQL = `
		INSERT INTO column_types (dataset_id, column_name, position, source_kind, inferred_type, user_modified_type)
		VALUES ($1, $2, $3, $4, $5, $6)`

	updateOverrideSQL = `
		UPDATE column_types SET user_modified_type = $3
		WHERE dataset_id = $1 AND column_name = $2`

	selectDatasetSQL = `
		SELECT file_name, uploaded_at, processed_at, content
		FROM datasets WHERE id = $1`

	selectColumnsSQL = `
		SELECT column_name, position, source_kind, inferred_type, user_modified_type
		FROM column_types WHERE dataset_id = $1
		ORDER BY position`

	selectLatestSQL = `SELECT id FROM datasets ORDER BY uploaded_at DESC LIMIT 1`

	// column_types rows go with the dataset through ON DELETE CASCADE.
	deleteBeforeSQL = `DELETE FROM datasets WHERE uploaded_at < $1`
)

func (s *PgStore) CreateDataset(ctx context.Context, ds Dataset, columns []ColumnType) error {
	id, err := toPgUUID(ds.ID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, insertDatasetSQL,
		id, ds.FileName, ds.UploadedAt, toPgTimestamptz(ds.ProcessedAt), ds.Content,
	); err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range columns {
		batch.Queue(insertColumnSQL,
			id, c.Column, int32(c.Position), c.SourceKind, c.InferredType, toPgText(c.OverrideType),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert column types: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PgStore) SetOverride(ctx context.Context, datasetID, column, typeName string) error {
	id, err := toPgUUID(datasetID)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, updateOverrideSQL, id, column, toPgText(typeName))
	if err != nil {
		return fmt.Errorf("update override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("column %q of dataset %s: %w", column, datasetID, ErrNotFound)
	}
	return nil
}

func (s *PgStore) LoadDataset(ctx context.Context, idStr string) (Dataset, []ColumnType, error) {
	id, err := toPgUUID(idStr)
	if err != nil {
		return Dataset{}, nil, err
	}

	ds := Dataset{ID: idStr}
	var processed pgtype.Timestamptz
	err = s.db.QueryRow(ctx, selectDatasetSQL, id).Scan(&ds.FileName, &ds.UploadedAt, &processed, &ds.Content)
	if errors.Is(err, pgx.ErrNoRows) {
		return Dataset{}, nil, fmt.Errorf("dataset %s: %w", idStr, ErrNotFound)
	}
	if err != nil {
		return Dataset{}, nil, fmt.Errorf("select dataset: %w", err)
	}
	if processed.Valid {
		ds.ProcessedAt = processed.Time
	}

	rows, err := s.db.Query(ctx, selectColumnsSQL, id)
	if err != nil {
		return Dataset{}, nil, fmt.Errorf("select column types: %w", err)
	}
	cols, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ColumnType, error) {
		var (
			c        ColumnType
			position int32
			override pgtype.Text
		)
		if err := row.Scan(&c.Column, &position, &c.SourceKind, &c.InferredType, &override); err != nil {
			return ColumnType{}, err
		}
		c.Position = int(position)
		c.OverrideType = override.String
		return c, nil
	})
	if err != nil {
		return Dataset{}, nil, fmt.Errorf("scan column types: %w", err)
	}
	return ds, cols, nil
}

func (s *PgStore) LatestDatasetID(ctx context.Context) (string, error) {
	var id pgtype.UUID
	err := s.db.QueryRow(ctx, selectLatestSQL).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("latest dataset: %w", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("select latest dataset: %w", err)
	}
	return uuid.UUID(id.Bytes).String(), nil
}

func (s *PgStore) DeleteDatasetsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, deleteBeforeSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old datasets: %w", err)
	}
	return tag.RowsAffected(), nil
}

// toPgUUID parses a dataset id. A malformed id cannot exist, so it maps to ErrNotFound.
func toPgUUID(s string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("dataset %q: %w", s, ErrNotFound)
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

// toPgText maps "" to NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgTimestamptz maps the zero time to NULL.
func toPgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
