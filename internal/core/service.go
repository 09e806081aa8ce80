package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/JonMunkholm/coltype/internal/logging"
	"github.com/JonMunkholm/coltype/internal/store"
	"github.com/google/uuid"
)

// UploadTimeout is the maximum duration for loading and analysing one file.
var UploadTimeout = 5 * time.Minute

// DefaultCacheSize bounds the number of datasets kept in memory.
const DefaultCacheSize = 32

// LoadFunc turns an uploaded file into raw columns. Its errors reach the
// caller unchanged.
type LoadFunc func(fileName string, r io.Reader) ([]RawColumn, error)

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Analyze   AnalyzeOptions
	CacheSize int
	Limiter   *AnalysisLimiter
}

// Service uploads, analyses and overrides datasets. Analysed datasets are
// cached; a cache miss rebuilds the dataset from the stored file bytes and
// column types.
//
// Rebuilds and overrides of one dataset id are serialised by a per-id lock
// that lives outside the cache, so eviction never yields two writable
// instances of the same dataset.
type Service struct {
	store   store.Store
	load    LoadFunc
	limiter *AnalysisLimiter
	opts    AnalyzeOptions

	mu        sync.Mutex
	datasets  map[string]*Dataset
	order     []string
	cacheSize int
	locks     map[string]*datasetLock
}

// datasetLock is a reference-counted mutex for one dataset id.
type datasetLock struct {
	mu   sync.Mutex
	refs int
}

// NewService creates a Service backed by st, reading files with load.
func NewService(st store.Store, load LoadFunc, opts ServiceOptions) *Service {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewAnalysisLimiter(0, 0)
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Service{
		store:     st,
		load:      load,
		limiter:   limiter,
		opts:      opts.Analyze,
		datasets:  make(map[string]*Dataset),
		cacheSize: size,
		locks:     make(map[string]*datasetLock),
	}
}

// Upload loads, infers and converts every column of a file, persists the
// file and its column types, and returns the new dataset.
func (s *Service) Upload(ctx context.Context, fileName string, data []byte) (*Dataset, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	id := uuid.NewString()
	logger := logging.ForDataset(ctx, id)
	start := time.Now()

	raw, err := s.load(fileName, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	results, err := AnalyzeColumns(ctx, raw, nil, s.opts)
	if err != nil {
		return nil, fmt.Errorf("analyse %s: %w", fileName, err)
	}

	uploadedAt := time.Now().UTC()
	ds := NewDataset(id, fileName, uploadedAt, raw, results)

	record := store.Dataset{
		ID:          id,
		FileName:    fileName,
		UploadedAt:  uploadedAt,
		ProcessedAt: time.Now().UTC(),
		Content:     data,
	}
	if err := s.store.CreateDataset(ctx, record, columnRecords(raw, results)); err != nil {
		return nil, fmt.Errorf("save dataset: %w", err)
	}

	s.remember(ds)

	logger.Info("dataset analysed",
		"file", fileName,
		"columns", len(raw),
		"rows", ds.RowCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ds, nil
}

// Dataset returns the dataset with the given id, rebuilding it from the
// store when it is not cached. Stored overrides take precedence over
// re-inference.
func (s *Service) Dataset(ctx context.Context, id string) (*Dataset, error) {
	if ds, ok := s.cached(id); ok {
		return ds, nil
	}

	unlock := s.lockDataset(id)
	defer unlock()
	return s.loadLocked(ctx, id)
}

// loadLocked returns the cached dataset or rebuilds it. The caller holds
// the dataset's lock.
func (s *Service) loadLocked(ctx context.Context, id string) (*Dataset, error) {
	if ds, ok := s.cached(id); ok {
		return ds, nil
	}

	record, cols, err := s.store.LoadDataset(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", id, err)
	}

	raw, err := s.load(record.FileName, bytes.NewReader(record.Content))
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w", record.FileName, err)
	}

	pinned := make(OverrideRecord, len(cols))
	inferred := make(map[string]SemanticType, len(cols))
	overridden := make(map[string]bool, len(cols))
	for _, c := range cols {
		t, err := ParseSemanticType(c.Active())
		if err != nil {
			logging.ForDataset(ctx, id).Warn("ignoring stored column type",
				"column", c.Column, "type", c.Active())
			continue
		}
		pinned[c.Column] = t
		if it, err := ParseSemanticType(c.InferredType); err == nil {
			inferred[c.Column] = it
		} else {
			inferred[c.Column] = t
		}
		overridden[c.Column] = c.OverrideType != ""
	}

	results, err := AnalyzeColumns(ctx, raw, pinned, s.opts)
	if err != nil {
		return nil, fmt.Errorf("analyse %s: %w", record.FileName, err)
	}
	for i := range results {
		name := results[i].Column.Name
		if t, ok := inferred[name]; ok {
			results[i].Inferred = t
			results[i].Overridden = overridden[name]
		}
	}

	ds := NewDataset(id, record.FileName, record.UploadedAt, raw, results)
	return s.remember(ds), nil
}

// Latest returns the most recently uploaded dataset.
func (s *Service) Latest(ctx context.Context) (*Dataset, error) {
	id, err := s.store.LatestDatasetID(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest dataset: %w", err)
	}
	return s.Dataset(ctx, id)
}

// Override validates and applies a user type choice for one column, then
// persists it. A store failure leaves the dataset unchanged. At most one
// override per dataset id is in flight, whether or not it is cached.
func (s *Service) Override(ctx context.Context, id, column, typeName string) (OverrideResult, error) {
	unlock := s.lockDataset(id)
	defer unlock()

	ds, err := s.loadLocked(ctx, id)
	if err != nil {
		return OverrideResult{Outcome: OutcomeRejected}, err
	}

	logger := logging.ForDataset(ctx, id).With("column", column, "requested", typeName)

	res, err := ds.Override(column, typeName, func(col string, t SemanticType) error {
		return s.store.SetOverride(ctx, id, col, t.String())
	})
	if err != nil {
		logger.Info("override rejected", "error", err)
		return res, err
	}
	// Re-cache in case ds was evicted while the override ran.
	s.remember(ds)

	logger.Info("override applied",
		"previous", res.Previous.String(),
		"type", res.Column.Type.String(),
		"outcome", res.Outcome.String(),
	)
	return res, nil
}

// LimiterStatus reports analysis slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForAnalyses blocks until in-flight uploads finish or ctx is done.
func (s *Service) WaitForAnalyses(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) cached(id string) (*Dataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.datasets[id]
	return ds, ok
}

// lockDataset acquires the lock for id and returns its release function.
// The lock entry is dropped once no caller holds or waits for it.
func (s *Service) lockDataset(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &datasetLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// remember caches ds, evicting the oldest entry when full. If another
// goroutine cached the same id first, that instance wins.
func (s *Service) remember(ds *Dataset) *Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.datasets[ds.ID]; ok {
		return existing
	}
	if len(s.order) >= s.cacheSize {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.datasets, oldest)
	}
	s.datasets[ds.ID] = ds
	s.order = append(s.order, ds.ID)
	return ds
}

func columnRecords(raw []RawColumn, results []ColumnResult) []store.ColumnType {
	out := make([]store.ColumnType, len(results))
	for i, r := range results {
		out[i] = store.ColumnType{
			Column:       r.Column.Name,
			Position:     i,
			SourceKind:   SourceKind(raw[i]),
			InferredType: r.Inferred.String(),
		}
		if r.Overridden {
			out[i].OverrideType = r.Column.Type.String()
		}
	}
	return out
}

// SourceKind summarises the storage kind of a raw column's present cells:
// "number", "complex", "string", "mixed" or "empty".
func SourceKind(col RawColumn) string {
	kind := CellMissing
	for _, c := range col.Cells {
		if c.IsMissing() {
			continue
		}
		switch {
		case kind == CellMissing:
			kind = c.Kind()
		case kind != c.Kind():
			return "mixed"
		}
	}
	switch kind {
	case CellNumber:
		return "number"
	case CellComplex:
		return "complex"
	case CellString:
		return "string"
	default:
		return "empty"
	}
}
