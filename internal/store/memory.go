package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]Dataset
	columns  map[string][]ColumnType
	order    []string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		datasets: make(map[string]Dataset),
		columns:  make(map[string][]ColumnType),
	}
}

func (m *MemoryStore) CreateDataset(_ context.Context, ds Dataset, columns []ColumnType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.datasets[ds.ID]; exists {
		return fmt.Errorf("dataset %s already exists", ds.ID)
	}
	ds.Content = slices.Clone(ds.Content)
	m.datasets[ds.ID] = ds
	m.columns[ds.ID] = slices.Clone(columns)
	m.order = append(m.order, ds.ID)
	return nil
}

func (m *MemoryStore) SetOverride(_ context.Context, datasetID, column, typeName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cols, ok := m.columns[datasetID]
	if !ok {
		return fmt.Errorf("dataset %s: %w", datasetID, ErrNotFound)
	}
	for i := range cols {
		if cols[i].Column == column {
			cols[i].OverrideType = typeName
			return nil
		}
	}
	return fmt.Errorf("column %q of dataset %s: %w", column, datasetID, ErrNotFound)
}

func (m *MemoryStore) LoadDataset(_ context.Context, id string) (Dataset, []ColumnType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ds, ok := m.datasets[id]
	if !ok {
		return Dataset{}, nil, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	cols := slices.Clone(m.columns[id])
	slices.SortFunc(cols, func(a, b ColumnType) int { return a.Position - b.Position })
	return ds, cols, nil
}

func (m *MemoryStore) LatestDatasetID(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.order) == 0 {
		return "", fmt.Errorf("latest dataset: %w", ErrNotFound)
	}
	return m.order[len(m.order)-1], nil
}

func (m *MemoryStore) DeleteDatasetsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	kept := m.order[:0]
	for _, id := range m.order {
		if m.datasets[id].UploadedAt.Before(cutoff) {
			delete(m.datasets, id)
			delete(m.columns, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return removed, nil
}
