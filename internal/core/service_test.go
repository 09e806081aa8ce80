package core

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/JonMunkholm/coltype/internal/store"
)

// csvColumns is a minimal LoadFunc: first row is the header, every cell is text.
func csvColumns(_ string, r io.Reader) ([]RawColumn, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty file")
	}
	cols := make([]RawColumn, len(rows[0]))
	for i, name := range rows[0] {
		cols[i].Name = name
		for _, row := range rows[1:] {
			cols[i].Cells = append(cols[i].Cells, TextCell(row[i]))
		}
	}
	return cols, nil
}

const peopleCSV = "name,age,active,joined\n" +
	"alice,30,yes,2024-01-15\n" +
	"bob,41,no,2023-11-02\n" +
	"carol,,yes,not known\n"

func newTestService(t *testing.T, st store.Store, cacheSize int) *Service {
	t.Helper()
	return NewService(st, csvColumns, ServiceOptions{CacheSize: cacheSize})
}

func typesOf(ds *Dataset) map[string]SemanticType {
	out := make(map[string]SemanticType)
	for _, ct := range ds.Types() {
		out[ct.Column] = ct.DataType
	}
	return out
}

// ----------------------------------------------------------------------------
// Upload Tests
// ----------------------------------------------------------------------------

func TestService_Upload(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(t, st, 0)
	ctx := context.Background()

	ds, err := svc.Upload(ctx, "people.csv", []byte(peopleCSV))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	want := map[string]SemanticType{
		"name":   Text,
		"age":    Integer,
		"active": Boolean,
		"joined": Date,
	}
	got := typesOf(ds)
	for col, typ := range want {
		if got[col] != typ {
			t.Errorf("%s: type = %v, want %v", col, got[col], typ)
		}
	}
	if ds.RowCount() != 3 {
		t.Errorf("RowCount = %d, want 3", ds.RowCount())
	}

	record, cols, err := st.LoadDataset(ctx, ds.ID)
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}
	if record.FileName != "people.csv" || string(record.Content) != peopleCSV {
		t.Errorf("stored record = %q, %q", record.FileName, record.Content)
	}
	if len(cols) != 4 {
		t.Fatalf("stored %d columns, want 4", len(cols))
	}
	if cols[1].Column != "age" || cols[1].InferredType != "Integer" || cols[1].OverrideType != "" {
		t.Errorf("stored age column = %+v", cols[1])
	}
	if cols[0].SourceKind != "string" {
		t.Errorf("SourceKind = %q, want string", cols[0].SourceKind)
	}
}

func TestService_UploadLoaderErrorUnchanged(t *testing.T) {
	errLoad := errors.New("broken file")
	svc := NewService(store.NewMemoryStore(), func(string, io.Reader) ([]RawColumn, error) {
		return nil, errLoad
	}, ServiceOptions{})

	_, err := svc.Upload(context.Background(), "x.csv", []byte("a"))
	if err != errLoad {
		t.Errorf("err = %v, want the loader error itself", err)
	}
}

func TestService_UploadBusy(t *testing.T) {
	limiter := NewAnalysisLimiter(1, 10*time.Millisecond)
	svc := NewService(store.NewMemoryStore(), csvColumns, ServiceOptions{Limiter: limiter})

	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	_, err := svc.Upload(context.Background(), "people.csv", []byte(peopleCSV))
	if !errors.Is(err, ErrTooManyAnalyses) {
		t.Errorf("err = %v, want ErrTooManyAnalyses", err)
	}
}

// ----------------------------------------------------------------------------
// Dataset / Latest Tests
// ----------------------------------------------------------------------------

func TestService_DatasetNotFound(t *testing.T) {
	svc := newTestService(t, store.NewMemoryStore(), 0)

	_, err := svc.Dataset(context.Background(), "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("err = %v, want ErrDatasetNotFound", err)
	}

	_, err = svc.Latest(context.Background())
	if !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("Latest err = %v, want ErrDatasetNotFound", err)
	}
}

func TestService_Latest(t *testing.T) {
	svc := newTestService(t, store.NewMemoryStore(), 0)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, "first.csv", []byte(peopleCSV)); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	second, err := svc.Upload(ctx, "second.csv", []byte(peopleCSV))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	latest, err := svc.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("Latest = %s, want %s", latest.ID, second.ID)
	}
}

// ----------------------------------------------------------------------------
// Override Tests
// ----------------------------------------------------------------------------

func TestService_OverridePersists(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(t, st, 0)
	ctx := context.Background()

	ds, err := svc.Upload(ctx, "people.csv", []byte(peopleCSV))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	res, err := svc.Override(ctx, ds.ID, "age", "Text")
	if err != nil {
		t.Fatalf("Override failed: %v", err)
	}
	if res.Column.Type != Text || res.Previous != Integer {
		t.Errorf("result = %v from %v, want Text from Integer", res.Column.Type, res.Previous)
	}

	_, cols, err := st.LoadDataset(ctx, ds.ID)
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}
	if cols[1].OverrideType != "Text" || cols[1].InferredType != "Integer" {
		t.Errorf("stored age column = %+v", cols[1])
	}
}

func TestService_OverrideRejected(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(t, st, 0)
	ctx := context.Background()

	ds, err := svc.Upload(ctx, "people.csv", []byte(peopleCSV))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	_, err = svc.Override(ctx, ds.ID, "name", "Integer")
	if !errors.Is(err, ErrIncompatibleData) {
		t.Fatalf("err = %v, want ErrIncompatibleData", err)
	}

	_, cols, _ := st.LoadDataset(ctx, ds.ID)
	if cols[0].OverrideType != "" {
		t.Errorf("rejected override was stored: %+v", cols[0])
	}

	_, err = svc.Override(ctx, "00000000-0000-0000-0000-000000000000", "name", "Text")
	if !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("err = %v, want ErrDatasetNotFound", err)
	}
}

func TestService_ReloadHonoursOverrides(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(t, st, 1)
	ctx := context.Background()

	first, err := svc.Upload(ctx, "people.csv", []byte(peopleCSV))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if _, err := svc.Override(ctx, first.ID, "age", "Decimal"); err != nil {
		t.Fatalf("Override failed: %v", err)
	}

	// Evicts the first dataset from the cache.
	if _, err := svc.Upload(ctx, "other.csv", []byte(peopleCSV)); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	reloaded, err := svc.Dataset(ctx, first.ID)
	if err != nil {
		t.Fatalf("Dataset failed: %v", err)
	}
	if reloaded == first {
		t.Fatal("dataset was not rebuilt from the store")
	}

	got := typesOf(reloaded)
	if got["age"] != Decimal {
		t.Errorf("age = %v, want Decimal override", got["age"])
	}
	if got["active"] != Boolean {
		t.Errorf("active = %v, want Boolean", got["active"])
	}
	if inferred, _ := reloaded.InferredType("age"); inferred != Integer {
		t.Errorf("InferredType(age) = %v, want Integer", inferred)
	}
	if ov := reloaded.Overrides(); len(ov) != 1 || ov["age"] != Decimal {
		t.Errorf("Overrides = %v, want {age: Decimal}", ov)
	}
}

type failingStore struct {
	*store.MemoryStore
	err error
}

func (f failingStore) SetOverride(context.Context, string, string, string) error {
	return f.err
}

func TestService_OverrideStoreFailure(t *testing.T) {
	errDown := errors.New("connection refused")
	svc := newTestService(t, failingStore{MemoryStore: store.NewMemoryStore(), err: errDown}, 0)
	ctx := context.Background()

	ds, err := svc.Upload(ctx, "people.csv", []byte(peopleCSV))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	_, err = svc.Override(ctx, ds.ID, "age", "Text")
	if !errors.Is(err, errDown) {
		t.Fatalf("err = %v, want store error", err)
	}
	if col, _ := ds.Column("age"); col.Type != Integer {
		t.Errorf("age = %v after failed commit, want Integer", col.Type)
	}
}

type blockingStore struct {
	*store.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (b blockingStore) SetOverride(ctx context.Context, id, column, typ string) error {
	b.entered <- struct{}{}
	<-b.release
	return b.MemoryStore.SetOverride(ctx, id, column, typ)
}

func TestService_OverrideSerialisedAcrossEviction(t *testing.T) {
	st := blockingStore{
		MemoryStore: store.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	svc := newTestService(t, st, 1)
	ctx := context.Background()

	first, err := svc.Upload(ctx, "people.csv", []byte(peopleCSV))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if _, err := svc.Upload(ctx, "second.csv", []byte(peopleCSV)); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := svc.Override(ctx, first.ID, "age", "Category")
		errc <- err
	}()
	<-st.entered

	// Evict the instance the override is working on.
	if _, err := svc.Upload(ctx, "third.csv", []byte(peopleCSV)); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	readc := make(chan *Dataset, 1)
	go func() {
		ds, err := svc.Dataset(ctx, first.ID)
		if err != nil {
			t.Errorf("Dataset failed: %v", err)
		}
		readc <- ds
	}()

	select {
	case <-readc:
		t.Fatal("dataset was rebuilt while an override was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(st.release)
	if err := <-errc; err != nil {
		t.Fatalf("Override failed: %v", err)
	}

	read := <-readc
	if read == nil {
		t.FailNow()
	}
	if got := typesOf(read)["age"]; got != Category {
		t.Errorf("read after override: age = %v, want Category", got)
	}

	again, err := svc.Dataset(ctx, first.ID)
	if err != nil {
		t.Fatalf("Dataset failed: %v", err)
	}
	if again != read {
		t.Error("later reads should see the instance the override was applied to")
	}

	svc.mu.Lock()
	locks := len(svc.locks)
	svc.mu.Unlock()
	if locks != 0 {
		t.Errorf("%d dataset locks left after all callers finished", locks)
	}
}
