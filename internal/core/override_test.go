package core

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// newTestDataset analyses cols the way an upload does.
func newTestDataset(t *testing.T, cols ...RawColumn) *Dataset {
	t.Helper()
	results, err := AnalyzeColumns(context.Background(), cols, nil, AnalyzeOptions{})
	if err != nil {
		t.Fatalf("AnalyzeColumns failed: %v", err)
	}
	return NewDataset("ds-1", "test.csv", time.Now(), cols, results)
}

// ----------------------------------------------------------------------------
// Override Tests
// ----------------------------------------------------------------------------

func TestOverride_Accepted(t *testing.T) {
	ds := newTestDataset(t, TextColumn("qty", "1", "2", ""))

	if got, _ := ds.Column("qty"); got.Type != Integer {
		t.Fatalf("inferred type = %v, want Integer", got.Type)
	}

	var committed SemanticType
	res, err := ds.Override("qty", "Text", func(col string, typ SemanticType) error {
		committed = typ
		return nil
	})
	if err != nil {
		t.Fatalf("Override failed: %v", err)
	}

	if res.Outcome != OutcomeConverted {
		t.Errorf("Outcome = %v, want converted", res.Outcome)
	}
	if res.Previous != Integer {
		t.Errorf("Previous = %v, want Integer", res.Previous)
	}
	if committed != Text {
		t.Errorf("committed = %v, want Text", committed)
	}

	col, _ := ds.Column("qty")
	if col.Type != Text {
		t.Errorf("active type = %v, want Text", col.Type)
	}
	if got := ds.Overrides()["qty"]; got != Text {
		t.Errorf("override record = %v, want Text", got)
	}
	if inferred, _ := ds.InferredType("qty"); inferred != Integer {
		t.Errorf("InferredType = %v, want Integer", inferred)
	}
}

func TestOverride_RejectsDataLoss(t *testing.T) {
	ds := newTestDataset(t, TextColumn("code", "abc", "1", "2"))
	before, _ := ds.Column("code")

	res, err := ds.Override("code", "Integer", nil)
	if !errors.Is(err, ErrIncompatibleData) {
		t.Fatalf("err = %v, want ErrIncompatibleData", err)
	}
	if res.Outcome != OutcomeRejected {
		t.Errorf("Outcome = %v, want rejected", res.Outcome)
	}

	var oe *OverrideError
	if !errors.As(err, &oe) {
		t.Fatalf("err is %T, want *OverrideError", err)
	}
	if oe.Lost != 1 {
		t.Errorf("Lost = %d, want 1", oe.Lost)
	}
	if len(oe.Samples) != 1 || oe.Samples[0] != "abc" {
		t.Errorf("Samples = %q, want [abc]", oe.Samples)
	}

	after, _ := ds.Column("code")
	if after.Type != before.Type {
		t.Errorf("type changed from %v to %v", before.Type, after.Type)
	}
	assertValues(t, after.Values, before.Values)
	if len(ds.Overrides()) != 0 {
		t.Errorf("override record = %v, want empty", ds.Overrides())
	}
}

func TestOverride_RejectsUnserialisableDecimal(t *testing.T) {
	ds := newTestDataset(t, TextColumn("v", "1e400", "2.5"))

	_, err := ds.Override("v", "Decimal", nil)
	if !errors.Is(err, ErrIncompatibleData) {
		t.Fatalf("err = %v, want ErrIncompatibleData", err)
	}
	if _, err := json.Marshal(ds.Records()); err != nil {
		t.Errorf("Records no longer encode: %v", err)
	}
}

func TestOverride_AlreadyMissingCellsDoNotCount(t *testing.T) {
	// "banana" is already missing under the inferred Date type.
	ds := newTestDataset(t, TextColumn("when", "2024-01-15", "banana"))

	res, err := ds.Override("when", "Date", nil)
	if err != nil {
		t.Fatalf("Override failed: %v", err)
	}
	if res.Outcome != OutcomeCoerced {
		t.Errorf("Outcome = %v, want coerced", res.Outcome)
	}
	if res.Column.Coerced != 1 {
		t.Errorf("Coerced = %d, want 1", res.Column.Coerced)
	}
}

func TestOverride_RecoversMissingCells(t *testing.T) {
	ds := newTestDataset(t, TextColumn("when", "2024-01-15", "banana"))

	res, err := ds.Override("when", "text", nil)
	if err != nil {
		t.Fatalf("Override failed: %v", err)
	}
	for i, v := range res.Column.Values {
		if v.IsMissing() {
			t.Errorf("value %d is missing after override to Text", i)
		}
	}
}

func TestOverride_UnsupportedType(t *testing.T) {
	ds := newTestDataset(t, TextColumn("n", "1", "2"))

	res, err := ds.Override("n", "Float128", nil)
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
	if errors.Is(err, ErrIncompatibleData) {
		t.Error("unsupported type must be distinguishable from incompatible data")
	}
	if res.Outcome != OutcomeRejected {
		t.Errorf("Outcome = %v, want rejected", res.Outcome)
	}
}

func TestOverride_UnknownColumn(t *testing.T) {
	ds := newTestDataset(t, TextColumn("n", "1", "2"))

	_, err := ds.Override("missing", "Text", nil)
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("err = %v, want ErrColumnNotFound", err)
	}
}

func TestOverride_Aliases(t *testing.T) {
	ds := newTestDataset(t, TextColumn("wait", "5 days", "lunch"))

	res, err := ds.Override("wait", "Text", nil)
	if err != nil {
		t.Fatalf("Override to Text failed: %v", err)
	}
	if res.Column.Type != Text {
		t.Fatalf("type = %v, want Text", res.Column.Type)
	}

	_, err = ds.Override("wait", "timedelta64", nil)
	if !errors.Is(err, ErrIncompatibleData) {
		t.Fatalf("err = %v, want ErrIncompatibleData (lunch would be lost)", err)
	}
}

func TestOverride_CommitFailureLeavesDatasetUnchanged(t *testing.T) {
	ds := newTestDataset(t, TextColumn("qty", "1", "2"))
	errDown := errors.New("database down")

	_, err := ds.Override("qty", "Text", func(string, SemanticType) error { return errDown })
	if !errors.Is(err, errDown) {
		t.Fatalf("err = %v, want wrapped commit error", err)
	}

	col, _ := ds.Column("qty")
	if col.Type != Integer {
		t.Errorf("type = %v, want Integer", col.Type)
	}
	if len(ds.Overrides()) != 0 {
		t.Errorf("override record = %v, want empty", ds.Overrides())
	}
}

func TestOverride_DoesNotMutateRawColumn(t *testing.T) {
	raw := TextColumn("code", "abc", "1", "2")
	ds := newTestDataset(t, raw)

	_, _ = ds.Override("code", "Integer", nil)
	_, _ = ds.Override("code", "Category", nil)

	for i, c := range ds.RawColumns()[0].Cells {
		if c != raw.Cells[i] {
			t.Errorf("raw cell %d changed to %q", i, c.String())
		}
	}
}

func TestOverride_Concurrent(t *testing.T) {
	ds := newTestDataset(t, TextColumn("pet", "dog", "cat", "dog", "cat", "dog"))
	choices := []string{"Text", "Category"}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inFlight int
		maxSeen  int
	)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ds.Override("pet", choices[i%2], func(string, SemanticType) error {
				mu.Lock()
				inFlight++
				maxSeen = max(maxSeen, inFlight)
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("Override failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("max concurrent commits = %d, want 1", maxSeen)
	}

	col, _ := ds.Column("pet")
	if got := ds.Overrides()["pet"]; got != col.Type {
		t.Errorf("override record %v disagrees with active type %v", got, col.Type)
	}
}

func TestOverrideError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  *OverrideError
		want string
	}{
		{
			name: "unsupported",
			err:  &OverrideError{Column: "n", Requested: "Float128", Err: ErrUnsupportedType},
			want: `unsupported data type "Float128" for column "n"`,
		},
		{
			name: "incompatible",
			err: &OverrideError{
				Column: "code", Requested: "Integer", Type: Integer,
				Lost: 1, Samples: []string{"abc"}, Err: ErrIncompatibleData,
			},
			want: `data incompatible with type Integer: column "code" would lose 1 value(s) ("abc")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
