package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// ----------------------------------------------------------------------------
// AnalyzeColumns Tests
// ----------------------------------------------------------------------------

func TestAnalyzeColumns_PreservesOrder(t *testing.T) {
	var cols []RawColumn
	for i := range 50 {
		switch i % 3 {
		case 0:
			cols = append(cols, TextColumn(fmt.Sprintf("n%d", i), "1", "2", "3"))
		case 1:
			cols = append(cols, TextColumn(fmt.Sprintf("b%d", i), "yes", "no"))
		default:
			cols = append(cols, TextColumn(fmt.Sprintf("t%d", i), "alpha", "beta", "gamma"))
		}
	}

	results, err := AnalyzeColumns(context.Background(), cols, nil, AnalyzeOptions{Workers: 4})
	if err != nil {
		t.Fatalf("AnalyzeColumns failed: %v", err)
	}
	if len(results) != len(cols) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(cols))
	}

	want := []SemanticType{Integer, Boolean, Text}
	for i, r := range results {
		if r.Column.Name != cols[i].Name {
			t.Errorf("results[%d].Name = %q, want %q", i, r.Column.Name, cols[i].Name)
		}
		if r.Inferred != want[i%3] {
			t.Errorf("results[%d].Inferred = %v, want %v", i, r.Inferred, want[i%3])
		}
		if r.Overridden {
			t.Errorf("results[%d].Overridden = true, want false", i)
		}
	}
}

func TestAnalyzeColumns_Pinned(t *testing.T) {
	cols := []RawColumn{
		TextColumn("qty", "1", "2"),
		TextColumn("code", "007", "042"),
	}
	pinned := OverrideRecord{"code": Text}

	results, err := AnalyzeColumns(context.Background(), cols, pinned, AnalyzeOptions{})
	if err != nil {
		t.Fatalf("AnalyzeColumns failed: %v", err)
	}

	if results[0].Column.Type != Integer || results[0].Overridden {
		t.Errorf("qty = %v (overridden %v), want inferred Integer", results[0].Column.Type, results[0].Overridden)
	}
	if results[1].Column.Type != Text || !results[1].Overridden {
		t.Errorf("code = %v (overridden %v), want pinned Text", results[1].Column.Type, results[1].Overridden)
	}
	if got := results[1].Column.Values[0].Str; got != "007" {
		t.Errorf("code[0] = %q, want leading zeros kept", got)
	}
}

func TestAnalyzeColumns_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AnalyzeColumns(ctx, []RawColumn{TextColumn("a", "1")}, nil, AnalyzeOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAnalyzeColumns_Empty(t *testing.T) {
	results, err := AnalyzeColumns(context.Background(), nil, nil, AnalyzeOptions{})
	if err != nil {
		t.Fatalf("AnalyzeColumns failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}
