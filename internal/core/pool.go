package core

// pool.go runs the per-column classify -> convert pipeline on a bounded set of
// goroutines. Columns are independent of each other, so each worker writes
// only its own slot of an index-aligned result slice and the output keeps the
// source column order.

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// AnalyzeOptions configures a whole-dataset analysis.
type AnalyzeOptions struct {
	// Workers bounds the number of columns processed at once.
	// Zero means GOMAXPROCS.
	Workers int
	Infer   InferOptions
}

func (o AnalyzeOptions) workers() int {
	if o.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// ColumnResult is the outcome of the pipeline for one column.
type ColumnResult struct {
	Inferred   SemanticType
	Column     ConvertedColumn
	Overridden bool
}

// AnalyzeColumn infers col's type and converts it. A Decimal column whose
// values are all whole numbers is reported as Integer.
func AnalyzeColumn(col RawColumn, opts InferOptions) ColumnResult {
	t := Infer(col, opts)
	conv := Convert(col, t)
	if t == Decimal && conv.Integral() {
		t = Integer
		conv.Type = Integer
	}
	return ColumnResult{Inferred: t, Column: conv}
}

// AnalyzeColumns runs the pipeline for every column. Columns named in pinned
// skip inference and convert straight to the pinned type. Their Inferred
// field holds the pinned type; callers restoring stored state overwrite it
// from their records.
func AnalyzeColumns(ctx context.Context, cols []RawColumn, pinned OverrideRecord, opts AnalyzeOptions) ([]ColumnResult, error) {
	results := make([]ColumnResult, len(cols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for i, col := range cols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if t, ok := pinned[col.Name]; ok {
				results[i] = ColumnResult{Inferred: t, Column: Convert(col, t), Overridden: true}
				return nil
			}
			results[i] = AnalyzeColumn(col, opts.Infer)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
