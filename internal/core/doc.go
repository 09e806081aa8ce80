// Package core infers, converts and overrides column semantic types.
//
// This package holds all domain logic independent of any transport or
// storage layer. It can be used by web handlers, CLI tools, or tests without
// modification.
//
// # Pipeline
//
// A dataset is a list of [RawColumn]s. Each column goes through:
//
//  1. Classification: predicates such as [LooksNumeric] and [LooksDate]
//     examine single cells.
//  2. Inference: [Infer] applies an ordered rule list to the whole column
//     and picks one [SemanticType].
//  3. Conversion: [Convert] produces a [ConvertedColumn] of the same length,
//     with unparseable cells replaced by the missing value.
//  4. Formatting: [Records] and [ColumnTypes] produce the JSON-ready output.
//
// [AnalyzeColumns] runs steps 2 and 3 for every column on a bounded worker
// pool.
//
// # Overrides
//
// [Dataset.Override] lets a user replace a column's type. The change is
// accepted only if no value present in the current column would become
// missing; otherwise an [OverrideError] wrapping [ErrIncompatibleData] is
// returned and the column is unchanged.
//
// # Service
//
// [Service] ties the pipeline to a file loader and a store: it admits
// uploads through an [AnalysisLimiter], persists file bytes and column types,
// and rebuilds evicted datasets with stored overrides taking precedence.
//
// [Service.StartRetentionScheduler] removes datasets older than a configured
// age from the store and the cache.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// See error_messages.go for the code catalogue.
package core
