package core

import "fmt"

// maxLostSamples caps the values quoted in an incompatible-data diagnostic.
const maxLostSamples = 3

// OverrideResult describes an override attempt.
type OverrideResult struct {
	Outcome  Outcome
	Previous SemanticType
	Column   ConvertedColumn
}

// CommitFunc runs after an override validated and before it is applied.
// Returning an error aborts the override with the dataset unchanged.
type CommitFunc func(column string, t SemanticType) error

// Override converts column to the type named typeName and makes it the
// column's active type, but only if no value that is present in the current
// column would become missing. On any error the dataset is left untouched.
// Overrides on the same instance run one at a time; Service.Override also
// serialises them per dataset id across cache eviction.
func (d *Dataset) Override(column, typeName string, commit CommitFunc) (OverrideResult, error) {
	d.overrideMu.Lock()
	defer d.overrideMu.Unlock()

	rejected := OverrideResult{Outcome: OutcomeRejected}

	t, err := ParseSemanticType(typeName)
	if err != nil {
		return rejected, &OverrideError{Column: column, Requested: typeName, Err: ErrUnsupportedType}
	}

	d.mu.RLock()
	idx := d.indexLocked(column)
	var current ConvertedColumn
	if idx >= 0 {
		current = d.columns[idx]
	}
	d.mu.RUnlock()

	if idx < 0 {
		return rejected, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	rejected.Previous = current.Type

	raw := d.raw[idx]
	next := Convert(raw, t)

	if lost, samples := lostValues(raw, current, next); lost > 0 {
		return rejected, &OverrideError{
			Column:    column,
			Requested: typeName,
			Type:      t,
			Lost:      lost,
			Samples:   samples,
			Err:       ErrIncompatibleData,
		}
	}

	if commit != nil {
		if err := commit(column, t); err != nil {
			return rejected, fmt.Errorf("commit override for %q: %w", column, err)
		}
	}

	d.mu.Lock()
	d.columns[idx] = next
	d.overrides[column] = t
	d.mu.Unlock()

	return OverrideResult{Outcome: next.Outcome(), Previous: current.Type, Column: next}, nil
}

// lostValues counts cells present in current but missing in next, with up to
// maxLostSamples of their raw texts.
func lostValues(raw RawColumn, current, next ConvertedColumn) (int, []string) {
	lost := 0
	var samples []string
	for i, v := range next.Values {
		if !v.IsMissing() {
			continue
		}
		if i < len(current.Values) && current.Values[i].IsMissing() {
			continue
		}
		lost++
		if len(samples) < maxLostSamples {
			samples = append(samples, raw.Cells[i].String())
		}
	}
	return lost, samples
}
