package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedType: the requested name is not a recognised SemanticType.
	ErrUnsupportedType = errors.New("unsupported data type")

	// ErrIncompatibleData: converting would turn present values into missing ones.
	ErrIncompatibleData = errors.New("data incompatible with type")

	// ErrColumnNotFound: the dataset has no column with the given name.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDatasetNotFound: no dataset with the given id is loaded or stored.
	ErrDatasetNotFound = errors.New("dataset not found")
)

// OverrideError explains why an override was rejected. The column is left
// exactly as it was.
type OverrideError struct {
	Column    string
	Requested string
	// Type is set once the requested name resolved.
	Type SemanticType
	// Lost is the number of present values the conversion would have dropped.
	Lost int
	// Samples holds up to three of those values.
	Samples []string
	Err     error
}

func (e *OverrideError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnsupportedType):
		return fmt.Sprintf("unsupported data type %q for column %q", e.Requested, e.Column)
	case errors.Is(e.Err, ErrIncompatibleData):
		msg := fmt.Sprintf("data incompatible with type %s: column %q would lose %d value(s)", e.Type, e.Column, e.Lost)
		if len(e.Samples) > 0 {
			msg += " (" + strings.Join(quoteAll(e.Samples), ", ") + ")"
		}
		return msg
	default:
		return fmt.Sprintf("override %q on column %q: %v", e.Requested, e.Column, e.Err)
	}
}

func (e *OverrideError) Unwrap() error { return e.Err }

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
