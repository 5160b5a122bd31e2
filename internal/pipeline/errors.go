package pipeline

import (
	"fmt"
	"strings"
)

// SchemaError reports canonical columns that could not be resolved after
// alias matching, along with the columns actually present in the input.
type SchemaError struct {
	Missing []string
	Present []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing columns: %s (present: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Present, ", "))
}

// InsufficientDataError reports a series with no usable rows, or too few
// observations for the operation that raised it.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string { return e.Reason }
