package design

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidInput is matched by every error the builder returns.
var ErrInvalidInput = errors.New("invalid input")

// Reasons reported by InvalidInputError.
const (
	ReasonNoFeatures     = "at least one independent variable is required"
	ReasonEmptyName      = "independent variable names must be non-empty"
	ReasonReservedName   = "independent variable name is reserved for the bias column"
	ReasonEmptyColumn    = "columns must not be empty"
	ReasonNonFinite      = "columns must contain only finite numbers"
	ReasonLengthMismatch = "inconsistent column lengths"
)

// InvalidInputError describes malformed column data detected before any linear algebra runs.
// Lengths is populated for length mismatches and maps each column name, including the
// dependent variable, to its observed length.
type InvalidInputError struct {
	Reason  string         `json:"error"`
	Column  string         `json:"column,omitempty"`
	Rows    []int          `json:"rows,omitempty"`
	Lengths map[string]int `json:"detalle,omitempty"`
}

func (e *InvalidInputError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Reason)
	if e.Column != "" {
		fmt.Fprintf(&sb, ", column %q", e.Column)
	}
	if len(e.Rows) > 0 {
		fmt.Fprintf(&sb, ", rows %v", e.Rows)
	}
	if len(e.Lengths) > 0 {
		names := make([]string, 0, len(e.Lengths))
		for name := range e.Lengths {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", name, e.Lengths[name]))
		}
		fmt.Fprintf(&sb, ", lengths {%s}", strings.Join(parts, " "))
	}
	return sb.String()
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Detail returns a human readable description of the offending data.
func (e *InvalidInputError) Detail() string {
	detail := strings.TrimPrefix(e.Error(), e.Reason)
	return strings.TrimPrefix(detail, ", ")
}

func invalid(reason, column string) *InvalidInputError {
	return &InvalidInputError{Reason: reason, Column: column}
}
