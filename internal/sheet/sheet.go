// Package sheet reads the first worksheet of an xlsx workbook as a header row followed by data
// rows, and extracts strictly numeric columns from it.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aouyang1/go-regress/design"
	"github.com/xuri/excelize/v2"
)

// maxReportedRows caps the offending row indices attached to a NonNumericError.
const maxReportedRows = 5

var (
	ErrUnreadable    = errors.New("unable to read workbook")
	ErrNoSheets      = errors.New("workbook has no sheets")
	ErrEmptySheet    = errors.New("sheet has no header row")
	ErrMissingColumn = errors.New("column does not exist in the sheet")
	ErrNoXColumns    = errors.New("at least one x column is required")
	ErrNonNumeric    = errors.New("column must be entirely numeric")
)

// NonNumericError lists the data rows of a column that could not be parsed as finite numbers.
type NonNumericError struct {
	Column string
	Rows   []int
}

func (e *NonNumericError) Error() string {
	return fmt.Sprintf("column %q must be entirely numeric, offending rows %v", e.Column, e.Rows)
}

func (e *NonNumericError) Is(target error) bool {
	return target == ErrNonNumeric
}

// MissingColumnError names a requested column that is not a header of the sheet.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q does not exist in the sheet", e.Column)
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// Sheet is a header row with trimmed names and the data rows below it. Every row has one
// cell per header.
type Sheet struct {
	Name    string
	headers []string
	index   map[string]int
	rows    [][]string
}

// Open reads the workbook at path.
func Open(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrUnreadable, err)
	}
	defer f.Close()
	return fromFile(f)
}

// Read reads a workbook from r.
func Read(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrUnreadable, err)
	}
	defer f.Close()
	return fromFile(f)
}

func fromFile(f *excelize.File) (*Sheet, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	name := sheets[0]
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrUnreadable, err)
	}
	return New(name, rows)
}

// New builds a sheet from raw rows where the first row holds the headers. Short rows are
// padded with empty cells and trailing rows with no values are dropped.
func New(name string, rows [][]string) (*Sheet, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptySheet
	}

	headers := make([]string, len(rows[0]))
	index := make(map[string]int, len(headers))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
		if _, exists := index[headers[i]]; !exists {
			index[headers[i]] = i
		}
	}

	data := rows[1:]
	for len(data) > 0 && blank(data[len(data)-1]) {
		data = data[:len(data)-1]
	}

	padded := make([][]string, len(data))
	for i, row := range data {
		cells := make([]string, len(headers))
		copy(cells, row)
		padded[i] = cells
	}

	return &Sheet{
		Name:    name,
		headers: headers,
		index:   index,
		rows:    padded,
	}, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Headers returns the trimmed header names in sheet order.
func (s *Sheet) Headers() []string {
	out := make([]string, len(s.headers))
	copy(out, s.headers)
	return out
}

// Len returns the number of data rows.
func (s *Sheet) Len() int {
	return len(s.rows)
}

func (s *Sheet) Has(column string) bool {
	_, exists := s.index[column]
	return exists
}

// Column returns the raw cells of a column.
func (s *Sheet) Column(column string) ([]string, error) {
	idx, exists := s.index[column]
	if !exists {
		return nil, &MissingColumnError{Column: column}
	}
	out := make([]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Numeric parses every cell of a column as a finite number. The error lists up to five data
// row indices, counted from zero below the header, that failed to parse.
func (s *Sheet) Numeric(column string) ([]float64, error) {
	cells, err := s.Column(column)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(cells))
	var bad []int
	for i, cell := range cells {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			if len(bad) < maxReportedRows {
				bad = append(bad, i)
			}
			continue
		}
		values[i] = v
	}
	if len(bad) > 0 {
		return nil, &NonNumericError{Column: column, Rows: bad}
	}
	return values, nil
}

// Columns extracts the dependent column y and the independent columns xs. Every column must
// exist and be numeric.
func (s *Sheet) Columns(y string, xs []string) ([]float64, design.Columns, error) {
	if len(xs) == 0 {
		return nil, nil, ErrNoXColumns
	}
	if !s.Has(y) {
		return nil, nil, &MissingColumnError{Column: y}
	}
	for _, x := range xs {
		if !s.Has(x) {
			return nil, nil, &MissingColumnError{Column: x}
		}
	}

	yData, err := s.Numeric(y)
	if err != nil {
		return nil, nil, err
	}
	x := make(design.Columns, len(xs))
	for _, name := range xs {
		col, err := s.Numeric(name)
		if err != nil {
			return nil, nil, err
		}
		x[name] = col
	}
	return yData, x, nil
}

// Resolve finds a header matching name case insensitively after trimming. If none matches,
// the aliases are tried in order.
func (s *Sheet) Resolve(name string, aliases ...string) (string, bool) {
	for _, candidate := range append([]string{name}, aliases...) {
		want := strings.ToLower(strings.TrimSpace(candidate))
		if want == "" {
			continue
		}
		for _, h := range s.headers {
			if strings.ToLower(h) == want {
				return h, true
			}
		}
	}
	return "", false
}

// Records returns one map per data row keyed by the keys of fields, holding the cell of the
// column each key maps to.
func (s *Sheet) Records(fields map[string]string) ([]map[string]string, error) {
	idx := make(map[string]int, len(fields))
	for key, column := range fields {
		i, exists := s.index[column]
		if !exists {
			return nil, &MissingColumnError{Column: column}
		}
		idx[key] = i
	}

	out := make([]map[string]string, len(s.rows))
	for r, row := range s.rows {
		rec := make(map[string]string, len(idx))
		for key, i := range idx {
			rec[key] = row[i]
		}
		out[r] = rec
	}
	return out, nil
}

// SplitColumns parses a comma separated list of column names, dropping blanks.
func SplitColumns(list string) []string {
	var out []string
	for _, c := range strings.Split(list, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
