package chisqtest

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Input is observed data whose shape has been decided: either a OneWayInput or a TwoWayInput.
type Input interface {
	// Evaluate runs the chi-square test that matches the shape of the data.
	Evaluate(opts Options) (Result, error)
}

// OneWayInput holds the observed counts per category of a goodness-of-fit test.
type OneWayInput struct {
	Counts []float64
}

// TwoWayInput holds a contingency table: rows are the levels of the first variable,
// columns the levels of the second.
type TwoWayInput struct {
	Table *mat.Dense
}

// NewOneWayInput validates counts and returns them as a OneWayInput.
// The counts are copied.
func NewOneWayInput(counts []float64) (OneWayInput, error) {
	if len(counts) == 0 {
		return OneWayInput{}, fmt.Errorf("%w: observed counts must not be empty", ErrInvalidArgument)
	}
	for i, c := range counts {
		if !isFinite(c) || c < 0 {
			return OneWayInput{}, fmt.Errorf("%w: count %d is %v, want a finite non-negative number", ErrInvalidArgument, i, c)
		}
	}
	return OneWayInput{Counts: append([]float64(nil), counts...)}, nil
}

// NewTwoWayInput validates a row-major contingency table and returns it as a TwoWayInput.
// All rows must have the same, non-zero length.
func NewTwoWayInput(rows [][]float64) (TwoWayInput, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return TwoWayInput{}, fmt.Errorf("%w: contingency table must have at least one row and one column", ErrInvalidArgument)
	}
	nCol := len(rows[0])
	data := make([]float64, 0, len(rows)*nCol)
	for i, row := range rows {
		if len(row) != nCol {
			return TwoWayInput{}, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidArgument, i, len(row), nCol)
		}
		for j, c := range row {
			if !isFinite(c) || c < 0 {
				return TwoWayInput{}, fmt.Errorf("%w: cell [%d][%d] is %v, want a finite non-negative number", ErrInvalidArgument, i, j, c)
			}
		}
		data = append(data, row...)
	}
	return TwoWayInput{Table: mat.NewDense(len(rows), nCol, data)}, nil
}

// Classify decides once whether x is a sequence of counts or a two-dimensional table of counts.
// Sequences are slices of a numeric type or []any of numbers; tables are slices of such
// slices or any mat.Matrix other than a mat.Vector, which is a sequence. Anything else fails
// with ErrInvalidArgument.
func Classify(x any) (Input, error) {
	switch v := x.(type) {
	case OneWayInput:
		return oneWay(v.Counts)
	case TwoWayInput:
		if v.Table == nil {
			return nil, fmt.Errorf("%w: contingency table is nil", ErrInvalidArgument)
		}
		return twoWayFromMatrix(v.Table)
	case mat.Vector:
		return oneWay(mat.Col(nil, 0, v))
	case mat.Matrix:
		return twoWayFromMatrix(v)
	case [][]float64:
		return twoWay(v)
	case [][]float32:
		return twoWayFromRows(v)
	case [][]int:
		return twoWayFromRows(v)
	case [][]int32:
		return twoWayFromRows(v)
	case [][]int64:
		return twoWayFromRows(v)
	case [][]uint:
		return twoWayFromRows(v)
	case [][]uint32:
		return twoWayFromRows(v)
	case [][]uint64:
		return twoWayFromRows(v)
	case [][]any:
		return twoWayFromRows(v)
	case []any:
		// decoded JSON arrays of arrays
		if len(v) > 0 {
			if _, isNumber := toFloat(v[0]); !isNumber {
				return twoWayFromRows(v)
			}
		}
	}
	counts, err := toFloats(x)
	if err != nil {
		return nil, fmt.Errorf("%w: observed data must be a sequence or a matrix of counts: %v", ErrInvalidArgument, err)
	}
	return oneWay(counts)
}

func oneWay(counts []float64) (Input, error) {
	in, err := NewOneWayInput(counts)
	if err != nil {
		return nil, err
	}
	return in, nil
}

func twoWay(rows [][]float64) (Input, error) {
	in, err := NewTwoWayInput(rows)
	if err != nil {
		return nil, err
	}
	return in, nil
}

func twoWayFromRows[T any](rows []T) (Input, error) {
	table := make([][]float64, len(rows))
	for i, row := range rows {
		r, err := toFloats(row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidArgument, i, err)
		}
		table[i] = r
	}
	return twoWay(table)
}

func twoWayFromMatrix(m mat.Matrix) (Input, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("%w: contingency table must have at least one row and one column", ErrInvalidArgument)
	}
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m)
	}
	return twoWay(rows)
}
