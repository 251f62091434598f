package chisqtest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// TestKind tells which chi-square test produced a Result.
type TestKind int

const (
	// OneWay is the goodness-of-fit test of a count sequence against a categorical distribution.
	OneWay TestKind = iota
	// TwoWay is the test of independence on a contingency table.
	TwoWay
)

const (
	nullUniform      = "values occur in each category with equal frequency"
	nullProbs        = "the empirical distribution does not differ from the theoretical distribution given by probs"
	nullIndependence = "there is no association between the variables"
)

// YatesLimit caps the continuity correction subtracted from every cell of a 2x2 table.
const YatesLimit = 0.5

// Result holds the outcome of a chi-square test.
type Result struct {
	Kind             TestKind
	Statistic        float64
	DegreesOfFreedom int
	PValue           float64
	NullHypothesis   string
	// Correction is the continuity correction subtracted from each absolute deviation, 0 if none.
	Correction float64
	// Expected holds the expected counts under the null hypothesis, shaped like the input.
	// One-way results are a single row.
	Expected *mat.Dense
	// Residuals holds the Pearson residuals (observed-expected)/sqrt(expected).
	Residuals *mat.Dense
	// Replicates is the number of simulated samples behind PValue, 0 for the asymptotic p-value.
	Replicates uint64
}

// ChiSquareTest computes a one-way goodness-of-fit test when x is a sequence of counts and a
// two-way test of independence when x is a matrix of counts (see Classify for the accepted types).
// The optional options argument is an Options, *Options or map[string]any (see ParseOptions).
// Options are validated before any computation starts.
func ChiSquareTest(x any, options ...any) (Result, error) {
	var opts Options
	switch len(options) {
	case 0:
	case 1:
		var err error
		if opts, err = ParseOptions(options[0]); err != nil {
			return Result{}, err
		}
	default:
		return Result{}, fmt.Errorf("%w: at most one options argument, got %d", ErrInvalidArgument, len(options))
	}
	in, err := Classify(x)
	if err != nil {
		return Result{}, err
	}
	return in.Evaluate(opts)
}

// GoodnessOfFit runs the one-way test on counts.
func GoodnessOfFit(counts []float64, opts Options) (Result, error) {
	in, err := NewOneWayInput(counts)
	if err != nil {
		return Result{}, err
	}
	return in.Evaluate(opts)
}

// Independence runs the two-way test on a row-major contingency table.
func Independence(table [][]float64, opts Options) (Result, error) {
	in, err := NewTwoWayInput(table)
	if err != nil {
		return Result{}, err
	}
	return in.Evaluate(opts)
}

// Evaluate tests the counts against opts.Probs, or against the uniform distribution when
// opts.Probs is nil. The statistic is Σ (observed-expected)²/expected with expected = N*probs
// and n-1 degrees of freedom.
func (in OneWayInput) Evaluate(opts Options) (Result, error) {
	opts, err := opts.Validate()
	if err != nil {
		return Result{}, err
	}
	n := len(in.Counts)
	if n == 0 {
		return Result{}, fmt.Errorf("%w: observed counts must not be empty", ErrInvalidArgument)
	}

	probs := opts.Probs
	nullHypothesis := nullProbs
	if probs == nil {
		probs = make([]float64, n)
		for i := range probs {
			probs[i] = 1 / float64(n)
		}
		nullHypothesis = nullUniform
	} else if len(probs) != n {
		return Result{}, fmt.Errorf("%w: probs must have the same number of elements as the observed counts (%d), got %d: %v", ErrInvalidOption, n, len(probs), probs)
	}

	total := floats.Sum(in.Counts)
	expected := floats.ScaleTo(make([]float64, n), total, probs)
	for i, e := range expected {
		if e == 0 {
			return Result{}, fmt.Errorf("%w: expected count of category %d is zero (total %v, probability %v)", ErrInvalidArgument, i, total, probs[i])
		}
	}

	statistic := goodnessOfFitStatistic(in.Counts, expected)
	df := n - 1
	res := Result{
		Kind:             OneWay,
		Statistic:        statistic,
		DegreesOfFreedom: df,
		NullHypothesis:   nullHypothesis,
		Expected:         mat.NewDense(1, n, expected),
		Residuals:        mat.NewDense(1, n, pearsonResiduals(in.Counts, expected)),
	}
	if opts.Replicates > 0 {
		res.PValue, err = simulateGoodnessOfFit(in.Counts, probs, expected, statistic, opts.Replicates, opts.Seed)
		if err != nil {
			return Result{}, err
		}
		res.Replicates = opts.Replicates
		return res, nil
	}
	res.PValue = pValue(opts.CDF, statistic, df)
	return res, nil
}

// goodnessOfFitStatistic returns Σ (observed-expected)²/expected.
func goodnessOfFitStatistic(observed, expected []float64) float64 {
	summands := floats.SubTo(make([]float64, len(observed)), observed, expected)
	floats.Mul(summands, summands)
	floats.Div(summands, expected)
	return floats.Sum(summands)
}

func pearsonResiduals(observed, expected []float64) []float64 {
	r := floats.SubTo(make([]float64, len(observed)), observed, expected)
	for i, e := range expected {
		r[i] /= math.Sqrt(e)
	}
	return r
}

// Evaluate tests the table for independence of its rows and columns. Expected counts are the
// outer product of row and column sums divided by the grand total, and the statistic has
// (rows-1)*(cols-1) degrees of freedom. With opts.Correct on a 2x2 table, every absolute
// deviation is reduced by min(0.5, smallest absolute deviation) before squaring.
func (in TwoWayInput) Evaluate(opts Options) (Result, error) {
	opts, err := opts.Validate()
	if err != nil {
		return Result{}, err
	}
	if in.Table == nil {
		return Result{}, fmt.Errorf("%w: contingency table is nil", ErrInvalidArgument)
	}
	nRow, nCol := in.Table.Dims()
	if nRow == 0 || nCol == 0 {
		return Result{}, fmt.Errorf("%w: contingency table must have at least one row and one column", ErrInvalidArgument)
	}

	rowSums, colSums := margins(in.Table)
	total := mat.Sum(in.Table)

	if total == 0 {
		return Result{}, fmt.Errorf("%w: contingency table contains no observations", ErrInvalidArgument)
	}

	var expected mat.Dense
	expected.Outer(1, mat.NewVecDense(nRow, rowSums), mat.NewVecDense(nCol, colSums))
	expected.Apply(func(_, _ int, v float64) float64 { return v / total }, &expected)
	for i := range nRow {
		for j := range nCol {
			if expected.At(i, j) == 0 {
				return Result{}, fmt.Errorf("%w: expected count of cell [%d][%d] is zero (row sum %v, column sum %v)", ErrInvalidArgument, i, j, rowSums[i], colSums[j])
			}
		}
	}

	var absDiff mat.Dense
	absDiff.Sub(in.Table, &expected)
	absDiff.Apply(func(_, _ int, v float64) float64 { return math.Abs(v) }, &absDiff)

	// simulated tables are compared without correction
	var yates float64
	if opts.Correct && nRow == 2 && nCol == 2 && opts.Replicates == 0 {
		yates = math.Min(YatesLimit, mat.Min(&absDiff))
	}

	var summands mat.Dense
	summands.Apply(func(_, _ int, v float64) float64 { return v - yates }, &absDiff)
	summands.MulElem(&summands, &summands)
	summands.DivElem(&summands, &expected)
	statistic := mat.Sum(&summands)

	var residuals mat.Dense
	residuals.Sub(in.Table, &expected)
	residuals.Apply(func(i, j int, v float64) float64 { return v / math.Sqrt(expected.At(i, j)) }, &residuals)

	df := (nRow - 1) * (nCol - 1)
	res := Result{
		Kind:             TwoWay,
		Statistic:        statistic,
		DegreesOfFreedom: df,
		NullHypothesis:   nullIndependence,
		Correction:       yates,
		Expected:         &expected,
		Residuals:        &residuals,
	}
	if opts.Replicates > 0 {
		res.PValue, err = simulateIndependence(in.Table, &expected, statistic, opts.Replicates, opts.Seed)
		if err != nil {
			return Result{}, err
		}
		res.Replicates = opts.Replicates
		return res, nil
	}
	res.PValue = pValue(opts.CDF, statistic, df)
	return res, nil
}

// margins returns the row sums and the column sums of m.
func margins(m mat.Matrix) (rowSums, colSums []float64) {
	nRow, nCol := m.Dims()
	rowSums = make([]float64, nRow)
	for i := range rowSums {
		rowSums[i] = floats.Sum(mat.Row(nil, i, m))
	}
	colSums = make([]float64, nCol)
	for j := range colSums {
		colSums[j] = floats.Sum(mat.Col(nil, j, m))
	}
	return rowSums, colSums
}
