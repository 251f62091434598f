package chisqtest

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestGoodnessOfFitUniform(t *testing.T) {
	res, err := ChiSquareTest([]int{2, 4, 5, 3, 8, 2})
	require.NoError(t, err)

	assert.Equal(t, OneWay, res.Kind)
	assert.Equal(t, 5, res.DegreesOfFreedom)
	assert.InDelta(t, 6.5, res.Statistic, 1e-12)
	assert.InDelta(t, 0.26055, res.PValue, 1e-4)
	assert.Equal(t, nullUniform, res.NullHypothesis)
	assert.Zero(t, res.Correction)
	assert.Zero(t, res.Replicates)
}

func TestGoodnessOfFitCustomProbs(t *testing.T) {
	res, err := ChiSquareTest([]int{2, 4, 5, 3, 8, 2}, Options{Probs: []float64{0.1, 0.1, 0.1, 0.1, 0.5, 0.1}})
	require.NoError(t, err)

	assert.Equal(t, 5, res.DegreesOfFreedom)
	assert.InDelta(t, 5.5, res.Statistic, 1e-4)
	assert.InDelta(t, 0.35794, res.PValue, 1e-4)
	assert.Equal(t, nullProbs, res.NullHypothesis)
}

func TestGoodnessOfFitYaleExample(t *testing.T) {
	res, err := ChiSquareTest([]int{48, 35, 15, 3}, map[string]any{
		"probs": []any{0.58, 0.345, 0.07, 0.005},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.DegreesOfFreedom)
	assert.InDelta(t, 23.1329, res.Statistic, 1e-4)
	assert.InDelta(t, 3.7887e-5, res.PValue, 1e-8)
}

func TestGoodnessOfFitExpectedAndResiduals(t *testing.T) {
	res, err := GoodnessOfFit([]float64{2, 4, 5, 3, 8, 2}, Options{})
	require.NoError(t, err)

	r, c := res.Expected.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 6, c)
	for j := range c {
		assert.InDelta(t, 4.0, res.Expected.At(0, j), 1e-12)
	}
	assert.InDelta(t, -1.0, res.Residuals.At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, res.Residuals.At(0, 4), 1e-12)
}

func TestGoodnessOfFitSingleCategory(t *testing.T) {
	res, err := ChiSquareTest([]int{7})
	require.NoError(t, err)

	assert.Equal(t, 0, res.DegreesOfFreedom)
	assert.Zero(t, res.Statistic)
	assert.Equal(t, 1.0, res.PValue)
}

func TestGoodnessOfFitCountVector(t *testing.T) {
	res, err := ChiSquareTest(mat.NewVecDense(6, []float64{2, 4, 5, 3, 8, 2}))
	require.NoError(t, err)

	assert.Equal(t, OneWay, res.Kind)
	assert.Equal(t, 5, res.DegreesOfFreedom)
	assert.InDelta(t, 6.5, res.Statistic, 1e-12)
	assert.InDelta(t, 0.26055, res.PValue, 1e-4)
}

func TestIndependenceVotingPreferences(t *testing.T) {
	table := mat.NewDense(2, 3, []float64{200, 150, 50, 250, 300, 50})
	res, err := ChiSquareTest(table, map[string]any{"correct": false})
	require.NoError(t, err)

	assert.Equal(t, TwoWay, res.Kind)
	assert.Equal(t, 2, res.DegreesOfFreedom)
	assert.InDelta(t, 16.2037, res.Statistic, 1e-4)
	assert.InDelta(t, 0.0003, res.PValue, 1e-4)
	assert.Equal(t, nullIndependence, res.NullHypothesis)

	// row sums 400/600, column sums 450/450/100, total 1000
	assert.InDelta(t, 180.0, res.Expected.At(0, 0), 1e-9)
	assert.InDelta(t, 40.0, res.Expected.At(0, 2), 1e-9)
	assert.InDelta(t, 270.0, res.Expected.At(1, 1), 1e-9)
}

func TestIndependenceYatesCorrection(t *testing.T) {
	res, err := ChiSquareTest([][]int{{4, 7}, {4, 4}}, Options{Correct: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.DegreesOfFreedom)
	assert.InDelta(t, 0.0153, res.Statistic, 1e-4)
	assert.InDelta(t, 0.9014, res.PValue, 1e-4)
	assert.Equal(t, YatesLimit, res.Correction)

	uncorrected, err := ChiSquareTest([][]int{{4, 7}, {4, 4}}, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 0.3533, uncorrected.Statistic, 1e-4)
	assert.InDelta(t, 0.5522, uncorrected.PValue, 1e-4)
	assert.Zero(t, uncorrected.Correction)
}

func TestIndependenceCorrectionOnlyFor2x2(t *testing.T) {
	table := [][]float64{{12, 5, 7}, {3, 9, 4}}
	plain, err := Independence(table, Options{})
	require.NoError(t, err)
	corrected, err := Independence(table, Options{Correct: true})
	require.NoError(t, err)

	assert.Equal(t, plain.Statistic, corrected.Statistic)
	assert.Equal(t, plain.PValue, corrected.PValue)
	assert.Equal(t, plain.DegreesOfFreedom, corrected.DegreesOfFreedom)
	assert.Zero(t, corrected.Correction)
	assert.InDelta(t, 6.0011, plain.Statistic, 1e-4)
}

func TestIndependenceCorrectionBoundedBySmallestDeviation(t *testing.T) {
	// expected 12.5/12.5/12.5/12.5, every deviation is 0.5
	res, err := Independence([][]float64{{13, 12}, {12, 13}}, Options{Correct: true})
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Correction)
	assert.InDelta(t, 0.0, res.Statistic, 1e-12)
	assert.InDelta(t, 1.0, res.PValue, 1e-12)

	// deviations below 0.5 shrink the correction to the smallest one
	res, err = Independence([][]float64{{13, 12.2}, {12.6, 12.2}}, Options{Correct: true})
	require.NoError(t, err)
	assert.Less(t, res.Correction, YatesLimit)
	assert.GreaterOrEqual(t, res.Statistic, 0.0)
}

func TestIndependenceOneByN(t *testing.T) {
	res, err := Independence([][]float64{{3, 4, 5}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.DegreesOfFreedom)
	assert.Equal(t, 1.0, res.PValue)
}

func TestZeroExpectedCounts(t *testing.T) {
	cases := []struct {
		name string
		x    any
		opts Options
	}{
		{"all zero sequence", []int{0, 0, 0}, Options{}},
		{"zero probability", []int{1, 2, 3}, Options{Probs: []float64{0.5, 0.5, 0}}},
		{"empty table", [][]int{{0, 0}, {0, 0}}, Options{}},
		{"empty row", [][]int{{0, 0}, {3, 4}}, Options{}},
		{"empty column", [][]int{{0, 5}, {0, 4}}, Options{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ChiSquareTest(tc.x, tc.opts)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestProbsLengthMismatch(t *testing.T) {
	_, err := ChiSquareTest([]int{2, 2, 2}, Options{Probs: []float64{0.25, 0.25, 0.25, 0.25}})
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = GoodnessOfFit([]float64{2, 2, 2, 2, 2}, Options{Probs: []float64{0.5, 0.5}})
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestChiSquareTestRejectsBadData(t *testing.T) {
	values := []any{
		5,
		true,
		nil,
		math.NaN(),
		"5",
		map[string]any{},
		func() {},
		[]int{},
		[][]int{},
		[][]int{{1, 2}, {3}},
		[]float64{1, -2, 3},
		[]float64{1, math.Inf(1)},
		[]any{1, "two", 3},
		[]any{[]any{1, 2}, 3},
	}
	for _, v := range values {
		_, err := ChiSquareTest(v)
		assert.ErrorIs(t, err, ErrInvalidArgument, "input %#v", v)
	}
}

func TestChiSquareTestRejectsBadOptions(t *testing.T) {
	data := mat.NewDense(2, 2, []float64{4, 7, 4, 4})

	for _, v := range []any{"5", 5, func() {}, nil, math.NaN(), []any{}, map[string]any{}} {
		_, err := ChiSquareTest(data, map[string]any{"correct": v})
		assert.ErrorIs(t, err, ErrInvalidOption, "correct=%#v", v)
	}

	for _, v := range []any{nil, 5, "options", []float64{0.5}, (*Options)(nil)} {
		_, err := ChiSquareTest(data, v)
		assert.ErrorIs(t, err, ErrInvalidArgument, "options=%#v", v)
	}

	_, err := ChiSquareTest(data, Options{}, Options{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOptionsCheckedBeforeData(t *testing.T) {
	_, err := ChiSquareTest("not data", map[string]any{"correct": "yes"})
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestCustomCDF(t *testing.T) {
	var gotX float64
	var gotDF int
	cdf := func(x float64, df int) float64 {
		gotX, gotDF = x, df
		return 0.25
	}
	res, err := ChiSquareTest([]int{2, 4, 5, 3, 8, 2}, Options{CDF: cdf})
	require.NoError(t, err)
	assert.Equal(t, 0.75, res.PValue)
	assert.InDelta(t, 6.5, gotX, 1e-12)
	assert.Equal(t, 5, gotDF)

	// out of range CDF values are clamped
	res, err = ChiSquareTest([]int{2, 4, 5, 3, 8, 2}, Options{CDF: func(float64, int) float64 { return 1.5 }})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.PValue)
}

func TestOptionsNotModified(t *testing.T) {
	probs := []float64{0.1, 0.1, 0.1, 0.1, 0.5, 0.1}
	orig := append([]float64(nil), probs...)
	opts := Options{Probs: probs}
	_, err := ChiSquareTest([]int{2, 4, 5, 3, 8, 2}, &opts)
	require.NoError(t, err)
	assert.Equal(t, orig, probs)
	assert.Equal(t, orig, opts.Probs)
}

// randomTable returns a table of nRow x nCol cells, each in [1, 50].
func randomTable(rng *DPRNG, nRow, nCol int) [][]float64 {
	table := make([][]float64, nRow)
	for i := range table {
		table[i] = make([]float64, nCol)
		for j := range table[i] {
			table[i][j] = float64(rng.UInt32N(50) + 1)
		}
	}
	return table
}

func TestOneWayProperties(t *testing.T) {
	prop := func(raw []uint8) bool {
		if len(raw) == 0 {
			return true // skip invalid input
		}
		counts := make([]float64, len(raw))
		for i, v := range raw {
			counts[i] = float64(v) + 1
		}
		res, err := GoodnessOfFit(counts, Options{})
		if err != nil {
			t.Logf("unexpected error: %v", err)
			return false
		}
		var sumSquares float64
		for j := range len(counts) {
			sumSquares += res.Residuals.At(0, j) * res.Residuals.At(0, j)
		}
		return res.DegreesOfFreedom == len(counts)-1 &&
			res.Statistic >= 0 &&
			res.PValue >= 0 && res.PValue <= 1 &&
			math.Abs(sumSquares-res.Statistic) <= 1e-9*math.Max(1, res.Statistic)
	}

	if err := quick.Check(prop, &quick.Config{
		MaxCount: 2_000,
		Rand:     rand.New(rand.NewSource(99)),
	}); err != nil {
		t.Error(err)
	}
}

func TestTwoWayProperties(t *testing.T) {
	rng := NewDPRNG(0x1234567890ABCDEF)
	for range 2_000 {
		nRow := int(rng.UInt32N(5)) + 1
		nCol := int(rng.UInt32N(5)) + 1
		table := randomTable(rng, nRow, nCol)

		res, err := Independence(table, Options{Correct: true})
		require.NoError(t, err)
		assert.Equal(t, (nRow-1)*(nCol-1), res.DegreesOfFreedom)
		assert.GreaterOrEqual(t, res.Statistic, 0.0)
		assert.GreaterOrEqual(t, res.PValue, 0.0)
		assert.LessOrEqual(t, res.PValue, 1.0)

		plain, err := Independence(table, Options{})
		require.NoError(t, err)
		if nRow == 2 && nCol == 2 {
			assert.LessOrEqual(t, res.Statistic, plain.Statistic)
			assert.GreaterOrEqual(t, res.Correction, 0.0)
			assert.LessOrEqual(t, res.Correction, YatesLimit)
		} else {
			assert.Equal(t, plain.Statistic, res.Statistic)
			assert.Equal(t, plain.PValue, res.PValue)
		}
	}
}

func TestClassifiedInputEvaluatesLikeRawInput(t *testing.T) {
	in, err := Classify([][]int{{200, 150, 50}, {250, 300, 50}})
	require.NoError(t, err)
	_, isTwoWay := in.(TwoWayInput)
	require.True(t, isTwoWay)

	viaInput, err := in.Evaluate(Options{})
	require.NoError(t, err)
	viaEntry, err := ChiSquareTest(in)
	require.NoError(t, err)
	assert.Equal(t, viaInput.Statistic, viaEntry.Statistic)
	assert.Equal(t, viaInput.PValue, viaEntry.PValue)
}

func TestErrorsAreWrapped(t *testing.T) {
	_, err := ChiSquareTest([]int{1, 2}, Options{Probs: []float64{0.7, 0.7}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOption))
	assert.Contains(t, err.Error(), "probs")
}
