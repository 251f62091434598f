package chisqtest

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// simulationTolerance keeps replicates whose statistic equals the observed one up to
// rounding on the "at least as extreme" side.
const simulationTolerance = 1 - 64*Epsilon

// MaxSimulatedTotal is the largest total count a simulated p-value accepts. Every replicate
// draws each observation once, and two-way shuffles index observations with 32 bits.
const MaxSimulatedTotal = math.MaxUint32

func checkSimulatedTotal(total float64) error {
	if total > MaxSimulatedTotal {
		return fmt.Errorf("%w: simulated p-values need a total count of at most %d, got %v", ErrInvalidArgument, uint64(MaxSimulatedTotal), total)
	}
	return nil
}

// monteCarloPValue estimates P(T >= observed) from simulated statistics as
// (1 + hits) / (replicates + 1), which is never zero.
//
// Each replicate calls draw once. A seed of 0 uses a random seed; any other seed
// reproduces the same p-value across calls.
func monteCarloPValue(observed float64, replicates uint64, seed uint64, draw func(rng *DPRNG) float64) float64 {
	rng := NewDPRNG(seed)
	threshold := observed * simulationTolerance
	var hits uint64
	for range replicates {
		if draw(rng) >= threshold {
			hits++
		}
	}
	return float64(1+hits) / float64(replicates+1)
}

// simulateGoodnessOfFit draws multinomial samples of the observed size from probs and
// compares their statistics with the observed one.
func simulateGoodnessOfFit(counts, probs, expected []float64, statistic float64, replicates, seed uint64) (float64, error) {
	if !isIntegral(counts) {
		return 0, fmt.Errorf("%w: simulated p-values need integer counts, got %v", ErrInvalidArgument, counts)
	}
	total := floats.Sum(counts)
	if err := checkSimulatedTotal(total); err != nil {
		return 0, err
	}
	size := int(total)
	cumulative := floats.CumSum(make([]float64, len(probs)), probs)
	last := len(probs) - 1
	sample := make([]float64, len(probs))

	draw := func(rng *DPRNG) float64 {
		clear(sample)
		for range size {
			u := rng.Float64()
			k := sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > u })
			// cumulative sums may fall short of 1 by rounding
			k = min(k, last)
			sample[k]++
		}
		return goodnessOfFitStatistic(sample, expected)
	}
	return monteCarloPValue(statistic, replicates, seed, draw), nil
}

// simulateIndependence draws tables with the observed row and column sums by pairing the
// row label of every observation with a shuffled column label. Continuity correction is
// never applied to simulated tables.
func simulateIndependence(table mat.Matrix, expected *mat.Dense, statistic float64, replicates, seed uint64) (float64, error) {
	nRow, nCol := table.Dims()
	if err := checkSimulatedTotal(mat.Sum(table)); err != nil {
		return 0, err
	}
	var rowLabels, colLabels []int
	for i := range nRow {
		for j := range nCol {
			v := table.At(i, j)
			if v != math.Trunc(v) {
				return 0, fmt.Errorf("%w: simulated p-values need integer counts, cell [%d][%d] is %v", ErrInvalidArgument, i, j, v)
			}
			for range int(v) {
				rowLabels = append(rowLabels, i)
				colLabels = append(colLabels, j)
			}
		}
	}
	sample := mat.NewDense(nRow, nCol, nil)
	var summands mat.Dense

	draw := func(rng *DPRNG) float64 {
		sample.Zero()
		rng.shuffle(colLabels)
		for k, i := range rowLabels {
			j := colLabels[k]
			sample.Set(i, j, sample.At(i, j)+1)
		}
		summands.Sub(sample, expected)
		summands.MulElem(&summands, &summands)
		summands.DivElem(&summands, expected)
		return mat.Sum(&summands)
	}
	return monteCarloPValue(statistic, replicates, seed, draw), nil
}
