package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/TomTonic/chisqtest"
	"gonum.org/v1/gonum/mat"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Goodness of fit, http://www.stat.yale.edu/Courses/1997-98/101/chigf.htm
	counts := []int{48, 35, 15, 3}
	probs := []float64{0.58, 0.345, 0.07, 0.005}
	run(logger, "goodness of fit", counts, chisqtest.Options{Probs: probs})

	// Test of independence, http://stattrek.com/chi-square-test/independence.aspx
	//
	//	        Republican  Democrat  Independent
	//	Male           200       150           50
	//	Female         250       300           50
	votes := mat.NewDense(2, 3, []float64{200, 150, 50, 250, 300, 50})
	run(logger, "independence", votes, chisqtest.Options{})

	// Yates' continuity correction is suggested when an expected count is below 5.
	small := [][]int{{4, 7}, {4, 4}}
	run(logger, "independence, corrected", small, chisqtest.Options{Correct: true})

	// The same table with a reproducible Monte Carlo p-value.
	run(logger, "independence, simulated", small, chisqtest.Options{Replicates: 2000, Seed: 42})
}

func run(logger *slog.Logger, name string, x any, opts chisqtest.Options) {
	res, err := chisqtest.ChiSquareTest(x, opts)
	if err != nil {
		logger.Error("chi-square test failed", slog.String("test", name), slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("chi-square test", slog.String("test", name),
		slog.Float64("statistic", res.Statistic),
		slog.Int("df", res.DegreesOfFreedom),
		slog.Float64("p", res.PValue))
	fmt.Println(chisqtest.Format(res))
}
