package chisqtest

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrInvalidArgument reports observed data that is neither a count sequence nor a
	// two-dimensional count matrix, or an options argument that is not a record.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidOption reports an options record with an unusable field.
	ErrInvalidOption = errors.New("invalid option")
)

// Options configures a chi-square test. The zero value is a valid configuration:
// no continuity correction, uniform probabilities and an asymptotic p-value.
type Options struct {
	// Correct applies Yates' continuity correction. It only has an effect on 2x2 tables.
	Correct bool
	// Probs is the theoretical distribution for a one-way test, one probability per category.
	// Nil means uniform (1/n per category). It is ignored for two-way tests.
	// A zero probability gives a zero expected count, which fails with ErrInvalidArgument
	// even when that category was never observed.
	Probs []float64
	// Replicates switches to a Monte Carlo p-value computed from that many simulated samples.
	// Zero uses the chi-square distribution.
	Replicates uint64
	// Seed makes simulated p-values reproducible. Zero draws a random seed.
	Seed uint64
	// CDF overrides the chi-square CDF. Nil uses ChiSquaredCDF.
	CDF CDFFunc
}

// Validate checks o and returns a normalized copy that shares no memory with o.
func (o Options) Validate() (Options, error) {
	if o.Probs != nil {
		if err := checkProbs(o.Probs); err != nil {
			return Options{}, err
		}
		o.Probs = slices.Clone(o.Probs)
	}
	return o, nil
}

func checkProbs(probs []float64) error {
	for i, p := range probs {
		if !isFinite(p) || p < 0 {
			return fmt.Errorf("%w: probs[%d]=%v is not a finite non-negative number; probs: %v", ErrInvalidOption, i, p, probs)
		}
	}
	if !sumsToOne(probs) {
		return fmt.Errorf("%w: probs must be a probability vector summing to one, sum is %v; probs: %v", ErrInvalidOption, sequentialSum(probs), probs)
	}
	return nil
}

// ParseOptions validates a loosely typed options value, such as a map decoded from JSON,
// into an Options record. raw may be an Options, a non-nil *Options or a map[string]any
// with the optional keys "correct" (bool), "probs" (list of numbers), "replicates" and
// "seed" (non-negative integers). Unknown keys are ignored. Any other value, including nil,
// fails with ErrInvalidArgument.
func ParseOptions(raw any) (Options, error) {
	switch v := raw.(type) {
	case Options:
		return v.Validate()
	case *Options:
		if v == nil {
			return Options{}, fmt.Errorf("%w: options must be a record, got nil *Options", ErrInvalidArgument)
		}
		return v.Validate()
	case map[string]any:
		return parseOptionsMap(v)
	default:
		return Options{}, fmt.Errorf("%w: options must be a record, got %T(%v)", ErrInvalidArgument, raw, raw)
	}
}

func parseOptionsMap(m map[string]any) (Options, error) {
	var opts Options
	if v, ok := m["correct"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return Options{}, fmt.Errorf("%w: correct must be a bool, got %T(%v)", ErrInvalidOption, v, v)
		}
		opts.Correct = b
	}
	if v, ok := m["probs"]; ok {
		probs, err := toFloats(v)
		if err != nil {
			return Options{}, fmt.Errorf("%w: probs must be a list of numbers: %v", ErrInvalidOption, err)
		}
		if probs == nil {
			probs = []float64{}
		}
		opts.Probs = probs
	}
	if v, ok := m["replicates"]; ok {
		n, err := toCount(v)
		if err != nil {
			return Options{}, fmt.Errorf("%w: replicates: %v", ErrInvalidOption, err)
		}
		opts.Replicates = n
	}
	if v, ok := m["seed"]; ok {
		n, err := toCount(v)
		if err != nil {
			return Options{}, fmt.Errorf("%w: seed: %v", ErrInvalidOption, err)
		}
		opts.Seed = n
	}
	return opts.Validate()
}

// toCount converts a non-negative integral number of any numeric type to uint64.
func toCount(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint:
		return uint64(n), nil
	}
	f, ok := toFloat(v)
	if !ok || !isFinite(f) || f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
		return 0, fmt.Errorf("must be a non-negative integer, got %T(%v)", v, v)
	}
	return uint64(f), nil
}

// toFloat converts any Go numeric type to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// toFloats converts a numeric slice of any element type to a fresh []float64.
func toFloats(v any) ([]float64, error) {
	switch s := v.(type) {
	case []float64:
		return slices.Clone(s), nil
	case []float32:
		return convert(s), nil
	case []int:
		return convert(s), nil
	case []int32:
		return convert(s), nil
	case []int64:
		return convert(s), nil
	case []uint:
		return convert(s), nil
	case []uint32:
		return convert(s), nil
	case []uint64:
		return convert(s), nil
	case []any:
		out := make([]float64, len(s))
		for i, e := range s {
			f, ok := toFloat(e)
			if !ok {
				return nil, fmt.Errorf("element %d is %T(%v), not a number", i, e, e)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("got %T(%v)", v, v)
}

func convert[T ~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32](s []T) []float64 {
	out := make([]float64, len(s))
	for i, e := range s {
		out[i] = float64(e)
	}
	return out
}
