package chisqtest

import (
	"math"
	"math/rand/v2"
)

// DPRNG is a Deterministic Pseudo-Random Number Generator based on the xorshift* algorithm
// (see https://en.wikipedia.org/wiki/Xorshift#xorshift*).
// It drives the Monte Carlo p-value simulation so that a given seed always reproduces
// the same simulated p-value.
// This random number generator is not cryptographically secure.
// This random number generator is not thread-safe. Every simulation creates its own instance.
// The state must not be zero.
type DPRNG struct {
	State uint64
	Round uint64 // for debugging purposes
}

// NewDPRNG returns a DPRNG seeded with seed. If no seed or a zero seed is given,
// a random non-zero seed is drawn.
func NewDPRNG(seed ...uint64) *DPRNG {
	var s uint64
	if len(seed) > 0 {
		s = seed[0]
	}
	for s == 0 {
		s = rand.Uint64()
	}
	return &DPRNG{State: s}
}

// Uint64 returns the next pseudo-random number in the sequence.
func (r *DPRNG) Uint64() uint64 {
	x := r.State
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.State = x
	r.Round++
	return x * 0x2545F4914F6CDD1D
}

// Float64 returns a uniformly distributed float64 in [0.0, 1.0).
// It uses 52 random bits for the mantissa and never returns 1.0, NaN or Inf.
func (r *DPRNG) Float64() float64 {
	u := r.Uint64() >> 12 // 52 random bits for mantissa

	const exp uint64 = 1023
	bits := (exp << 52) | u
	return math.Float64frombits(bits) - 1.0
}

// UInt32N returns a pseudo-random number in the half-open interval [0,n) without modulo bias.
// For n=0 and n=1, UInt32N returns 0.
//
// See https://lemire.me/blog/2016/06/30/fast-random-shuffling
func (r *DPRNG) UInt32N(n uint32) uint32 {
	v := uint32(r.Uint64() >> 32)
	prod := uint64(v) * uint64(n)
	low := uint32(prod)
	if low < n {
		thresh := -n % n
		for low < thresh {
			v = uint32(r.Uint64() >> 32)
			prod = uint64(v) * uint64(n)
			low = uint32(prod)
		}
	}
	return uint32(prod >> 32)
}

// shuffle permutes xs in place (Fisher-Yates).
func (r *DPRNG) shuffle(xs []int) {
	for i := len(xs) - 1; i > 0; i-- {
		j := r.UInt32N(uint32(i + 1))
		xs[i], xs[j] = xs[j], xs[i]
	}
}
