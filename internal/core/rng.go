package core

import (
	"math"
	"math/bits"
	"math/rand/v2"
)

// DefaultSeed is used when a request carries no seed.
const DefaultSeed uint64 = 42

// Rand is the single random stream threaded through one generation call.
//
// Every helper consumes exactly one Uint64 from the underlying PCG source,
// so the number of draws made by a caller depends only on its own control
// flow, never on the values drawn. Range reduction is multiply-high without
// rejection; the tiny bias is acceptable for synthetic data.
type Rand struct {
	src *rand.PCG
}

// NewRand returns a stream seeded with seed.
func NewRand(seed uint64) *Rand {
	return &Rand{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// Uint64 draws the next raw value.
func (r *Rand) Uint64() uint64 {
	return r.src.Uint64()
}

// IntN returns a value in [0, n). n <= 0 returns 0 without drawing.
func (r *Rand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	hi, _ := bits.Mul64(r.src.Uint64(), uint64(n))
	return int(hi)
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.src.Uint64()>>11) / (1 << 53)
}

// Chance reports true with probability p.
func (r *Rand) Chance(p float64) bool {
	return r.Float64() < p
}

// Int64Range returns a value in [lo, hi]; hi < lo yields lo.
func (r *Rand) Int64Range(lo, hi int64) int64 {
	if hi <= lo {
		r.src.Uint64()
		return lo
	}
	span := uint64(hi-lo) + 1
	if span == 0 { // full int64 range
		return int64(r.src.Uint64())
	}
	v, _ := bits.Mul64(r.src.Uint64(), span)
	return lo + int64(v)
}

// FloatRange returns a value in [lo, hi).
func (r *Rand) FloatRange(lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// Weighted picks an index with probability proportional to weights.
func (r *Rand) Weighted(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	target := r.Float64() * total
	for i, w := range weights {
		if target < w {
			return i
		}
		target -= w
	}
	return len(weights) - 1
}

// Read fills p with random bytes so the stream can feed uuid generation.
// It draws ceil(len(p)/8) values.
func (r *Rand) Read(p []byte) (int, error) {
	for i := 0; i < len(p); i += 8 {
		v := r.src.Uint64()
		for j := 0; j < 8 && i+j < len(p); j++ {
			p[i+j] = byte(v >> (8 * j))
		}
	}
	return len(p), nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
