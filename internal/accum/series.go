package accum

import (
	"math"
	"time"
)

// U64Series is the running-moments accumulator for a u64 series: count, sum,
// min, max, last, and the Welford online mean/variance. AddPoint is
// deliberately lock-free over these fields (spec: the hot path must not
// block the filesystem thread); callers accept that a reader racing an
// AddPoint may observe a torn snapshot. Point-in-time consistency is not
// guaranteed, only eventual consistency.
type U64Series struct {
	Reset ResetBlock

	count uint64
	sum   uint64
	min   uint64
	max   uint64
	last  uint64

	mean     float64
	variance float64 // aggregated Welford variance, sum of (x-mean_prev)(x-mean_new)
}

// NewU64Series returns a freshly initialized series with its reset block
// armed at the current time and the interval disabled.
func NewU64Series() *U64Series {
	s := &U64Series{}
	s.clear()
	s.Reset.init(time.Now())
	return s
}

func (s *U64Series) clear() {
	s.count = 0
	s.sum = 0
	s.min = math.MaxUint64
	s.max = 0
	s.last = 0
	s.mean = 0
	s.variance = 0
}

// AddPoint records one sample, performing a pending reset first if one is
// due.
func (s *U64Series) AddPoint(v uint64) {
	now := time.Now()
	if s.Reset.IsResetDue(now) {
		s.clear()
		s.Reset.clearFlag()
	}

	s.min = minU64(s.min, v)
	s.max = maxU64(s.max, v)
	s.last = v
	s.count++
	s.sum += v

	// Welford: delta against the pre-update mean, then against the
	// post-update mean.
	fv := float64(v)
	delta := fv - s.mean
	s.mean += delta / float64(s.count)
	delta2 := fv - s.mean
	s.variance += delta * delta2
}

// Count returns the number of samples since the last reset.
func (s *U64Series) Count() uint64 { return s.count }

// Sum returns the running sum.
func (s *U64Series) Sum() uint64 { return s.sum }

// Min returns the running minimum, or MaxUint64 if no samples yet.
func (s *U64Series) Min() uint64 { return s.min }

// Max returns the running maximum, or 0 if no samples yet.
func (s *U64Series) Max() uint64 { return s.max }

// Last returns the most recently added sample.
func (s *U64Series) Last() uint64 { return s.last }

// Avg returns sum/count, or 0 if count is 0.
func (s *U64Series) Avg() uint64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / s.count
}

// Mean returns the Welford running mean.
func (s *U64Series) Mean() float64 { return s.mean }

// Stddev is named for the filesystem file it backs, but reports the
// aggregated variance (variance/(count-1)), not its square root. This
// reproduces a quirk in the original implementation that callers have come
// to depend on; see the Open Questions note in SPEC_FULL.md.
func (s *U64Series) Stddev() float64 {
	if s.count < 2 {
		return 0
	}
	return s.variance / float64(s.count-1)
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
