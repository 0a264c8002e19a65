package accum

import (
	"time"

	"github.com/solganik/procstat/internal/quantile"
)

// U32Histogram is the running accumulator backing a histogram directory:
// count, sum, last, and the fixed-size bucket array from internal/quantile.
// Like U64Series, AddPoint is lock-free over these fields.
type U32Histogram struct {
	Reset ResetBlock

	count   uint64
	sum     uint64
	last    uint64
	buckets [quantile.NumBuckets]uint32
}

// NewU32Histogram returns a freshly initialized histogram accumulator.
func NewU32Histogram() *U32Histogram {
	h := &U32Histogram{}
	h.Reset.init(time.Now())
	return h
}

func (h *U32Histogram) clear() {
	h.count = 0
	h.sum = 0
	h.last = 0
	for i := range h.buckets {
		h.buckets[i] = 0
	}
}

// AddPoint records one sample, performing a pending reset first if due.
func (h *U32Histogram) AddPoint(v uint32) {
	now := time.Now()
	if h.Reset.IsResetDue(now) {
		h.clear()
		h.Reset.clearFlag()
	}

	h.count++
	h.sum += uint64(v)
	h.last = uint64(v)
	idx := quantile.ValueToIndex(v)
	h.buckets[idx]++
}

// Count returns the number of samples since the last reset.
func (h *U32Histogram) Count() uint64 { return h.count }

// Sum returns the running sum of sample values.
func (h *U32Histogram) Sum() uint64 { return h.sum }

// Last returns the most recently added sample.
func (h *U32Histogram) Last() uint64 { return h.last }

// Avg returns sum/count, or 0 if count is 0.
func (h *U32Histogram) Avg() uint64 {
	if h.count == 0 {
		return 0
	}
	return h.sum / h.count
}

// Percentile returns the representative value for a single requested
// fraction in (0, 1].
func (h *U32Histogram) Percentile(fraction float64) uint32 {
	res := quantile.Percentiles(h.buckets[:], h.count, []float64{fraction})
	return res[0]
}

// Buckets returns a copy of the bucket array, for tests; callers must not
// assume this is torn-free with respect to concurrent
// AddPoint calls.
func (h *U32Histogram) Buckets() [quantile.NumBuckets]uint32 {
	return h.buckets
}
