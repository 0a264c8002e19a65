package accum

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/solganik/procstat/internal/quantile"
)

func TestU32HistogramBasicMoments(t *testing.T) {
	h := NewU32Histogram()
	for _, v := range []uint32{100, 200, 300, 400} {
		h.AddPoint(v)
	}

	require.Equal(t, uint64(4), h.Count())
	require.Equal(t, uint64(1000), h.Sum())
	require.Equal(t, uint64(400), h.Last())
	require.Equal(t, uint64(250), h.Avg())
}

func TestU32HistogramPercentileMonotonic(t *testing.T) {
	h := NewU32Histogram()
	for _, v := range []uint32{5, 50, 500, 5000, 50000} {
		h.AddPoint(v)
	}

	prev := uint32(0)
	for _, f := range []float64{0.1, 0.5, 0.9, 0.99, 1.0} {
		p := h.Percentile(f)
		require.GreaterOrEqual(t, p, prev)
		prev = p
	}
}

func TestU32HistogramBucketsReflectSamples(t *testing.T) {
	h := NewU32Histogram()
	h.AddPoint(42)
	h.AddPoint(42)

	buckets := h.Buckets()
	idx := quantile.ValueToIndex(42)
	require.Equal(t, uint32(2), buckets[idx])
}

func TestU32HistogramResetClears(t *testing.T) {
	h := NewU32Histogram()
	h.AddPoint(10)
	h.AddPoint(20)
	require.Equal(t, uint64(2), h.Count())

	h.Reset.TriggerReset()
	h.AddPoint(7)

	require.Equal(t, uint64(1), h.Count())
	require.Equal(t, uint64(7), h.Sum())
	buckets := h.Buckets()
	var total uint32
	for _, b := range buckets {
		total += b
	}
	require.Equal(t, uint32(1), total)
}
