// Package quantile implements the log-linear bucket indexing and percentile
// extraction used by the u32 histogram accumulator. It is a pure, allocation
// free transform over a fixed-size bucket array and carries no dependency on
// the tree or filesystem layers above it.
package quantile

// Bits per group. B = 2^Bits buckets per group.
const Bits = 6

// BucketsPerGroup is B in the spec's notation.
const BucketsPerGroup = 1 << Bits

// Groups is G in the spec's notation.
const Groups = 19

// NumBuckets is N = G*B, the fixed length of a histogram's bucket array.
const NumBuckets = Groups * BucketsPerGroup

func msb(v uint32) int {
	m := -1
	for v != 0 {
		m++
		v >>= 1
	}
	return m
}

// ValueToIndex maps a u32 sample to its bucket index. Values whose most
// significant bit position is <= Bits land in an exact, unrounded bucket;
// larger values are bucketed log-linearly with a relative error bounded by
// 2^-(Bits+1).
func ValueToIndex(v uint32) int {
	m := msb(v)
	if m <= Bits {
		return int(v)
	}
	e := uint(m - Bits)
	base := (int(e) + 1) << Bits
	offset := int((v >> e) & (BucketsPerGroup - 1))
	idx := base + offset
	if idx > NumBuckets-1 {
		idx = NumBuckets - 1
	}
	return idx
}

// IndexToValue returns the representative value for bucket index i, the
// inverse of ValueToIndex for exact buckets and the bucket midpoint
// otherwise.
func IndexToValue(i int) uint32 {
	if i < 2*BucketsPerGroup {
		return uint32(i)
	}
	e := uint(i>>Bits) - 1
	base := uint32(1) << (e + Bits)
	k := uint32(i % BucketsPerGroup)
	return base + uint32((float64(k)+0.5)*float64(uint32(1)<<e))
}

// Percentiles sweeps buckets in ascending index order and, for each fraction
// in an ascending fractions slice, reports the representative value of the
// first bucket whose running sum reaches fraction*count. fractions must be
// sorted ascending with each value in (0, 1]; the result slice has the same
// length, in the same order.
func Percentiles(buckets []uint32, count uint64, fractions []float64) []uint32 {
	result := make([]uint32, len(fractions))
	if count == 0 || len(fractions) == 0 {
		return result
	}

	var running uint64
	next := 0
	lastPopulated := 0
	for idx := 0; idx < len(buckets) && next < len(fractions); idx++ {
		if buckets[idx] != 0 {
			lastPopulated = idx
		}
		running += uint64(buckets[idx])
		target := fractions[next] * float64(count)
		for next < len(fractions) && float64(running) >= target {
			result[next] = IndexToValue(idx)
			next++
			if next < len(fractions) {
				target = fractions[next] * float64(count)
			}
		}
	}
	// Any fraction that never resolved (rounding at the tail) takes the
	// representative value of the last populated bucket.
	if next < len(fractions) {
		last := IndexToValue(lastPopulated)
		for ; next < len(fractions); next++ {
			result[next] = last
		}
	}
	return result
}
