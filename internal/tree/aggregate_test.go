package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newFixedReadFormatter(s string) ReadFormatter {
	return func(_ interface{}, _ uint64, buf []byte) (int, error) {
		return writeLine(buf, s)
	}
}

func TestAggregatorReadWalksSubtreeDepthFirst(t *testing.T) {
	tr := New()
	_, err := tr.CreateSimple(tr.Root(), []SimpleDescriptor{
		{Name: "a", Read: newFixedReadFormatter("1")},
	})
	require.NoError(t, err)

	sub, err := tr.CreateDirectory(tr.Root(), "sub")
	require.NoError(t, err)
	_, err = tr.CreateSimple(sub, []SimpleDescriptor{
		{Name: "b", Read: newFixedReadFormatter("2")},
	})
	require.NoError(t, err)

	agg, err := tr.CreateAggregator(tr.Root(), "all")
	require.NoError(t, err)

	var cur AggregatorCursor
	data, err := tr.AggregatorRead(agg, &cur, 4096, 0)
	require.NoError(t, err)
	require.Equal(t, "a:1\nsub/b:2\n", string(data))
	require.True(t, cur.ended)
}

func TestAggregatorReadResumesAcrossSmallBuffers(t *testing.T) {
	tr := New()
	_, err := tr.CreateSimple(tr.Root(), []SimpleDescriptor{
		{Name: "a", Read: newFixedReadFormatter("1")},
		{Name: "b", Read: newFixedReadFormatter("2")},
		{Name: "c", Read: newFixedReadFormatter("3")},
	})
	require.NoError(t, err)
	agg, err := tr.CreateAggregator(tr.Root(), "all")
	require.NoError(t, err)

	var cur AggregatorCursor
	var offset uint64
	var all []byte
	for i := 0; i < 10 && !cur.ended; i++ {
		data, err := tr.AggregatorRead(agg, &cur, 4, offset)
		require.NoError(t, err)
		if len(data) == 0 {
			break
		}
		all = append(all, data...)
		offset += uint64(len(data))
	}

	require.Equal(t, "a:1\nb:2\nc:3\n", string(all))
}

func TestAggregatorReadNonSequentialOffsetReportsErrorLine(t *testing.T) {
	tr := New()
	_, err := tr.CreateSimple(tr.Root(), []SimpleDescriptor{
		{Name: "a", Read: newFixedReadFormatter("1")},
	})
	require.NoError(t, err)
	agg, err := tr.CreateAggregator(tr.Root(), "all")
	require.NoError(t, err)

	var cur AggregatorCursor
	_, err = tr.AggregatorRead(agg, &cur, 4096, 0)
	require.NoError(t, err)

	data, err := tr.AggregatorRead(agg, &cur, 4096, 999)
	require.NoError(t, err)
	require.Contains(t, string(data), "non-sequential")
	require.True(t, cur.ended)

	data, err = tr.AggregatorRead(agg, &cur, 4096, 999)
	require.NoError(t, err)
	require.Nil(t, data)
}

func TestAggregatorReadEmptySubtreeEndsImmediately(t *testing.T) {
	tr := New()
	agg, err := tr.CreateAggregator(tr.Root(), "all")
	require.NoError(t, err)

	var cur AggregatorCursor
	data, err := tr.AggregatorRead(agg, &cur, 4096, 0)
	require.NoError(t, err)
	require.Empty(t, data)
	require.True(t, cur.ended)
}

func TestAggregatorReadRemovedTrailingLeafEndsStream(t *testing.T) {
	tr := New()
	items, err := tr.CreateSimple(tr.Root(), []SimpleDescriptor{
		{Name: "a", Read: newFixedReadFormatter("1")},
		{Name: "b", Read: newFixedReadFormatter("2")},
	})
	require.NoError(t, err)
	agg, err := tr.CreateAggregator(tr.Root(), "all")
	require.NoError(t, err)

	var cur AggregatorCursor
	data, err := tr.AggregatorRead(agg, &cur, 4, 0)
	require.NoError(t, err)
	require.Equal(t, "a:1\n", string(data))
	require.False(t, cur.ended)

	require.NoError(t, tr.Remove(items[1]))

	data, err = tr.AggregatorRead(agg, &cur, 4096, uint64(len(data)))
	require.NoError(t, err)
	require.Empty(t, data)
	require.True(t, cur.ended)
}
