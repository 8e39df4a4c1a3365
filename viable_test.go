package polysat

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b(i int64) *big.Int { return big.NewInt(i) }

func TestRangeSetFullAndEmpty(t *testing.T) {
	full := fullRangeSet(4)
	assert.False(t, full.IsEmpty())
	assert.True(t, full.Contains(b(0)))
	assert.True(t, full.Contains(b(15)))
	assert.False(t, full.Contains(b(16)))
	assert.Equal(t, big.NewInt(16), full.Count())

	empty := emptyRangeSet(4)
	assert.True(t, empty.IsEmpty())
	assert.False(t, empty.Contains(b(0)))
}

func TestRangeSetRemoveSplitsRange(t *testing.T) {
	rs := fullRangeSet(4)
	rs = rs.Remove(b(5))
	assert.False(t, rs.Contains(b(5)))
	assert.True(t, rs.Contains(b(4)))
	assert.True(t, rs.Contains(b(6)))
	assert.Equal(t, big.NewInt(15), rs.Count())

	// removing an absent value is a no-op
	same := rs.Remove(b(5))
	assert.True(t, same.Subset(rs) && rs.Subset(same))
}

func TestRangeSetRemoveToSingletonAndEmpty(t *testing.T) {
	rs := singletonRangeSet(4, b(7))
	val, ok := rs.IsSingleton()
	require.True(t, ok)
	assert.Equal(t, b(7), val)

	rs = rs.Remove(b(7))
	assert.True(t, rs.IsEmpty())
}

func TestRangeSetIntersect(t *testing.T) {
	a := rangeSetFromSortedValues(8, []*big.Int{b(1), b(2), b(3), b(10), b(11)})
	c := rangeSetFromSortedValues(8, []*big.Int{b(2), b(3), b(4), b(11), b(12)})
	got := a.Intersect(c)
	want := rangeSetFromSortedValues(8, []*big.Int{b(2), b(3), b(11)})
	assert.True(t, got.equalRanges(want))
}

func TestRangeSetSubtract(t *testing.T) {
	full := fullRangeSet(3) // [0,7]
	minus := rangeSetFromSortedValues(3, []*big.Int{b(2), b(3), b(5)})
	got := full.Subtract(minus)
	want := rangeSetFromSortedValues(3, []*big.Int{b(0), b(1), b(4), b(6), b(7)})
	assert.True(t, got.equalRanges(want))
}

func TestRangeSetSubtractAvoidsEnumeratingDomain(t *testing.T) {
	// a wide domain whose Subtract must not call Values()/Count() internally
	full := fullRangeSet(64)
	minus := singletonRangeSet(64, b(42))
	got := full.Subtract(minus)
	assert.False(t, got.Contains(b(42)))
	assert.True(t, got.Contains(b(0)))
	assert.True(t, got.Contains(b(43)))
}

func TestRangeSetMergesAdjacentValues(t *testing.T) {
	rs := rangeSetFromSortedValues(8, []*big.Int{b(1), b(2), b(3), b(5)})
	assert.Len(t, rs.ranges, 2)
}

func TestRangeSetPickIsDeterministic(t *testing.T) {
	rs := rangeSetFromSortedValues(8, []*big.Int{b(5), b(6), b(9)})
	assert.Equal(t, b(5), rs.Pick())
}

func TestRangeSetPickOnEmptyPanics(t *testing.T) {
	assert.Panics(t, func() { emptyRangeSet(4).Pick() })
}

func TestBitRangeSetTopBit(t *testing.T) {
	rs, err := bitRangeSet(4, 3, true, 1<<20)
	require.NoError(t, err)
	assert.True(t, rs.equalRanges(rangeSetFromSortedValues(4, []*big.Int{b(8), b(9), b(10), b(11), b(12), b(13), b(14), b(15)})))
}

func TestBitRangeSetLowBit(t *testing.T) {
	rs, err := bitRangeSet(4, 0, true, 1<<20)
	require.NoError(t, err)
	assert.True(t, rs.equalRanges(rangeSetFromSortedValues(4, []*big.Int{b(1), b(3), b(5), b(7), b(9), b(11), b(13), b(15)})))
}

func TestBitRangeSetExceedsBudget(t *testing.T) {
	_, err := bitRangeSet(16, 0, true, 4)
	assert.Error(t, err)
	var resErr *ResourceError
	assert.ErrorAs(t, err, &resErr)
}
