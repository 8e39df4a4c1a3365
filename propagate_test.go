package polysat

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveLinearEqModOddCoefficient(t *testing.T) {
	// 3x + 5 == 0 (mod 16): 3 is invertible, unique solution x = 9
	got, err := solveLinearEqMod(big.NewInt(3), big.NewInt(5), 4, 1<<10)
	require.NoError(t, err)
	assert.True(t, got.equalRanges(singletonRangeSet(4, big.NewInt(9))))
}

func TestSolveLinearEqModEvenCoefficient(t *testing.T) {
	// 2x + 4 == 0 (mod 16): gcd(2,16)=2 divides 12, two solutions
	got, err := solveLinearEqMod(big.NewInt(2), big.NewInt(4), 4, 1<<10)
	require.NoError(t, err)
	want := rangeSetFromSortedValues(4, []*big.Int{b(6), b(14)})
	assert.True(t, got.equalRanges(want))
}

func TestSolveLinearEqModNoSolution(t *testing.T) {
	// 2x + 1 == 0 (mod 16): 2x is always even, -1 is odd
	got, err := solveLinearEqMod(big.NewInt(2), big.NewInt(1), 4, 1<<10)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestSolveLinearEqModZeroCoefficient(t *testing.T) {
	full, err := solveLinearEqMod(big.NewInt(0), big.NewInt(0), 4, 1<<10)
	require.NoError(t, err)
	assert.True(t, full.equalRanges(fullRangeSet(4)))

	empty, err := solveLinearEqMod(big.NewInt(0), big.NewInt(3), 4, 1<<10)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestSolveLinearEqModSolutionCountExceedsBudget(t *testing.T) {
	// 8x + 8 == 0 (mod 16) has 8 solutions (every odd x); budget 4 gives up
	_, err := solveLinearEqMod(big.NewInt(8), big.NewInt(8), 4, 4)
	require.Error(t, err)
	var resErr *ResourceError
	assert.ErrorAs(t, err, &resErr)
}

func TestSolveLinearEqModManySolutionsWithinBudget(t *testing.T) {
	got, err := solveLinearEqMod(big.NewInt(8), big.NewInt(8), 4, 16)
	require.NoError(t, err)
	want := rangeSetFromSortedValues(4, []*big.Int{b(1), b(3), b(5), b(7), b(9), b(11), b(13), b(15)})
	assert.True(t, got.equalRanges(want))
}
