package polysat

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolveLinearChainEliminatesPropagatedVariable drives the Isolate-based
// fast path directly: y is decided, x is propagated from y via the linear
// constraint "x + y == 0" (so cjust[x] names that constraint), and the
// conflict is a separate "x == 5" fact. resolveLinearChain must eliminate x
// using d's relation rather than x's current numeric value, producing a
// lemma purely in y that (a) is violated by the decision value that led
// here and (b) holds at the actual solution, rather than a lemma that just
// restates "x == 5" in different clothing.
func TestResolveLinearChainEliminatesPropagatedVariable(t *testing.T) {
	s := NewSolver()
	w := uint32(4)
	x := s.AddVar(w)
	y := s.AddVar(w)

	d := s.cs.addOriginal(ckEq, false, false,
		Add(s.VarPoly(x), s.VarPoly(y)), c(s, w, 0), singletonDep(s.NewDep("x+y=0")))
	conflictC := s.cs.addOriginal(ckEq, false, false,
		s.VarPoly(x), c(s, w, 5), singletonDep(s.NewDep("x=5")))

	lvl := s.trail.beginLevel()
	s.decisions = append(s.decisions, y)
	s.assignCore(y, big.NewInt(2), decisionJust(lvl))
	s.refine(x, singletonRangeSet(w, big.NewInt(14)), d.dep, d) // x = -2 mod 16 = 14

	lemma, backLvl, ok := s.resolveLinearChain(conflictC, conflictC.dep)
	require.True(t, ok)
	assert.Equal(t, baseLevel, backLvl)
	assert.False(t, lemma.negated, "resolveLinearChain asserts a fact, it doesn't exclude one")

	excluded, isConst := ConstValue(Substitute(lemma.lhs, y, big.NewInt(2)))
	require.True(t, isConst)
	assert.NotEqual(t, big.NewInt(0), excluded, "lemma must still be violated by the value just backjumped past")

	atSolution, isConst := ConstValue(Substitute(lemma.lhs, y, big.NewInt(11)))
	require.True(t, isConst)
	assert.Equal(t, big.NewInt(0), atSolution, "lemma must hold at y = -5 mod 16 = 11, the actual solution")
}

// TestResolveLinearChainBailsOnNonlinearPropagation checks that the fast
// path refuses to guess when the propagating constraint isn't linear in the
// propagated variable, leaving resolveConflict to fall back to
// revertDecision's point-exclusion lemma.
func TestResolveLinearChainBailsOnNonlinearPropagation(t *testing.T) {
	s := NewSolver()
	w := uint32(2)
	x := s.AddVar(w)
	y := s.AddVar(w)

	// 2*y*y + y == x propagates y from x, but y occurs squared in it;
	// Isolate has no closed form for a degree-2 monomial in the isolated
	// variable, so the chain can't be eliminated this way.
	yp := s.VarPoly(y)
	d := s.cs.addOriginal(ckEq, false, false,
		Add(Mul(c(s, w, 2), Mul(yp, yp)), yp), s.VarPoly(x), singletonDep(s.NewDep("2*y*y+y=x")))
	conflictC := s.cs.addOriginal(ckEq, false, false,
		s.VarPoly(y), c(s, w, 3), singletonDep(s.NewDep("y=3")))

	lvl := s.trail.beginLevel()
	s.decisions = append(s.decisions, x)
	s.assignCore(x, big.NewInt(2), decisionJust(lvl))
	s.refine(y, singletonRangeSet(w, big.NewInt(2)), d.dep, d) // 2*2*2 + 2 = 10 = 2 mod 4; y = 2 is the only root

	_, _, ok := s.resolveLinearChain(conflictC, conflictC.dep)
	assert.False(t, ok)

	lemma, backLvl, err := s.resolveConflict(conflictC, conflictC.dep)
	require.NoError(t, err)
	assert.Equal(t, baseLevel, backLvl)
	assert.True(t, lemma.negated)
	assert.Same(t, s.VarPoly(x), lemma.lhs)
}
