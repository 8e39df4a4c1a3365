package polysat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeVarConstraint(s *Solver) (*Constraint, Var, Var, Var) {
	a := s.AddVar(4)
	bv := s.AddVar(4)
	cv := s.AddVar(4)
	sum := Add(Add(s.VarPoly(a), s.VarPoly(bv)), s.VarPoly(cv))
	con := s.cs.addOriginal(ckEq, false, false, sum, c(s, 4, 0), DepSet{})
	return con, a, bv, cv
}

func TestWatchRegisterWatchesTwoSmallestUnassigned(t *testing.T) {
	s := NewSolver()
	con, a, bv, _ := threeVarConstraint(s)

	wi := newWatchIndex()
	wi.register(con, func(Var) bool { return false })

	e := wi.byID[con.id]
	require.NotNil(t, e)
	assert.Equal(t, 2, e.nWatch)
	assert.Equal(t, a, e.watched[0])
	assert.Equal(t, bv, e.watched[1])
	assert.Contains(t, wi.buckets[a], e)
	assert.Contains(t, wi.buckets[bv], e)
}

func TestRetargetPicksSmallestUnassignedReplacement(t *testing.T) {
	s := NewSolver()
	con, a, bv, cv := threeVarConstraint(s)

	wi := newWatchIndex()
	wi.register(con, func(Var) bool { return false })
	e := wi.byID[con.id]

	assigned := map[Var]bool{a: true}
	ok := wi.Retarget(e, a, func(v Var) bool { return assigned[v] })
	require.True(t, ok)

	assert.NotContains(t, wi.buckets[a], e)
	assert.Contains(t, wi.buckets[cv], e)
	assert.Contains(t, wi.buckets[bv], e)
}

func TestRetargetFailsWhenNoReplacementExists(t *testing.T) {
	s := NewSolver()
	con, a, bv, cv := threeVarConstraint(s)

	wi := newWatchIndex()
	wi.register(con, func(Var) bool { return false })
	e := wi.byID[con.id]

	assigned := map[Var]bool{a: true, cv: true}
	ok := wi.Retarget(e, a, func(v Var) bool { return assigned[v] })
	assert.False(t, ok)

	// a failed retarget leaves the entry where it was, so it is revisited
	// when the watched variables unassign and reassign on backtrack
	assert.Contains(t, wi.buckets[a], e)
	assert.Contains(t, wi.buckets[bv], e)
}

func TestRetargetIgnoresEntryNotWatchingFrom(t *testing.T) {
	s := NewSolver()
	con, _, _, cv := threeVarConstraint(s)

	wi := newWatchIndex()
	wi.register(con, func(Var) bool { return false })
	e := wi.byID[con.id]

	// cv is a free variable of con but not one of its two watches
	ok := wi.Retarget(e, cv, func(Var) bool { return false })
	assert.True(t, ok)
	assert.Equal(t, 2, e.nWatch)
}
