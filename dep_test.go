package polysat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDepSetJoinIsUnionAndSorted(t *testing.T) {
	a := singletonDep(Dep(3))
	bSet := singletonDep(Dep(1))
	joined := joinDeps(a, bSet)
	assert.Equal(t, []Dep{1, 3}, joined.Tags())
}

func TestDepSetJoinDeduplicates(t *testing.T) {
	a := joinDeps(singletonDep(Dep(1)), singletonDep(Dep(2)))
	joined := joinDeps(a, singletonDep(Dep(2)))
	assert.Equal(t, []Dep{1, 2}, joined.Tags())
}

func TestDepSetNoDepIsEmpty(t *testing.T) {
	assert.True(t, singletonDep(NoDep).Empty())
}

func TestDepSetDisjointFrom(t *testing.T) {
	a := joinDeps(singletonDep(1), singletonDep(2))
	c := singletonDep(3)
	assert.True(t, a.disjointFrom(c))
	assert.False(t, a.disjointFrom(joinDeps(c, singletonDep(2))))
}

func TestDepTrackerLabels(t *testing.T) {
	var dt depTracker
	d1 := dt.newDep("lhs-constraint")
	d2 := dt.newDep("rhs-constraint")
	assert.NotEqual(t, d1, d2)
	assert.Equal(t, "lhs-constraint", dt.label(d1))
	assert.Nil(t, dt.label(NoDep))
}
