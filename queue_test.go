package polysat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivityQueueRemoveMaxOrdering(t *testing.T) {
	activity := []float64{0.5, 3.0, 1.0, 2.0}
	q := newActivityQueue(activity)

	assert.Equal(t, Var(1), q.removeMax())
	assert.Equal(t, Var(3), q.removeMax())
	assert.Equal(t, Var(2), q.removeMax())
	assert.Equal(t, Var(0), q.removeMax())
	assert.True(t, q.empty())
}

func TestActivityQueueUpdateReordersAfterBump(t *testing.T) {
	activity := []float64{1.0, 1.0, 1.0}
	q := newActivityQueue(activity)

	activity[2] = 5.0
	q.update(Var(2))

	assert.Equal(t, Var(2), q.removeMax())
}

func TestActivityQueueRemoveTakesVariableOut(t *testing.T) {
	activity := []float64{1.0, 2.0, 3.0}
	q := newActivityQueue(activity)

	q.remove(Var(1))
	assert.False(t, q.contains(Var(1)))
	assert.Equal(t, 2, q.len())
	assert.Equal(t, Var(2), q.removeMax())
}
