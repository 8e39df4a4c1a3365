package polysat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrailUndoToLevel(t *testing.T) {
	var tr Trail
	x := 0

	tr.record(func() { x = 0 })
	x = 1

	tr.beginLevel()
	tr.record(func() { x = 1 })
	x = 2

	tr.beginLevel()
	tr.record(func() { x = 2 })
	x = 3

	assert.Equal(t, level(2), tr.Level())
	tr.undoToLevel(1)
	assert.Equal(t, 2, x)
	assert.Equal(t, level(1), tr.Level())

	tr.undoToLevel(0)
	assert.Equal(t, 1, x)
	assert.Equal(t, level(0), tr.Level())
}

func TestTrailScopePopUndoesAndClosesLevels(t *testing.T) {
	var tr Trail
	x := 0

	tr.record(func() { x = 0 })
	x = 1

	tr.pushScope()
	tr.beginLevel()
	tr.record(func() { x = 1 })
	x = 2
	tr.beginLevel()
	tr.record(func() { x = 2 })
	x = 3

	assert.Equal(t, 1, tr.Depth())
	tr.popScope()
	assert.Equal(t, 1, x)
	assert.Equal(t, level(0), tr.Level())
	assert.Equal(t, 0, tr.Depth())
}

func TestTrailPopScopeWithoutPushPanics(t *testing.T) {
	var tr Trail
	assert.Panics(t, func() { tr.popScope() })
}
