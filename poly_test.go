package polysat

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolyHashConsing(t *testing.T) {
	s := NewSolver()
	v := s.AddVar(8)
	x := s.VarPoly(v)
	one := s.constPolyUint(8, 1)

	p := Add(x, one)
	q := Add(one, x)
	assert.Same(t, p, q, "commutative sums must intern to the same polynomial")
}

func TestPolyArithmeticWrapsModWidth(t *testing.T) {
	s := NewSolver()
	w := uint32(8)
	k := s.constPolyUint(w, 255)
	one := s.constPolyUint(w, 1)

	sum := Add(k, one)
	val, ok := ConstValue(sum)
	require.True(t, ok)
	assert.Equal(t, big.NewInt(0), val, "255 + 1 must wrap to 0 mod 256")
}

func TestPolySubstituteAndIsolate(t *testing.T) {
	s := NewSolver()
	w := uint32(16)
	x := s.AddVar(w)
	y := s.AddVar(w)
	xp := s.VarPoly(x)
	yp := s.VarPoly(y)
	two := s.constPolyUint(w, 2)

	// p = 2*x + y
	p := Add(Mul(two, xp), yp)

	coeff, rem, ok := Isolate(p, x)
	require.True(t, ok)
	ck, ok := ConstValue(coeff)
	require.True(t, ok)
	assert.Equal(t, big.NewInt(2), ck)
	assert.Same(t, yp, rem)

	sub := Substitute(p, x, big.NewInt(10))
	sk, ok := ConstValue(Substitute(sub, y, big.NewInt(3)))
	require.True(t, ok)
	assert.Equal(t, big.NewInt(23), sk)
}

func TestPolyIsolateNonlinearFails(t *testing.T) {
	s := NewSolver()
	w := uint32(8)
	x := s.AddVar(w)
	xp := s.VarPoly(x)
	sq := Mul(xp, xp)

	_, _, ok := Isolate(sq, x)
	assert.False(t, ok, "x^2 is not linear in x")
}

func TestPolyFreeVars(t *testing.T) {
	s := NewSolver()
	x := s.AddVar(8)
	y := s.AddVar(8)
	z := s.AddVar(8)
	p := Add(s.VarPoly(x), Mul(s.VarPoly(y), s.VarPoly(z)))
	assert.Equal(t, []Var{x, y, z}, FreeVars(p))
}

func TestPolyMixedWidthPanics(t *testing.T) {
	s := NewSolver()
	x := s.AddVar(8)
	y := s.AddVar(16)
	assert.Panics(t, func() {
		Add(s.VarPoly(x), s.VarPoly(y))
	})
}

func TestToSigned(t *testing.T) {
	assert.Equal(t, big.NewInt(-1), toSigned(big.NewInt(255), 8))
	assert.Equal(t, big.NewInt(127), toSigned(big.NewInt(127), 8))
	assert.Equal(t, big.NewInt(-128), toSigned(big.NewInt(128), 8))
}
