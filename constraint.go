package polysat

import "fmt"

// Constraint Store (CS): the pool of asserted and learned constraints.
// Every constraint normalizes to one of three relation kinds between two
// polynomials of the same width; AddDiseq/AddULT/AddSLT are sugar over
// AddEq/AddULE/AddSLE with a negated or strict flag, so the rest of the
// solver (watches, refinement) only ever needs to special-case three
// shapes.
type ckind byte

const (
	ckEq ckind = iota
	ckULE
	ckSLE
	// ckBit is not one of spec.md §4's three relation kinds; it backs the
	// Assign (spec.md §6 "assign(v,i,b,dep)") bit-forcing operation, kept
	// as a distinct tagged-variant case per the "polymorphism over
	// constraint kind" design note rather than contorted into eq/ule/sle.
	ckBit
)

func (k ckind) String() string {
	switch k {
	case ckEq:
		return "eq"
	case ckULE:
		return "ule"
	case ckSLE:
		return "sle"
	case ckBit:
		return "bit"
	default:
		return "?"
	}
}

// Constraint is one normalized atom: a relation between lhs and rhs, both
// polynomials of the same width. Constraints are immutable once created;
// learned lemmas are new Constraint values, never mutated copies.
type Constraint struct {
	id       int
	kind     ckind
	negated  bool // eq kind only: true means lhs != rhs
	strict   bool // ule/sle kind only: true means < rather than <=
	lhs, rhs *Poly
	bitIndex uint32 // ckBit only: which bit of lhs is forced
	bitVal   bool   // ckBit only: the forced value of that bit
	dep      DepSet
	original bool // false for learned lemmas
}

// Width returns the bit-width shared by lhs and rhs.
func (c *Constraint) Width() uint32 { return c.lhs.Width() }

// Dep returns the dependency tags this constraint's satisfaction rests on.
func (c *Constraint) Dep() DepSet { return c.dep }

func (c *Constraint) String() string {
	if c.kind == ckBit {
		return fmt.Sprintf("(bit%d %s = %v)", c.bitIndex, c.lhs, c.bitVal)
	}
	var op string
	switch {
	case c.kind == ckEq && c.negated:
		op = "!="
	case c.kind == ckEq:
		op = "="
	case c.kind == ckULE && c.strict:
		op = "<u"
	case c.kind == ckULE:
		op = "<=u"
	case c.kind == ckSLE && c.strict:
		op = "<s"
	default:
		op = "<=s"
	}
	return fmt.Sprintf("(%s %s %s)", c.lhs, op, c.rhs)
}

// normalizedPoly returns lhs - rhs. For eq its vanishing decides c; ule and
// sle are decided by comparing lhs and rhs themselves, not by this
// difference. Isolate-based conflict resolution (resolveLinearChain) uses it
// for eq constraints only.
func (c *Constraint) normalizedPoly() *Poly {
	return Sub(c.lhs, c.rhs)
}

func newConstraint(id int, kind ckind, negated, strict bool, lhs, rhs *Poly, dep DepSet, original bool) *Constraint {
	if lhs.Width() != rhs.Width() {
		contractViolation("polysat: constraint between widths %d and %d", lhs.Width(), rhs.Width())
	}
	return &Constraint{
		id: id, kind: kind, negated: negated, strict: strict,
		lhs: lhs, rhs: rhs, dep: dep, original: original,
	}
}

// ConstraintStore holds the original (user-pinned) and redundant (learned)
// constraint pools, mirroring the clause-database split of CDCL SAT
// solvers: original constraints are never removed except by Pop, redundant
// ones may in principle be garbage collected (not yet exercised here, but
// kept structurally separate so that extension is a local change).
type ConstraintStore struct {
	original  []*Constraint
	redundant []*Constraint
	nextID    int
}

func (cs *ConstraintStore) addOriginal(kind ckind, negated, strict bool, lhs, rhs *Poly, dep DepSet) *Constraint {
	cs.nextID++
	c := newConstraint(cs.nextID, kind, negated, strict, lhs, rhs, dep, true)
	cs.original = append(cs.original, c)
	return c
}

// addBitOriginal adds a ckBit unit constraint forcing bit bitIndex of lhs
// (which must be a single variable's polynomial) to bitVal, pinned to the
// original pool at the current scope. zero is the width-matched zero
// polynomial, used only so Constraint's lhs/rhs-width invariant holds; it
// plays no role in evaluation.
func (cs *ConstraintStore) addBitOriginal(lhs, zero *Poly, bitIndex uint32, bitVal bool, dep DepSet) *Constraint {
	cs.nextID++
	c := &Constraint{
		id: cs.nextID, kind: ckBit, lhs: lhs, rhs: zero,
		bitIndex: bitIndex, bitVal: bitVal, dep: dep, original: true,
	}
	cs.original = append(cs.original, c)
	return c
}

func (cs *ConstraintStore) addRedundant(kind ckind, negated, strict bool, lhs, rhs *Poly, dep DepSet) *Constraint {
	cs.nextID++
	c := newConstraint(cs.nextID, kind, negated, strict, lhs, rhs, dep, false)
	cs.redundant = append(cs.redundant, c)
	return c
}

// All returns every live constraint, original then redundant, in insertion
// order.
func (cs *ConstraintStore) All() []*Constraint {
	out := make([]*Constraint, 0, len(cs.original)+len(cs.redundant))
	out = append(out, cs.original...)
	out = append(out, cs.redundant...)
	return out
}

// truncateOriginal drops every original constraint with index >= n,
// used by (*Solver).Pop to restore the pool to an earlier user scope.
func (cs *ConstraintStore) truncateOriginal(n int) {
	cs.original = cs.original[:n]
}

// truncateRedundant drops every redundant constraint (lemma) with index >=
// n; lemmas derived inside a user scope are unsound once that scope's
// facts are retracted, so Pop must discard them too.
func (cs *ConstraintStore) truncateRedundant(n int) {
	cs.redundant = cs.redundant[:n]
}
