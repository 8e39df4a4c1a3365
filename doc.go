/*
Package polysat implements a CDCL-style decision procedure for conjunctions
of polynomial constraints interpreted over fixed-width modular arithmetic,
i.e. integers modulo 2^w for per-variable widths w.

The solver extends the classic boolean CDCL loop — decisions, propagation,
conflict analysis, backjumping, lemma learning — to symbolic polynomial
constraints whose variables range over bounded domains. It combines:

  - a polynomial engine (Poly, polyManager) representing canonical
    polynomials over Z/2^w with hash-consing,
  - a viable-set engine (RangeSet) representing the still-admissible
    values of each variable as a compact set of disjoint intervals,
  - a watch-list propagation engine (WatchIndex) generalizing two-watched-
    literal propagation from boolean clauses to polynomial constraints,
  - a conflict-resolution procedure (resolveConflict) that prefers
    isolation-based elimination of propagated variables along the trail,
    generalizing a conflict into a lemma independent of any one decision,
    and falls back to retracting the most recent decision with a
    point-exclusion lemma whenever the chain it would need to eliminate
    is not linear with an invertible coefficient, and
  - a trail (Trail) that makes every mutation of the above reversible.

# Describing a problem

A problem is built incrementally against a Solver:

	s := polysat.NewSolver()
	x := s.AddVar(4)
	five := s.ConstPoly(4, big.NewInt(5))
	dep := s.NewDep("x == 5")
	s.AddEq(s.VarPoly(x), five, dep)

Solving a problem

	switch s.CheckSat(nil) {
	case polysat.Sat:
	    model, _ := s.Model()
	case polysat.Unsat:
	    core, _ := s.UnsatCore()
	case polysat.Unknown:
	    err := s.Err()
	}

# Out of scope

Quantifier handling, real or unbounded-integer arithmetic, theory
combination with uninterpreted functions, term rewriting for algebraic
datatypes, bridges to external computer-algebra systems, parser/printer
front-ends, and any file, wire or CLI format are all outside this package;
it is a library-shaped decision procedure with no I/O of its own.
*/
package polysat
