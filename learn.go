package polysat

import "math/big"

// resolveConflict analyzes a violated constraint and produces a lemma to
// install plus the decision level to backjump to.
//
// It first tries resolveLinearChain, the Isolate-based generalization
// spec.md §4.4 describes: eliminate every propagated variable between the
// conflict and the nearest relevant decision via the linear relation that
// propagated it, learning the fully-eliminated polynomial's vanishing as a
// new fact. That only has a closed form when every constraint on the chain
// is an eq, linear in the variable it propagates, with an invertible (odd)
// coefficient. The moment the chain hits anything else — a ule/sle
// propagation, a nonlinear one, or an even coefficient with no unique
// inverse — resolveLinearChain bails out, and resolveConflict falls back to
// revertDecision: retract the most recent decision and learn a
// point-exclusion lemma ("the decision variable cannot take the value it
// was just assigned"). That fallback is strictly weaker than the
// generalized lemma — it may force the search to rediscover the same
// conflict shape against a different decision var before making progress —
// but it is sound, and because every variable's domain is finite, each such
// lemma permanently shrinks that decision's viable set, so the search
// cannot cycle forever.
func (s *Solver) resolveConflict(conflict *Constraint, conflictDep DepSet) (*Constraint, level, error) {
	if len(s.decisions) == 0 {
		contractViolation("polysat: resolveConflict above base level with no recorded decision")
	}
	if lemma, backLvl, ok := s.resolveLinearChain(conflict, conflictDep); ok {
		return lemma, backLvl, nil
	}
	return s.revertDecision(conflict, conflictDep)
}

// resolveLinearChain attempts the isolation-based elimination described
// above. lemmaPoly starts as conflict's own (symbolic, not-yet-grounded)
// polynomial and is walked backward through s.search — the trail's
// assignment order — substituting out every propagated variable it still
// mentions via Isolate(causingConstraint, v). It stops and learns as soon
// as it reaches a decision variable still free in the partially-eliminated
// polynomial; since every substitution used along the way is itself an
// unconditional consequence of an already-live constraint, the resulting
// "polynomial == 0" fact holds regardless of that decision's value, so it
// is learned as a plain (non-excluding) eq fact rather than a negation.
func (s *Solver) resolveLinearChain(conflict *Constraint, conflictDep DepSet) (*Constraint, level, bool) {
	if conflict.kind != ckEq || conflict.negated {
		return nil, 0, false
	}
	w := conflict.Width()
	mod := new(big.Int).Lsh(big.NewInt(1), uint(w))
	lemmaPoly := conflict.normalizedPoly()
	dep := conflictDep
	s.markFreeVars(lemmaPoly)

	for i := len(s.search) - 1; i >= 0; i-- {
		v := s.search[i]
		if !s.isMarked(v) {
			continue
		}
		just := s.vars[v].just
		if just.isDecision() {
			zero := s.ConstPoly(lemmaPoly.Width(), big.NewInt(0))
			lemma := s.cs.addRedundant(ckEq, false, false, lemmaPoly, zero, dep)
			s.bumpActivity(v)
			for _, fv := range FreeVars(lemmaPoly) {
				s.bumpActivity(fv)
			}
			return lemma, just.lvl - 1, true
		}
		causes := s.cjust[v]
		if len(causes) != 1 {
			return nil, 0, false
		}
		d := causes[0]
		if d.kind != ckEq || d.negated {
			return nil, 0, false
		}
		coeff, rest, ok := Isolate(d.normalizedPoly(), v)
		if !ok {
			return nil, 0, false
		}
		ck, isConst := ConstValue(coeff)
		if !isConst || ck.Bit(0) == 0 {
			// not a constant, invertible coefficient: no unique closed-form
			// substitution for v, so the chain can't be continued exactly.
			return nil, 0, false
		}
		inv := new(big.Int).ModInverse(ck, mod)
		repl := Mul(Neg(rest), s.ConstPoly(lemmaPoly.Width(), inv))
		lemmaPoly = SubstituteAt(lemmaPoly, v, repl)
		dep = joinDeps(dep, d.dep)
		s.markFreeVars(lemmaPoly)
	}
	return nil, 0, false
}

// markFreeVars resets the mark bitmap to exactly p's free variables, so the
// trail walk above can test membership in O(1) per assignment instead of
// rescanning p's monomials.
func (s *Solver) markFreeVars(p *Poly) {
	s.resetMarks()
	for _, v := range FreeVars(p) {
		s.setMark(v)
	}
}

// revertDecision is the general-case conflict resolution fallback: retract
// the most recent decision and learn that its excluded value can never be
// chosen again.
func (s *Solver) revertDecision(conflict *Constraint, conflictDep DepSet) (*Constraint, level, error) {
	decVar := s.decisions[len(s.decisions)-1]
	decLvl := s.trail.Level()
	badVal, ok := s.vars[decVar].assignedVal()
	if !ok {
		contractViolation("polysat: decision variable %d has no assigned value", decVar)
	}

	w := s.vars[decVar].width
	lhs := s.VarPoly(decVar)
	rhs := s.ConstPoly(w, badVal)

	s.bumpActivity(decVar)
	for _, v := range FreeVars(conflict.normalizedPoly()) {
		s.bumpActivity(v)
	}

	lemma := s.cs.addRedundant(ckEq, true, false, lhs, rhs, conflictDep)
	s.cjust[decVar] = append(s.cjust[decVar], conflict)

	return lemma, decLvl - 1, nil
}

// installLemma registers a learned constraint with the watch index and
// queues it for immediate evaluation if it is already a unit — always true
// of revertDecision's point-exclusion lemma, and true of
// resolveLinearChain's generalized lemma whenever every other variable it
// mentions besides the reverted decision happens to already be assigned.
func (s *Solver) installLemma(c *Constraint) {
	s.nLearned++
	s.wi.register(c, s.isAssigned)
	e := s.wi.byID[c.id]
	if len(e.liveFreeVars(s.isAssigned)) <= 1 {
		s.initialChecks = append(s.initialChecks, e)
	}
}
