package polysat

import "math/big"

// propagate drains the initial-check and watch work queues to quiescence,
// narrowing viable sets and making implied assignments until either no
// constraint has anything left to say (returns nil, DepSet{}, nil) or a
// constraint is violated under the current (possibly partial) assignment
// (returns the violated constraint and the dependency set its violation
// rests on). If a prior call to the exported single-step Propagate left a
// conflict pending, that conflict is returned first.
func (s *Solver) propagate() (*Constraint, DepSet, error) {
	if s.pendingConflict != nil {
		c, dep := s.pendingConflict, s.pendingConflictDep
		s.pendingConflict, s.pendingConflictDep = nil, DepSet{}
		return c, dep, nil
	}
	for s.hasPropagationWork() {
		conflict, dep, err := s.propagateStep()
		if err != nil || conflict != nil {
			return conflict, dep, err
		}
	}
	return nil, DepSet{}, nil
}

func (s *Solver) hasPropagationWork() bool {
	return len(s.initialChecks) > 0 || len(s.propQueue) > 0
}

// propagateStep performs one unit of propagation work — evaluating or
// refining a single constraint that is already univariate-or-ground, or
// visiting the full watch list of a single newly-assigned variable per
// spec.md §4.4's "take the variable v at qhead, visit its watch list" unit
// of work — and reports whether it found a conflict. It is a no-op
// returning (nil, DepSet{}, nil) when hasPropagationWork is false.
func (s *Solver) propagateStep() (*Constraint, DepSet, error) {
	if len(s.initialChecks) > 0 {
		e := s.initialChecks[0]
		s.initialChecks = s.initialChecks[1:]
		return s.checkAndRefine(e)
	}
	if len(s.propQueue) > 0 {
		v := s.propQueue[0]
		s.propQueue = s.propQueue[1:]
		// copy: Retarget mutates the bucket we're iterating
		entries := append([]*watchEntry(nil), s.wi.ConstraintsOn(v)...)
		for _, e := range entries {
			if s.wi.Retarget(e, v, s.isAssigned) {
				continue
			}
			conflict, dep, err := s.checkAndRefine(e)
			if err != nil || conflict != nil {
				return conflict, dep, err
			}
		}
	}
	return nil, DepSet{}, nil
}

// checkAndRefine evaluates or narrows e's constraint against the current
// assignment, depending on how many of its free variables remain live.
func (s *Solver) checkAndRefine(e *watchEntry) (*Constraint, DepSet, error) {
	live := e.liveFreeVars(s.isAssigned)
	switch len(live) {
	case 0:
		sat := s.evalConstraint(e.c)
		if sat {
			return nil, DepSet{}, nil
		}
		return e.c, s.conflictDep(e.c), nil
	case 1:
		v := live[0]
		admissible, err := s.refineViable(e.c, v)
		if err != nil {
			return nil, DepSet{}, err
		}
		restricted := s.vars[v].viable.Intersect(admissible)
		if restricted.IsEmpty() {
			return e.c, s.conflictDep(e.c), nil
		}
		if !restricted.equalRanges(s.vars[v].viable) {
			s.bumpActivity(v)
			s.refine(v, restricted, e.c.dep, e.c)
		}
		return nil, DepSet{}, nil
	default:
		// An entry queued before a backjump can have regained free
		// variables once the backjump unassigned them. It is still present
		// in the watch index, so the next assignment of a watched variable
		// revisits it; nothing to do now.
		return nil, DepSet{}, nil
	}
}

// conflictDep joins a violated constraint's own dependency tag with the
// accumulated narrowing dependencies of every variable it mentions, giving
// a sound (if not minimal) justification for the conflict.
func (s *Solver) conflictDep(c *Constraint) DepSet {
	dep := c.dep
	for _, v := range FreeVars(c.normalizedPoly()) {
		dep = joinDeps(dep, s.vars[v].narrowed)
	}
	return dep
}

// evalConstraint decides c under the assumption every free variable it
// mentions is already assigned.
func (s *Solver) evalConstraint(c *Constraint) bool {
	lk := s.mustConstValue(c.lhs)
	rk := s.mustConstValue(c.rhs)
	switch c.kind {
	case ckEq:
		eq := lk.Cmp(rk) == 0
		if c.negated {
			return !eq
		}
		return eq
	case ckULE:
		cmp := lk.Cmp(rk)
		if c.strict {
			return cmp < 0
		}
		return cmp <= 0
	case ckSLE:
		w := c.Width()
		cmp := toSigned(lk, w).Cmp(toSigned(rk, w))
		if c.strict {
			return cmp < 0
		}
		return cmp <= 0
	case ckBit:
		return bitOf(lk, c.bitIndex) == c.bitVal
	default:
		contractViolation("polysat: unknown constraint kind %v", c.kind)
		return false
	}
}

// mustConstValue substitutes every free variable of p with its current
// assignment and returns the resulting constant. Callers must ensure every
// free variable of p is assigned.
func (s *Solver) mustConstValue(p *Poly) *big.Int {
	for _, v := range FreeVars(p) {
		val, ok := s.vars[v].assignedVal()
		if !ok {
			contractViolation("polysat: mustConstValue on polynomial with unassigned variable %d", v)
		}
		p = Substitute(p, v, val)
	}
	k, ok := ConstValue(p)
	if !ok {
		contractViolation("polysat: mustConstValue did not reduce to a constant")
	}
	return k
}

// reduceOtherVars substitutes every free variable of p other than v with
// its current assignment, leaving a polynomial whose only possible free
// variable is v.
func (s *Solver) reduceOtherVars(p *Poly, v Var) *Poly {
	for _, ov := range FreeVars(p) {
		if ov == v {
			continue
		}
		val, ok := s.vars[ov].assignedVal()
		if !ok {
			contractViolation("polysat: reduceOtherVars found unassigned var %d besides %d", ov, v)
		}
		p = Substitute(p, ov, val)
	}
	return p
}

// refineViable computes the set of values for v that satisfy c, given that
// every other free variable of c is currently assigned. eq constraints that
// are linear in v are solved in closed form, and bit constraints are built
// directly by bitRangeSet; everything else is decided by budgeted
// enumeration over v's current viable set.
func (s *Solver) refineViable(c *Constraint, v Var) (RangeSet, error) {
	if c.kind == ckBit {
		return bitRangeSet(c.Width(), c.bitIndex, c.bitVal, s.opts.maxEnumeration)
	}
	w := c.Width()
	reducedLhs := s.reduceOtherVars(c.lhs, v)
	reducedRhs := s.reduceOtherVars(c.rhs, v)

	if c.kind == ckEq {
		diff := Sub(reducedLhs, reducedRhs)
		if coeff, rem, ok := Isolate(diff, v); ok {
			if ck, isConstC := ConstValue(coeff); isConstC {
				if rk, isConstR := ConstValue(rem); isConstR {
					sols, err := solveLinearEqMod(ck, rk, w, s.opts.maxEnumeration)
					if err != nil {
						return RangeSet{}, err
					}
					if c.negated {
						sols = s.vars[v].viable.Subtract(sols)
					}
					return sols, nil
				}
			}
		}
	}

	predicate := func(val *big.Int) bool {
		lv := Substitute(reducedLhs, v, val)
		rv := Substitute(reducedRhs, v, val)
		lk, _ := ConstValue(lv)
		rk, _ := ConstValue(rv)
		switch c.kind {
		case ckEq:
			eq := lk.Cmp(rk) == 0
			if c.negated {
				return !eq
			}
			return eq
		case ckULE:
			cmp := lk.Cmp(rk)
			if c.strict {
				return cmp < 0
			}
			return cmp <= 0
		default: // ckSLE
			cmp := toSigned(lk, w).Cmp(toSigned(rk, w))
			if c.strict {
				return cmp < 0
			}
			return cmp <= 0
		}
	}
	return s.refineByEnumeration(v, predicate)
}

// refineByEnumeration evaluates predicate over every value currently
// viable for v, bounded by the solver's enumeration budget, and returns the
// admitting values as a RangeSet. It is the fallback VSE uses whenever a
// constraint is not linear in the one remaining unassigned variable, or is
// an inequality rather than an equation.
func (s *Solver) refineByEnumeration(v Var, predicate func(*big.Int) bool) (RangeSet, error) {
	current := s.vars[v].viable
	budget := new(big.Int).SetUint64(s.opts.maxEnumeration)
	if current.Count().Cmp(budget) > 0 {
		return RangeSet{}, resourceExhausted(
			"polysat: viable-set enumeration for var %d exceeds budget of %d values", v, s.opts.maxEnumeration)
	}
	var sat []*big.Int
	for _, val := range current.Values() {
		if predicate(val) {
			sat = append(sat, val)
		}
	}
	return rangeSetFromSortedValues(current.Width(), sat), nil
}

// solveLinearEqMod solves c*x + r == 0 (mod 2^w) in closed form via the
// 2-adic valuation of c, returning the (possibly multi-valued) solution
// set. If c is even, gcd(c,2^w) solutions may exist; when that count
// would exceed budget, it returns a *ResourceError instead of enumerating
// them.
func solveLinearEqMod(c, r *big.Int, w uint32, budget uint64) (RangeSet, error) {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(w))
	target := new(big.Int).Neg(r)
	target.Mod(target, mod)

	if c.Sign() == 0 {
		if target.Sign() == 0 {
			return fullRangeSet(w), nil
		}
		return emptyRangeSet(w), nil
	}

	t := trailingZeroBits(c, w)
	if t == 0 {
		inv := new(big.Int).ModInverse(c, mod)
		x0 := new(big.Int).Mul(target, inv)
		x0.Mod(x0, mod)
		return singletonRangeSet(w, x0), nil
	}

	g := new(big.Int).Lsh(big.NewInt(1), uint(t))
	rem := new(big.Int).Mod(target, g)
	if rem.Sign() != 0 {
		return emptyRangeSet(w), nil
	}

	numSolutions := new(big.Int).Lsh(big.NewInt(1), uint(t))
	if numSolutions.Cmp(new(big.Int).SetUint64(budget)) > 0 {
		return RangeSet{}, resourceExhausted("polysat: linear equation solution count 2^%d exceeds budget of %d", t, budget)
	}

	modReduced := new(big.Int).Lsh(big.NewInt(1), uint(w-t))
	cReduced := new(big.Int).Rsh(c, uint(t))
	cReduced.Mod(cReduced, modReduced)
	targetReduced := new(big.Int).Rsh(target, uint(t))
	targetReduced.Mod(targetReduced, modReduced)

	inv := new(big.Int).ModInverse(cReduced, modReduced)
	x0 := new(big.Int).Mul(targetReduced, inv)
	x0.Mod(x0, modReduced)

	n := numSolutions.Uint64()
	vals := make([]*big.Int, 0, n)
	for k := uint64(0); k < n; k++ {
		x := new(big.Int).Add(x0, new(big.Int).Mul(modReduced, new(big.Int).SetUint64(k)))
		vals = append(vals, x)
	}
	return rangeSetFromSortedValues(w, vals), nil
}

// trailingZeroBits returns the number of trailing zero bits of c taken as a
// w-bit unsigned value (i.e. min(v2(c), w), where v2 is the 2-adic
// valuation), used to compute gcd(c, 2^w) = 2^trailingZeroBits(c,w).
func trailingZeroBits(c *big.Int, w uint32) uint32 {
	c = new(big.Int).Mod(c, new(big.Int).Lsh(big.NewInt(1), uint(w)))
	var t uint32
	for t < w && c.Bit(int(t)) == 0 {
		t++
	}
	return t
}
