package polysat

import "sort"

// Watch Index (WI): generalizes two-watched-literal propagation from
// boolean SAT to polynomial constraints. Each constraint watches up to two
// of its free variables — the two lowest-numbered ones not yet assigned —
// and is
// only visited when one of those watched variables is assigned. A
// constraint with zero or one live free variables is always watched (it
// has nothing left to wait for) and is eagerly visited by the propagation
// loop that owns it.

// watchEntry is the mutable per-constraint watch state. Constraint itself
// stays immutable so that a constraint can be shared between the original
// and redundant pools' bookkeeping without aliasing surprises; watchEntry
// is the only place that mutates as the search assigns and unassigns
// variables.
type watchEntry struct {
	c       *Constraint
	vars    []Var // every free variable of c's normalized polynomial, sorted ascending
	watched [2]Var
	nWatch  int // 0, 1, or 2: how many of watched[:nWatch] are meaningful
}

// WatchIndex maps each variable to the constraints currently watching it.
type WatchIndex struct {
	buckets map[Var][]*watchEntry
	byID    map[int]*watchEntry
}

func newWatchIndex() *WatchIndex {
	return &WatchIndex{
		buckets: make(map[Var][]*watchEntry),
		byID:    make(map[int]*watchEntry),
	}
}

// register adds c to the index, choosing its initial watched variables
// from isAssigned. Constraints with fewer than two free variables are
// still tracked (nWatch reflects how many exist) so the propagation loop
// can find them via ConstraintsOn for their sole free variable; an entry
// with every free variable already assigned is filed under its first one.
// register queues nothing itself: its callers put entries with at most one
// unassigned variable on the solver's initialChecks queue.
func (wi *WatchIndex) register(c *Constraint, isAssigned func(Var) bool) {
	vars := FreeVars(c.normalizedPoly())
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	e := &watchEntry{c: c, vars: vars}
	for _, v := range vars {
		if e.nWatch == 2 {
			break
		}
		if !isAssigned(v) {
			e.watched[e.nWatch] = v
			e.nWatch++
		}
	}
	wi.byID[c.id] = e
	for i := 0; i < e.nWatch; i++ {
		v := e.watched[i]
		wi.buckets[v] = append(wi.buckets[v], e)
	}
	if e.nWatch == 0 && len(vars) > 0 {
		// every free variable already assigned at registration time: file
		// under its (now irrelevant) first free var so ConstraintsOn still
		// surfaces it once, matching the "always visit fully-bound
		// constraints eagerly" contract.
		wi.buckets[vars[0]] = append(wi.buckets[vars[0]], e)
	}
}

func (wi *WatchIndex) remove(v Var, e *watchEntry) {
	bucket := wi.buckets[v]
	for i, cand := range bucket {
		if cand == e {
			wi.buckets[v] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

// ConstraintsOn returns the constraints currently watching v; the
// propagation loop calls this when v is assigned, by decision or by
// propagation.
func (wi *WatchIndex) ConstraintsOn(v Var) []*watchEntry {
	return wi.buckets[v]
}

// Retarget moves e's watch away from the now-assigned variable `from` to a
// still-unassigned free variable of e.c, if one exists. It reports whether
// a replacement was found; false means e now has at most one unassigned
// free variable left and must be handed to the propagator as a unit (or
// fully-bound) constraint rather than re-watched.
func (wi *WatchIndex) Retarget(e *watchEntry, from Var, isAssigned func(Var) bool) bool {
	slot := -1
	for i := 0; i < e.nWatch; i++ {
		if e.watched[i] == from {
			slot = i
			break
		}
	}
	if slot == -1 {
		return true // not actually watching `from`: nothing to do
	}
	for _, v := range e.vars {
		if v == from || isAssigned(v) {
			continue
		}
		if v == e.otherWatched(slot) {
			continue
		}
		wi.remove(from, e)
		e.watched[slot] = v
		wi.buckets[v] = append(wi.buckets[v], e)
		return true
	}
	return false
}

func (e *watchEntry) otherWatched(slot int) Var {
	if e.nWatch < 2 {
		return e.watched[slot]
	}
	if slot == 0 {
		return e.watched[1]
	}
	return e.watched[0]
}

// liveFreeVars returns e's free variables that are not yet assigned,
// watched or not; propagation uses this to decide whether a
// constraint is a true unit (exactly one live variable) or fully bound
// (zero).
func (e *watchEntry) liveFreeVars(isAssigned func(Var) bool) []Var {
	var live []Var
	for _, v := range e.vars {
		if !isAssigned(v) {
			live = append(live, v)
		}
	}
	return live
}
