package polysat

import (
	"math/big"

	"github.com/sirupsen/logrus"
)

// Search Engine (SE): the CDCL(T)-style loop that ties the Polynomial
// Engine, Viable-Set Engine, Dependency Tracker, Trail, Constraint Store
// and Watch Index together into check_sat.

// varInfo is the solver's per-variable mutable state.
type varInfo struct {
	width    uint32
	viable   RangeSet
	just     justification
	narrowed DepSet // union of deps of constraints that have ever narrowed this var's viable set away from full range, reset on unassign
}

func (v *varInfo) assignedVal() (*big.Int, bool) { return v.viable.IsSingleton() }

// Solver is a polysat instance: one arena of polynomials, variables,
// constraints and search state. A Solver is not safe for concurrent use.
type Solver struct {
	mgrs map[uint32]*polyManager

	vars     []varInfo
	activity []float64
	queue    activityQueue
	varInc   float64

	trail Trail
	cs    ConstraintStore
	wi    *WatchIndex
	dt    depTracker

	propQueue     []Var
	initialChecks []*watchEntry

	// search is every assigned variable (decision or propagation) in
	// assignment order, mirroring spec.md §3's `search`; resolveConflict
	// walks it latest-first to eliminate propagated variables via Isolate.
	search []Var

	// pendingConflict holds a conflict detected by a caller-driven
	// Propagate step that has not yet been consumed by CheckSat/propagate.
	pendingConflict    *Constraint
	pendingConflictDep DepSet

	decisions []Var
	cjust     map[Var][]*Constraint

	// marks/clock implement a generation-counter mark bitmap over variables:
	// resetMarks is O(1) (bump the clock), so conflict resolution can re-mark
	// a shrinking free-variable set once per elimination step without an O(n)
	// clear.
	marks []uint32
	clock uint32

	nDecisions uint64
	nConflicts uint64
	nLearned   uint64

	scopeConstraintMarks []int
	scopeRedundantMarks  []int
	scopeVarMarks        []int

	opts solverOptions

	verdict   Verdict
	err       error
	model     map[Var]*big.Int
	unsatCore DepSet
}

type solverOptions struct {
	logger         *logrus.Logger
	varDecay       float64
	maxEnumeration uint64
}

func defaultOptions() solverOptions {
	return solverOptions{
		logger:         logrus.New(),
		varDecay:       0.95,
		maxEnumeration: 1 << 20,
	}
}

// Option configures a Solver at construction time.
type Option func(*solverOptions)

// WithLogger sets the logrus.Logger used for decision/conflict-boundary
// diagnostics. The default is a logrus.New() at its default (Info) level,
// so a caller wanting search traces should pass a logger at Debug level.
func WithLogger(l *logrus.Logger) Option {
	return func(o *solverOptions) { o.logger = l }
}

// WithVarDecay sets the per-conflict decay factor applied to variable
// activity (MiniSat-style VSIDS); must be in (0, 1]. Smaller values forget
// history faster, favoring recently-involved-in-conflict variables more
// strongly.
func WithVarDecay(d float64) Option {
	return func(o *solverOptions) { o.varDecay = d }
}

// WithMaxEnumeration bounds how many candidate values the resource-budgeted
// enumeration fallback (used to refine nonlinear or inequality constraints)
// may examine before CheckSat gives up with Unknown and a *ResourceError.
func WithMaxEnumeration(n uint64) Option {
	return func(o *solverOptions) { o.maxEnumeration = n }
}

// NewSolver constructs an empty Solver.
func NewSolver(opts ...Option) *Solver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &Solver{
		mgrs:   make(map[uint32]*polyManager),
		wi:     newWatchIndex(),
		cjust:  make(map[Var][]*Constraint),
		opts:   o,
		varInc: 1.0,
	}
	s.queue = newActivityQueue(s.activity)
	return s
}

// manager returns the polynomial arena for width w, creating it on first
// use. poly.go's Solver.ConstPoly relies on this.
func (s *Solver) manager(w uint32) *polyManager {
	m, ok := s.mgrs[w]
	if !ok {
		m = newPolyManager(w)
		s.mgrs[w] = m
	}
	return m
}

// AddVar registers a fresh variable of bit-width w, admissible over its
// full range [0, 2^w) until constrained.
func (s *Solver) AddVar(w uint32) Var {
	v := Var(len(s.vars))
	s.vars = append(s.vars, varInfo{width: w, viable: fullRangeSet(w), just: unassignedJust()})
	s.activity = append(s.activity, 0)
	s.queue.activity = s.activity
	s.queue.insert(v)
	return v
}

// Width returns the bit-width v was created with.
func (s *Solver) Width(v Var) uint32 { return s.vars[v].width }

// VarPoly returns the canonical polynomial x_v for v.
func (s *Solver) VarPoly(v Var) *Poly {
	return s.manager(s.vars[v].width).varPoly(v)
}

// NewDep mints a fresh dependency tag for an input constraint, remembering
// label purely for diagnostics (e.g. printed alongside an unsat core).
func (s *Solver) NewDep(label interface{}) Dep { return s.dt.newDep(label) }

func (s *Solver) isAssigned(v Var) bool {
	_, ok := s.vars[v].assignedVal()
	return ok
}

// --- asserting constraints -------------------------------------------------

func (s *Solver) assertConstraint(kind ckind, negated, strict bool, lhs, rhs *Poly, dep Dep) {
	checkSameManager(lhs, rhs)
	c := s.cs.addOriginal(kind, negated, strict, lhs, rhs, singletonDep(dep))
	s.registerConstraint(c)
}

// AddEq asserts lhs == rhs.
func (s *Solver) AddEq(lhs, rhs *Poly, dep Dep) {
	s.assertConstraint(ckEq, false, false, lhs, rhs, dep)
}

// AddDiseq asserts lhs != rhs.
func (s *Solver) AddDiseq(lhs, rhs *Poly, dep Dep) {
	s.assertConstraint(ckEq, true, false, lhs, rhs, dep)
}

// AddULE asserts lhs <= rhs under unsigned interpretation.
func (s *Solver) AddULE(lhs, rhs *Poly, dep Dep) {
	s.assertConstraint(ckULE, false, false, lhs, rhs, dep)
}

// AddULT asserts lhs < rhs under unsigned interpretation.
func (s *Solver) AddULT(lhs, rhs *Poly, dep Dep) {
	s.assertConstraint(ckULE, false, true, lhs, rhs, dep)
}

// AddSLE asserts lhs <= rhs under two's-complement signed interpretation.
func (s *Solver) AddSLE(lhs, rhs *Poly, dep Dep) {
	s.assertConstraint(ckSLE, false, false, lhs, rhs, dep)
}

// AddSLT asserts lhs < rhs under two's-complement signed interpretation.
func (s *Solver) AddSLT(lhs, rhs *Poly, dep Dep) {
	s.assertConstraint(ckSLE, false, true, lhs, rhs, dep)
}

// Assign forces the bitIndex-th bit of v (0 is least significant) to bit,
// entered as a unit constraint pinned to the current scope and tagged with
// dep, per spec.md §6's "assign(v, i, b, dep)" external operation.
func (s *Solver) Assign(v Var, bitIndex uint32, bit bool, dep Dep) {
	w := s.vars[v].width
	if bitIndex >= w {
		contractViolation("polysat: bit index %d out of range for %d-bit variable %d", bitIndex, w, v)
	}
	lhs := s.VarPoly(v)
	zero := s.ConstPoly(w, big.NewInt(0))
	c := s.cs.addBitOriginal(lhs, zero, bitIndex, bit, singletonDep(dep))
	s.registerConstraint(c)
}

func (s *Solver) registerConstraint(c *Constraint) {
	s.wi.register(c, s.isAssigned)
	e := s.wi.byID[c.id]
	if len(e.liveFreeVars(s.isAssigned)) <= 1 {
		s.initialChecks = append(s.initialChecks, e)
	}
	s.verdict = Unknown
	s.err = nil
	s.model = nil
	if s.pendingConflict != nil {
		// a conflict found by a caller-driven Propagate step must not be
		// forgotten just because more constraints arrived; re-queue its
		// entry so the next propagation pass re-detects it.
		if pe := s.wi.byID[s.pendingConflict.id]; pe != nil {
			s.initialChecks = append(s.initialChecks, pe)
		}
		s.pendingConflict = nil
		s.pendingConflictDep = DepSet{}
	}
}

func (s *Solver) rebuildWatchIndex() {
	s.wi = newWatchIndex()
	s.initialChecks = nil
	s.propQueue = nil
	for _, c := range s.cs.All() {
		s.wi.register(c, s.isAssigned)
		e := s.wi.byID[c.id]
		if len(e.liveFreeVars(s.isAssigned)) <= 1 {
			s.initialChecks = append(s.initialChecks, e)
		}
	}
}

// --- scoping ----------------------------------------------------------------

// Push opens a new assertion scope; constraints and variables added after
// Push are retracted by the matching Pop.
func (s *Solver) Push() {
	s.trail.pushScope()
	s.scopeConstraintMarks = append(s.scopeConstraintMarks, len(s.cs.original))
	s.scopeRedundantMarks = append(s.scopeRedundantMarks, len(s.cs.redundant))
	s.scopeVarMarks = append(s.scopeVarMarks, len(s.vars))
}

// Pop retracts every assertion and variable made since the matching Push.
func (s *Solver) Pop() {
	if len(s.scopeVarMarks) == 0 {
		contractViolation("polysat: Pop with no matching Push")
	}
	s.trail.popScope()

	cMark := s.scopeConstraintMarks[len(s.scopeConstraintMarks)-1]
	s.scopeConstraintMarks = s.scopeConstraintMarks[:len(s.scopeConstraintMarks)-1]
	s.cs.truncateOriginal(cMark)

	rMark := s.scopeRedundantMarks[len(s.scopeRedundantMarks)-1]
	s.scopeRedundantMarks = s.scopeRedundantMarks[:len(s.scopeRedundantMarks)-1]
	s.cs.truncateRedundant(rMark)

	vMark := s.scopeVarMarks[len(s.scopeVarMarks)-1]
	s.scopeVarMarks = s.scopeVarMarks[:len(s.scopeVarMarks)-1]
	s.vars = s.vars[:vMark]
	s.activity = s.activity[:vMark]
	s.rebuildQueue()

	for i := len(s.decisions) - 1; i >= 0; i-- {
		if int(s.decisions[i]) >= vMark {
			s.decisions = s.decisions[:i]
		}
	}
	for i := len(s.search) - 1; i >= 0; i-- {
		if int(s.search[i]) >= vMark {
			s.search = s.search[:i]
		}
	}
	for v := range s.cjust {
		if int(v) >= vMark {
			delete(s.cjust, v)
		}
	}
	s.rebuildWatchIndex()

	s.verdict = Unknown
	s.err = nil
	s.model = nil
	s.unsatCore = DepSet{}
	s.pendingConflict = nil
	s.pendingConflictDep = DepSet{}
}

func (s *Solver) rebuildQueue() {
	q := newActivityQueue(nil)
	q.activity = s.activity
	for v := range s.vars {
		if !s.isAssigned(Var(v)) {
			q.insert(Var(v))
		}
	}
	s.queue = q
}

// --- marks -------------------------------------------------------------------

// resetMarks clears every variable mark by advancing the generation clock.
func (s *Solver) resetMarks() { s.clock++ }

func (s *Solver) setMark(v Var) {
	for int(v) >= len(s.marks) {
		s.marks = append(s.marks, 0)
	}
	s.marks[v] = s.clock
}

func (s *Solver) isMarked(v Var) bool {
	return int(v) < len(s.marks) && s.marks[v] == s.clock
}

// --- activity ----------------------------------------------------------------

func (s *Solver) bumpActivity(v Var) {
	s.activity[v] += s.varInc
	if s.activity[v] > 1e100 {
		for i := range s.activity {
			s.activity[i] *= 1e-100
		}
		s.varInc *= 1e-100
	}
	if s.queue.contains(v) {
		s.queue.update(v)
	}
}

func (s *Solver) decayActivity() {
	s.varInc /= s.opts.varDecay
}

// --- assignment --------------------------------------------------------------

func (s *Solver) assignCore(v Var, val *big.Int, just justification) {
	old := s.vars[v].viable
	oldJust := s.vars[v].just
	oldNarrowed := s.vars[v].narrowed
	s.trail.record(func() {
		s.vars[v].viable = old
		s.vars[v].just = oldJust
		s.vars[v].narrowed = oldNarrowed
		if !s.queue.contains(v) {
			s.queue.insert(v)
		}
		s.search = s.search[:len(s.search)-1]
	})
	s.vars[v].viable = singletonRangeSet(s.vars[v].width, val)
	s.vars[v].just = just
	if s.queue.contains(v) {
		s.queue.remove(v)
	}
	s.search = append(s.search, v)
	s.propQueue = append(s.propQueue, v)
}

// refine narrows v's viable set to restricted, which must already be a
// subset of its current viable set. If restricted is a singleton, this is
// an implied assignment (propagation) and v is removed from the decision
// queue and enqueued for watch processing. cause is the constraint whose
// narrowing produced restricted; when the narrowing makes v a singleton,
// cause is recorded as v's justification (cjust(v), spec.md §3) so conflict
// resolution can later eliminate v via Isolate.
func (s *Solver) refine(v Var, restricted RangeSet, dep DepSet, cause *Constraint) {
	old := s.vars[v].viable
	oldNarrowed := s.vars[v].narrowed
	oldJust := s.vars[v].just
	oldCjust := s.cjust[v]
	_, oldWasSingleton := old.IsSingleton()
	s.trail.record(func() {
		s.vars[v].viable = old
		s.vars[v].narrowed = oldNarrowed
		s.vars[v].just = oldJust
		if !oldWasSingleton && !s.queue.contains(v) {
			// was a live decision candidate before refine; restore it
			s.queue.insert(v)
		}
		s.cjust[v] = oldCjust
		if _, wasSingleton := restricted.IsSingleton(); wasSingleton {
			s.search = s.search[:len(s.search)-1]
		}
	})
	s.vars[v].viable = restricted
	s.vars[v].narrowed = joinDeps(s.vars[v].narrowed, dep)
	if _, ok := restricted.IsSingleton(); ok {
		s.vars[v].just = propagationJust(s.trail.Level())
		s.cjust[v] = []*Constraint{cause}
		if s.queue.contains(v) {
			s.queue.remove(v)
		}
		s.search = append(s.search, v)
		s.propQueue = append(s.propQueue, v)
	}
}

func (s *Solver) decide(v Var) {
	val := s.vars[v].viable.Pick()
	lvl := s.trail.beginLevel()
	s.decisions = append(s.decisions, v)
	s.trail.record(func() {
		s.decisions = s.decisions[:len(s.decisions)-1]
	})
	delete(s.cjust, v)
	s.assignCore(v, val, decisionJust(lvl))
	s.nDecisions++
	s.opts.logger.WithFields(logrus.Fields{"var": v, "val": val.String(), "level": lvl}).Debug("polysat: decide")
}

func (s *Solver) pickDecisionVar() (Var, bool) {
	if s.queue.empty() {
		return 0, false
	}
	return s.queue.removeMax(), true
}

func (s *Solver) atBaseLevel() bool { return s.trail.Level() == baseLevel }

// pruneUnassignedPropWork drops queued watch visits for variables whose
// assignment a backjump just undid; those variables are re-enqueued if they
// are reassigned. Visits for variables still assigned below the backjump
// level are kept, so no pending propagation against them is lost.
func (s *Solver) pruneUnassignedPropWork() {
	kept := s.propQueue[:0]
	for _, v := range s.propQueue {
		if s.isAssigned(v) {
			kept = append(kept, v)
		}
	}
	s.propQueue = kept
}

// --- search ------------------------------------------------------------------

// CanPropagate reports whether any propagation work remains: an initial
// check not yet evaluated, a variable assignment whose watch list has not
// yet been visited, or a conflict detected by a prior Propagate call that
// has not yet been consumed. Per spec.md §6, an embedding caller polls
// this to decide whether to call Propagate again or do its own work.
func (s *Solver) CanPropagate() bool {
	return s.pendingConflict != nil || s.hasPropagationWork()
}

// Propagate performs a single step of propagation — see propagateStep —
// and reports whether it found a conflict. This is the single-step
// counterpart to the fixed-point loop CheckSat drives internally,
// exposed so an embedding caller can interleave propagation with its own
// work between steps (spec.md §6). A conflict found here is remembered
// and surfaced by the next CheckSat call (or the next Propagate call,
// which returns true immediately without doing further work). Propagate
// is a no-op returning false when CanPropagate is false.
func (s *Solver) Propagate() bool {
	if s.pendingConflict != nil {
		return true
	}
	if !s.hasPropagationWork() {
		return false
	}
	conflict, dep, err := s.propagateStep()
	if err != nil {
		s.verdict = Unknown
		s.err = err
		return false
	}
	if conflict != nil {
		s.pendingConflict = conflict
		s.pendingConflictDep = dep
		return true
	}
	return false
}

// CheckSat runs the CDCL(T) search loop to quiescence: propagate,
// conflict-resolve-and-backjump, or decide, until the formula is shown sat,
// unsat, or the search is abandoned. If stop is non-nil and a value is
// received (or the channel is closed) before a verdict is reached, CheckSat
// returns Unknown and Err returns a *CancelledError.
func (s *Solver) CheckSat(stop <-chan struct{}) Verdict {
	for {
		if stop != nil {
			select {
			case <-stop:
				s.verdict = Unknown
				s.err = &CancelledError{}
				return s.verdict
			default:
			}
		}

		conflict, conflictDep, err := s.propagate()
		if err != nil {
			s.verdict = Unknown
			s.err = err
			return s.verdict
		}
		if conflict != nil {
			s.nConflicts++
			if s.atBaseLevel() {
				s.verdict = Unsat
				s.unsatCore = conflictDep
				s.err = nil
				s.logCompletion()
				return s.verdict
			}
			lemma, backLvl, err := s.resolveConflict(conflict, conflictDep)
			if err != nil {
				s.verdict = Unknown
				s.err = err
				return s.verdict
			}
			s.decayActivity()
			s.trail.undoToLevel(backLvl)
			s.pruneUnassignedPropWork()
			s.installLemma(lemma)
			s.opts.logger.WithFields(logrus.Fields{"level": backLvl}).Debug("polysat: backjump")
			continue
		}

		v, ok := s.pickDecisionVar()
		if !ok {
			s.verdict = Sat
			s.err = nil
			s.buildModel()
			s.logCompletion()
			return s.verdict
		}
		s.decide(v)
	}
}

func (s *Solver) logCompletion() {
	s.opts.logger.WithFields(logrus.Fields{
		"verdict":   s.verdict.String(),
		"level":     s.trail.Level(),
		"decisions": s.nDecisions,
		"conflicts": s.nConflicts,
		"learned":   s.nLearned,
	}).Debug("polysat: check-sat done")
}

func (s *Solver) buildModel() {
	s.model = make(map[Var]*big.Int, len(s.vars))
	for v := range s.vars {
		val, ok := s.vars[v].assignedVal()
		if !ok {
			continue
		}
		s.model[Var(v)] = val
	}
}

// Model returns the satisfying assignment found by the most recent
// CheckSat call, if its verdict was Sat.
func (s *Solver) Model() (map[Var]*big.Int, bool) {
	if s.verdict != Sat {
		return nil, false
	}
	return s.model, true
}

// UnsatCore returns a dependency tag set that is a valid (not necessarily
// minimal) unsatisfiable core for the most recent CheckSat call, if its
// verdict was Unsat.
func (s *Solver) UnsatCore() (DepSet, bool) {
	if s.verdict != Unsat {
		return DepSet{}, false
	}
	return s.unsatCore, true
}

// Err returns the reason CheckSat returned Unknown, or nil if the most
// recent verdict was Sat, Unsat, or CheckSat has not yet been called.
func (s *Solver) Err() error { return s.err }
