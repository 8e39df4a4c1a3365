package polysat

// Describes the basic identifiers and status types shared across the
// solver's components.

// Var identifies a solver variable. Variables are dense, start at 0, and
// are created once via AddVar; they are never reused except by popping a
// user scope below their creation point.
type Var uint32

// Verdict is the outcome of a call to CheckSat.
type Verdict byte

const (
	// Unknown means the search was inconclusive, e.g. cancelled or
	// abandoned due to resource exhaustion. The solver state remains
	// consistent and may be resumed or popped.
	Unknown Verdict = iota
	// Sat means the current conjunction of constraints is satisfiable;
	// Model reflects a satisfying assignment.
	Sat
	// Unsat means the current conjunction is unsatisfiable; UnsatCore
	// reflects a dependency tag set that is a valid (not necessarily
	// minimal) core.
	Unsat
)

func (v Verdict) String() string {
	switch v {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	case Unknown:
		return "unknown"
	default:
		panic("invalid verdict")
	}
}

// level is a decision level. Level 0 is the base level (no decisions made,
// only user-asserted facts and their unit consequences). Levels increase
// by one per decision.
type level uint32

const baseLevel level = 0

// justKind distinguishes why a variable holds its current value.
type justKind byte

const (
	justUnassigned justKind = iota
	justDecision
	justPropagation
)

// justification records why and at what level a variable was assigned.
type justification struct {
	kind justKind
	lvl  level
}

func unassignedJust() justification { return justification{kind: justUnassigned} }

func decisionJust(lvl level) justification {
	return justification{kind: justDecision, lvl: lvl}
}

func propagationJust(lvl level) justification {
	return justification{kind: justPropagation, lvl: lvl}
}

func (j justification) isUnassigned() bool  { return j.kind == justUnassigned }
func (j justification) isDecision() bool    { return j.kind == justDecision }
func (j justification) isPropagation() bool { return j.kind == justPropagation }
