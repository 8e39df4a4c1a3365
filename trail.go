package polysat

// Trail (TR): a reversible undo log over every piece of mutable solver
// state — variable assignments, viable sets, the watch index, and the
// constraint pool. Every mutation that must be reversible on backtrack
// records a closure that restores the previous value; undoing a span of
// the trail simply runs those closures in reverse order.
//
// The trail is scoped two ways at once: by CDCL decision level (undone on
// backjump during search) and by user Push/Pop (undone when the caller
// retracts a batch of assertions). Both are just named marks into the same
// entry list, so popping a user scope that spans several decision levels
// works for free.

type undoEntry struct {
	undo func()
}

// Trail is the solver's single reversible log. The zero value is ready to
// use.
type Trail struct {
	entries []undoEntry

	// levelMarks[l] is the trail length when decision level l+1 began;
	// len(levelMarks) is the current decision level.
	levelMarks []int

	// userMarks[i] is the trail length when the i-th user Push() happened.
	userMarks []int
}

// Level returns the current decision level. 0 is the base level.
func (t *Trail) Level() level { return level(len(t.levelMarks)) }

// Depth returns the number of user scopes currently pushed.
func (t *Trail) Depth() int { return len(t.userMarks) }

// record appends a single undo action to the trail at the current
// position. Callers must record *before* mutating, or immediately after,
// so that running undo reverses exactly that mutation.
func (t *Trail) record(undo func()) {
	t.entries = append(t.entries, undoEntry{undo: undo})
}

// beginLevel opens a new decision level and returns it.
func (t *Trail) beginLevel() level {
	t.levelMarks = append(t.levelMarks, len(t.entries))
	return t.Level()
}

// undoToLevel unwinds the trail back to the state at the start of target
// (target must be <= the current level; target == current level is a
// no-op). This is the mechanism backjump uses to retract decisions and
// their propagation consequences in one step.
func (t *Trail) undoToLevel(target level) {
	if int(target) > len(t.levelMarks) {
		contractViolation("polysat: undoToLevel(%d) above current level %d", target, len(t.levelMarks))
	}
	if int(target) == len(t.levelMarks) {
		return
	}
	mark := t.levelMarks[target]
	t.unwindTo(mark)
	t.levelMarks = t.levelMarks[:target]
}

// pushScope opens a new user scope, recording the current trail position so
// popScope can restore it. It does not open a new decision level; a pushed
// scope persists across intervening CheckSat calls that backjump to base
// level and re-decide.
func (t *Trail) pushScope() {
	t.userMarks = append(t.userMarks, len(t.entries))
}

// popScope undoes every mutation recorded since the matching pushScope and
// closes the most recently opened decision levels that began inside it.
func (t *Trail) popScope() {
	if len(t.userMarks) == 0 {
		contractViolation("polysat: popScope with no matching pushScope")
	}
	mark := t.userMarks[len(t.userMarks)-1]
	t.userMarks = t.userMarks[:len(t.userMarks)-1]
	t.unwindTo(mark)
	for len(t.levelMarks) > 0 && t.levelMarks[len(t.levelMarks)-1] >= mark {
		t.levelMarks = t.levelMarks[:len(t.levelMarks)-1]
	}
}

// unwindTo runs undo closures in reverse from the end of the trail down to
// (not including) index mark, then truncates the entry slice.
func (t *Trail) unwindTo(mark int) {
	for i := len(t.entries) - 1; i >= mark; i-- {
		t.entries[i].undo()
	}
	t.entries = t.entries[:mark]
}
