package polysat

import "sort"

// Dep is an opaque dependency tag minted for an input constraint. The zero
// value, NoDep, means "no tag attached" and never appears in a DepSet
// produced by joinDeps.
type Dep uint32

// NoDep is the dependency tag meaning "untracked". It carries no
// information into unsat cores.
const NoDep Dep = 0

// DepSet is an immutable join-semilattice set of dependency tags. Lemmas
// carry the union (joinDeps) of the dependencies of the constraints they are
// derived from, so the enclosing system can project an unsat core back onto
// input labels. The zero value is the empty set.
type DepSet struct {
	tags []Dep // sorted, deduplicated, never contains NoDep
}

// singletonDep builds a DepSet from a single tag. NoDep yields the empty set.
func singletonDep(d Dep) DepSet {
	if d == NoDep {
		return DepSet{}
	}
	return DepSet{tags: []Dep{d}}
}

// Empty reports whether the set carries no dependency tags.
func (s DepSet) Empty() bool { return len(s.tags) == 0 }

// Contains reports whether d is a member of s.
func (s DepSet) Contains(d Dep) bool {
	i := sort.Search(len(s.tags), func(i int) bool { return s.tags[i] >= d })
	return i < len(s.tags) && s.tags[i] == d
}

// Tags returns the sorted, deduplicated tags in s. The caller must not
// mutate the returned slice.
func (s DepSet) Tags() []Dep { return s.tags }

// Len returns the number of distinct tags in s.
func (s DepSet) Len() int { return len(s.tags) }

// joinDeps returns the union of a and b. It is the DT's single mutating-free
// operation: dependency sets are never mutated in place, only combined into
// new ones, so lemmas can share storage with the constraints they derive
// from without aliasing hazards.
func joinDeps(a, b DepSet) DepSet {
	if len(a.tags) == 0 {
		return b
	}
	if len(b.tags) == 0 {
		return a
	}
	merged := make([]Dep, 0, len(a.tags)+len(b.tags))
	i, j := 0, 0
	for i < len(a.tags) && j < len(b.tags) {
		switch {
		case a.tags[i] < b.tags[j]:
			merged = append(merged, a.tags[i])
			i++
		case a.tags[i] > b.tags[j]:
			merged = append(merged, b.tags[j])
			j++
		default:
			merged = append(merged, a.tags[i])
			i++
			j++
		}
	}
	merged = append(merged, a.tags[i:]...)
	merged = append(merged, b.tags[j:]...)
	return DepSet{tags: merged}
}

// disjointFrom reports whether s and other share no tags, the relation the
// unsat-core property (P2 in SPEC_FULL.md) is stated in; only tests call it.
func (s DepSet) disjointFrom(other DepSet) bool {
	for _, t := range other.tags {
		if s.Contains(t) {
			return false
		}
	}
	return true
}

// depTracker mints fresh Dep tags and remembers the caller-supplied label
// for each, purely for diagnostic display; the solver's core algorithms
// only ever look at Dep/DepSet values.
type depTracker struct {
	labels []interface{} // labels[d-1] is the label for Dep(d)
}

func (dt *depTracker) newDep(label interface{}) Dep {
	dt.labels = append(dt.labels, label)
	return Dep(len(dt.labels))
}

func (dt *depTracker) label(d Dep) interface{} {
	if d == NoDep || int(d) > len(dt.labels) {
		return nil
	}
	return dt.labels[d-1]
}
