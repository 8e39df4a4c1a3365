package polysat

import "math/big"

// Viable-Set Engine (VSE): a compact representation of subsets of
// [0, 2^w) as a sorted list of disjoint, non-adjacent closed intervals.
// This is the decision-diagram-adjacent representation spec.md §4.2 calls
// for: unlike a dense bitset, a RangeSet never allocates O(2^w) memory, so
// a 64-bit variable's viable set costs O(1) words until it is fragmented by
// many point exclusions.

type valRange struct {
	lo, hi *big.Int // inclusive
}

// RangeSet represents the still-admissible values of one variable of width
// w. The zero value is not meaningful; use fullRangeSet or emptyRangeSet.
type RangeSet struct {
	w      uint32
	ranges []valRange // sorted ascending, pairwise disjoint and non-adjacent
}

// Width returns the bit-width of the domain rs is a subset of.
func (rs RangeSet) Width() uint32 { return rs.w }

func fullRangeSet(w uint32) RangeSet {
	hi := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(w)), big.NewInt(1))
	return RangeSet{w: w, ranges: []valRange{{lo: big.NewInt(0), hi: hi}}}
}

func emptyRangeSet(w uint32) RangeSet {
	return RangeSet{w: w}
}

func singletonRangeSet(w uint32, k *big.Int) RangeSet {
	v := new(big.Int).Set(k)
	return RangeSet{w: w, ranges: []valRange{{lo: v, hi: new(big.Int).Set(v)}}}
}

// IsEmpty reports whether rs admits no values.
func (rs RangeSet) IsEmpty() bool { return len(rs.ranges) == 0 }

// Contains reports whether k is admissible under rs.
func (rs RangeSet) Contains(k *big.Int) bool {
	lo, hi := 0, len(rs.ranges)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		r := rs.ranges[mid]
		switch {
		case k.Cmp(r.lo) < 0:
			hi = mid - 1
		case k.Cmp(r.hi) > 0:
			lo = mid + 1
		default:
			return true
		}
	}
	return false
}

// IsSingleton returns the sole admissible value and true, iff rs admits
// exactly one value.
func (rs RangeSet) IsSingleton() (*big.Int, bool) {
	if len(rs.ranges) == 1 && rs.ranges[0].lo.Cmp(rs.ranges[0].hi) == 0 {
		return new(big.Int).Set(rs.ranges[0].lo), true
	}
	return nil, false
}

// Pick returns a deterministic representative of rs: the smallest
// admissible value. Callers must ensure rs is non-empty; Pick on an empty
// set is a contract violation, since "pick a witness from nothing" has no
// sound answer.
func (rs RangeSet) Pick() *big.Int {
	if rs.IsEmpty() {
		contractViolation("polysat: Pick on an empty viable set")
	}
	return new(big.Int).Set(rs.ranges[0].lo)
}

// Remove returns rs with the singleton value k excluded. Removing a value
// not present in rs is a no-op, matching VSE's "total operation" contract.
func (rs RangeSet) Remove(k *big.Int) RangeSet {
	idx := -1
	for i, r := range rs.ranges {
		if k.Cmp(r.lo) >= 0 && k.Cmp(r.hi) <= 0 {
			idx = i
			break
		}
	}
	if idx == -1 {
		return rs
	}
	r := rs.ranges[idx]
	out := make([]valRange, 0, len(rs.ranges)+1)
	out = append(out, rs.ranges[:idx]...)
	switch {
	case r.lo.Cmp(k) == 0 && r.hi.Cmp(k) == 0:
		// whole singleton range disappears
	case r.lo.Cmp(k) == 0:
		out = append(out, valRange{lo: addOne(k), hi: r.hi})
	case r.hi.Cmp(k) == 0:
		out = append(out, valRange{lo: r.lo, hi: subOne(k)})
	default:
		out = append(out, valRange{lo: r.lo, hi: subOne(k)}, valRange{lo: addOne(k), hi: r.hi})
	}
	out = append(out, rs.ranges[idx+1:]...)
	return RangeSet{w: rs.w, ranges: out}
}

// Intersect returns the set of values admissible under both rs and other.
// Monotone: the result is always a subset of rs (VSE's refine contract).
func (rs RangeSet) Intersect(other RangeSet) RangeSet {
	var out []valRange
	i, j := 0, 0
	for i < len(rs.ranges) && j < len(other.ranges) {
		a, b := rs.ranges[i], other.ranges[j]
		lo := a.lo
		if b.lo.Cmp(lo) > 0 {
			lo = b.lo
		}
		hi := a.hi
		if b.hi.Cmp(hi) < 0 {
			hi = b.hi
		}
		if lo.Cmp(hi) <= 0 {
			out = append(out, valRange{lo: new(big.Int).Set(lo), hi: new(big.Int).Set(hi)})
		}
		if a.hi.Cmp(b.hi) <= 0 {
			i++
		} else {
			j++
		}
	}
	return RangeSet{w: rs.w, ranges: out}
}

// Subtract returns the values admitted by rs but not by other, computed by
// walking both sorted interval lists rather than enumerating values, so it
// stays cheap even when rs is (close to) the full domain.
func (rs RangeSet) Subtract(other RangeSet) RangeSet {
	var out []valRange
	oi := 0
	for _, r := range rs.ranges {
		lo := new(big.Int).Set(r.lo)
		for oi < len(other.ranges) && other.ranges[oi].hi.Cmp(lo) < 0 {
			oi++
		}
		j := oi
		for j < len(other.ranges) && other.ranges[j].lo.Cmp(r.hi) <= 0 {
			o := other.ranges[j]
			if o.lo.Cmp(lo) > 0 {
				out = append(out, valRange{lo: lo, hi: subOne(o.lo)})
			}
			if o.hi.Cmp(lo) >= 0 {
				lo = addOne(o.hi)
			}
			if lo.Cmp(r.hi) > 0 {
				break
			}
			j++
		}
		if lo.Cmp(r.hi) <= 0 {
			out = append(out, valRange{lo: lo, hi: new(big.Int).Set(r.hi)})
		}
	}
	return RangeSet{w: rs.w, ranges: out}
}

// Subset reports whether every value admitted by rs is also admitted by
// other; used to check VSE's monotonicity property (P5 in SPEC_FULL.md).
func (rs RangeSet) Subset(other RangeSet) bool {
	return rs.Intersect(other).equalRanges(rs)
}

func (rs RangeSet) equalRanges(other RangeSet) bool {
	if len(rs.ranges) != len(other.ranges) {
		return false
	}
	for i := range rs.ranges {
		if rs.ranges[i].lo.Cmp(other.ranges[i].lo) != 0 || rs.ranges[i].hi.Cmp(other.ranges[i].hi) != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of admissible values, for tests and resource
// budgeting; callers should prefer IsEmpty/IsSingleton where possible since
// this walks every range.
func (rs RangeSet) Count() *big.Int {
	total := new(big.Int)
	one := big.NewInt(1)
	for _, r := range rs.ranges {
		span := new(big.Int).Sub(r.hi, r.lo)
		span.Add(span, one)
		total.Add(total, span)
	}
	return total
}

// Values returns every admissible value as a sorted slice; callers must
// only use this under a resource budget, since it is exponential in w in
// the worst case.
func (rs RangeSet) Values() []*big.Int {
	var out []*big.Int
	one := big.NewInt(1)
	for _, r := range rs.ranges {
		for v := new(big.Int).Set(r.lo); v.Cmp(r.hi) <= 0; v = new(big.Int).Add(v, one) {
			out = append(out, new(big.Int).Set(v))
		}
	}
	return out
}

// rangeSetFromSortedValues builds the canonical RangeSet admitting exactly
// the values in vals (sorted ascending, deduplicated), merging adjacent
// values into contiguous ranges.
func rangeSetFromSortedValues(w uint32, vals []*big.Int) RangeSet {
	if len(vals) == 0 {
		return emptyRangeSet(w)
	}
	var out []valRange
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if new(big.Int).Sub(v, hi).Cmp(big.NewInt(1)) == 0 {
			hi = v
			continue
		}
		out = append(out, valRange{lo: lo, hi: hi})
		lo, hi = v, v
	}
	out = append(out, valRange{lo: lo, hi: hi})
	return RangeSet{w: w, ranges: out}
}

func addOne(v *big.Int) *big.Int { return new(big.Int).Add(v, big.NewInt(1)) }
func subOne(v *big.Int) *big.Int { return new(big.Int).Sub(v, big.NewInt(1)) }

// bitOf reports the bitIndex-th bit of val (bit 0 is least significant).
func bitOf(val *big.Int, bitIndex uint32) bool { return val.Bit(int(bitIndex)) == 1 }

// bitRangeSet returns the set of w-bit values whose bitIndex-th bit equals
// bit, built directly as a run of aligned blocks rather than by evaluating
// a predicate over every candidate value — the blocks are periodic with
// period 2^(bitIndex+1), so this stays cheap for constraints near the top
// of a wide variable's range. Low-order-bit constraints on a wide variable
// still need one interval per period and can exceed budget; that is
// reported as a *ResourceError, the same character as the generic
// enumeration fallback used for nonlinear constraints.
func bitRangeSet(w, bitIndex uint32, bit bool, budget uint64) (RangeSet, error) {
	blockSize := new(big.Int).Lsh(big.NewInt(1), uint(bitIndex+1))
	domainSize := new(big.Int).Lsh(big.NewInt(1), uint(w))
	numBlocks := new(big.Int).Div(domainSize, blockSize)
	if numBlocks.Cmp(new(big.Int).SetUint64(budget)) > 0 {
		return RangeSet{}, resourceExhausted(
			"polysat: bit-range construction for bit %d of a %d-bit variable exceeds budget of %d blocks", bitIndex, w, budget)
	}
	half := new(big.Int).Lsh(big.NewInt(1), uint(bitIndex))
	lo0 := big.NewInt(0)
	if bit {
		lo0 = new(big.Int).Set(half)
	}
	n := numBlocks.Uint64()
	ranges := make([]valRange, 0, n)
	for k := uint64(0); k < n; k++ {
		base := new(big.Int).Mul(blockSize, new(big.Int).SetUint64(k))
		lo := new(big.Int).Add(base, lo0)
		hi := new(big.Int).Add(lo, subOne(half))
		ranges = append(ranges, valRange{lo: lo, hi: hi})
	}
	return RangeSet{w: w, ranges: ranges}, nil
}
