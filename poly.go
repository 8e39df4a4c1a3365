package polysat

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Polynomial Engine (PE): canonical, hash-consed polynomials over Z/2^w in
// the solver's registered variables. Two syntactically distinct
// constructions of the same polynomial return the same *Poly handle, so
// equality is pointer equality.

// factor is one variable raised to a power within a monomial.
type factor struct {
	v   Var
	exp uint32
}

// polyTerm is a coefficient times a monomial (a sorted, duplicate-free list
// of factors; a nil mono denotes the constant monomial 1).
type polyTerm struct {
	coeff *big.Int
	mono  []factor
}

// Poly is a canonical polynomial over Z/2^w. Poly values are only ever
// produced by a polyManager and are safe to compare with ==.
type Poly struct {
	w     uint32
	mgr   *polyManager
	terms []polyTerm // canonical order, nonzero coefficients, unique monomials
	key   string
}

// Width returns the bit-width of the ring p lives in.
func (p *Poly) Width() uint32 { return p.w }

// polyManager hash-conses every polynomial of one bit-width for one solver.
// Per spec.md §9 ("prefer per-solver arenas to avoid hidden coupling"),
// a polyManager is never shared between Solver instances.
type polyManager struct {
	w     uint32
	mod   *big.Int // 2^w
	table map[string]*Poly
}

func newPolyManager(w uint32) *polyManager {
	return &polyManager{
		w:     w,
		mod:   new(big.Int).Lsh(big.NewInt(1), uint(w)),
		table: make(map[string]*Poly),
	}
}

func monoKey(mono []factor) string {
	if len(mono) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range mono {
		fmt.Fprintf(&b, "%d^%d;", f.v, f.exp)
	}
	return b.String()
}

// compareMono provides the canonical monomial order: shorter monomials
// (fewer distinct variables) sort first, ties broken lexicographically on
// (var, exponent) pairs. Any strict total order would do; this one is
// stable and cheap.
func compareMono(a, b []factor) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := range a {
		if a[i].v != b[i].v {
			if a[i].v < b[i].v {
				return -1
			}
			return 1
		}
		if a[i].exp != b[i].exp {
			if a[i].exp < b[i].exp {
				return -1
			}
			return 1
		}
	}
	return 0
}

// mulMono merges two sorted, duplicate-free factor lists, summing exponents
// of shared variables.
func mulMono(a, b []factor) []factor {
	res := make([]factor, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].v < b[j].v:
			res = append(res, a[i])
			i++
		case a[i].v > b[j].v:
			res = append(res, b[j])
			j++
		default:
			res = append(res, factor{v: a[i].v, exp: a[i].exp + b[j].exp})
			i++
			j++
		}
	}
	res = append(res, a[i:]...)
	res = append(res, b[j:]...)
	return res
}

// intern canonicalizes raw terms (merging like monomials, reducing
// coefficients mod 2^w, dropping zero terms, sorting) and returns the
// unique *Poly for the resulting canonical form.
func (m *polyManager) intern(raw []polyTerm) *Poly {
	type group struct {
		mono  []factor
		coeff *big.Int
	}
	groups := make(map[string]*group, len(raw))
	order := make([]string, 0, len(raw))
	for _, t := range raw {
		key := monoKey(t.mono)
		g, ok := groups[key]
		if !ok {
			g = &group{mono: t.mono, coeff: new(big.Int)}
			groups[key] = g
			order = append(order, key)
		}
		g.coeff.Add(g.coeff, t.coeff)
	}
	terms := make([]polyTerm, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.coeff.Mod(g.coeff, m.mod)
		if g.coeff.Sign() == 0 {
			continue
		}
		terms = append(terms, polyTerm{coeff: g.coeff, mono: g.mono})
	}
	sort.Slice(terms, func(i, j int) bool { return compareMono(terms[i].mono, terms[j].mono) < 0 })

	var b strings.Builder
	for _, t := range terms {
		b.WriteString(t.coeff.String())
		b.WriteByte(':')
		b.WriteString(monoKey(t.mono))
		b.WriteByte('|')
	}
	key := b.String()
	if existing, ok := m.table[key]; ok {
		return existing
	}
	p := &Poly{w: m.w, mgr: m, terms: terms, key: key}
	m.table[key] = p
	return p
}

func checkSameManager(p, q *Poly) {
	if p.mgr != q.mgr {
		contractViolation("polysat: mixing polynomials of different widths (%d vs %d)", p.w, q.w)
	}
}

// constTerms builds the raw term list for a constant k reduced mod 2^w.
func (m *polyManager) constTerms(k *big.Int) []polyTerm {
	k2 := new(big.Int).Mod(k, m.mod)
	if k2.Sign() == 0 {
		return nil
	}
	return []polyTerm{{coeff: k2, mono: nil}}
}

// ConstPoly returns the constant polynomial k (mod 2^w) in the ring of
// width w.
func (s *Solver) ConstPoly(w uint32, k *big.Int) *Poly {
	m := s.manager(w)
	return m.intern(m.constTerms(k))
}

// constPolyUint is a convenience for small literal constants; only the
// tests use it.
func (s *Solver) constPolyUint(w uint32, k uint64) *Poly {
	return s.ConstPoly(w, new(big.Int).SetUint64(k))
}

// varPoly returns the polynomial x_v, the single term of weight 1 in the
// monomial consisting of v alone.
func (m *polyManager) varPoly(v Var) *Poly {
	return m.intern([]polyTerm{{coeff: big.NewInt(1), mono: []factor{{v: v, exp: 1}}}})
}

// Add returns p + q (mod 2^w). p and q must come from the same manager
// (same width, same solver).
func Add(p, q *Poly) *Poly {
	checkSameManager(p, q)
	terms := make([]polyTerm, 0, len(p.terms)+len(q.terms))
	terms = append(terms, p.terms...)
	terms = append(terms, q.terms...)
	return p.mgr.intern(terms)
}

// Neg returns -p (mod 2^w).
func Neg(p *Poly) *Poly {
	terms := make([]polyTerm, len(p.terms))
	for i, t := range p.terms {
		terms[i] = polyTerm{coeff: new(big.Int).Sub(p.mgr.mod, t.coeff), mono: t.mono}
	}
	return p.mgr.intern(terms)
}

// Sub returns p - q (mod 2^w).
func Sub(p, q *Poly) *Poly {
	checkSameManager(p, q)
	return Add(p, Neg(q))
}

// Mul returns p * q (mod 2^w).
func Mul(p, q *Poly) *Poly {
	checkSameManager(p, q)
	terms := make([]polyTerm, 0, len(p.terms)*len(q.terms))
	for _, tp := range p.terms {
		for _, tq := range q.terms {
			terms = append(terms, polyTerm{
				coeff: new(big.Int).Mul(tp.coeff, tq.coeff),
				mono:  mulMono(tp.mono, tq.mono),
			})
		}
	}
	return p.mgr.intern(terms)
}

// FreeVars returns the stable, ascending-order list of variables appearing
// in p.
func FreeVars(p *Poly) []Var {
	seen := make(map[Var]bool)
	var vars []Var
	for _, t := range p.terms {
		for _, f := range t.mono {
			if !seen[f.v] {
				seen[f.v] = true
				vars = append(vars, f.v)
			}
		}
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	return vars
}

// Substitute returns p with v replaced by the constant k (mod 2^w).
func Substitute(p *Poly, v Var, k *big.Int) *Poly {
	terms := make([]polyTerm, 0, len(p.terms))
	for _, t := range p.terms {
		coeff := new(big.Int).Set(t.coeff)
		var mono []factor
		for _, f := range t.mono {
			if f.v == v {
				kv := new(big.Int).Exp(k, big.NewInt(int64(f.exp)), p.mgr.mod)
				coeff.Mul(coeff, kv)
				continue
			}
			mono = append(mono, f)
		}
		terms = append(terms, polyTerm{coeff: coeff, mono: mono})
	}
	return p.mgr.intern(terms)
}

// SubstituteAt returns p with every occurrence of v replaced by the
// polynomial repl (same manager as p), generalizing Substitute (which only
// replaces v with a constant) to an arbitrary replacement. Used by
// isolation-based conflict resolution to eliminate a propagated variable via
// its defining linear relation, rather than its current numeric value.
func SubstituteAt(p *Poly, v Var, repl *Poly) *Poly {
	checkSameManager(p, repl)
	result := p.mgr.intern(nil)
	for _, t := range p.terms {
		exp := uint32(0)
		var rest []factor
		for _, f := range t.mono {
			if f.v == v {
				exp = f.exp
			} else {
				rest = append(rest, f)
			}
		}
		term := p.mgr.intern([]polyTerm{{coeff: new(big.Int).Set(t.coeff), mono: rest}})
		for i := uint32(0); i < exp; i++ {
			term = Mul(term, repl)
		}
		result = Add(result, term)
	}
	return result
}

// IsZero reports whether p is the zero polynomial.
func IsZero(p *Poly) bool { return len(p.terms) == 0 }

// IsConst reports whether p has no free variables.
func IsConst(p *Poly) bool {
	return len(p.terms) == 0 || (len(p.terms) == 1 && len(p.terms[0].mono) == 0)
}

// ConstValue returns the constant value of p and true, if p is constant.
func ConstValue(p *Poly) (*big.Int, bool) {
	if len(p.terms) == 0 {
		return big.NewInt(0), true
	}
	if len(p.terms) == 1 && len(p.terms[0].mono) == 0 {
		return new(big.Int).Set(p.terms[0].coeff), true
	}
	return nil, false
}

// Isolate rewrites p as c*v + r where r is independent of v, returning
// (c, r, true). If v appears in p with degree >= 2 in any monomial, p is
// not linear in v and Isolate returns (nil, nil, false). A v that does not
// appear in p at all yields c = the zero polynomial, r = p, true — v is
// (trivially) linear in p with coefficient zero.
func Isolate(p *Poly, v Var) (c, r *Poly, ok bool) {
	var cTerms, rTerms []polyTerm
	for _, t := range p.terms {
		exp := uint32(0)
		var rest []factor
		for _, f := range t.mono {
			if f.v == v {
				exp = f.exp
			} else {
				rest = append(rest, f)
			}
		}
		switch {
		case exp == 0:
			rTerms = append(rTerms, t)
		case exp == 1:
			cTerms = append(cTerms, polyTerm{coeff: t.coeff, mono: rest})
		default:
			return nil, nil, false
		}
	}
	return p.mgr.intern(cTerms), p.mgr.intern(rTerms), true
}

// String renders p for diagnostics only; it is never parsed back.
func (p *Poly) String() string {
	if len(p.terms) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, t := range p.terms {
		if i > 0 {
			b.WriteString(" + ")
		}
		if len(t.mono) == 0 {
			b.WriteString(t.coeff.String())
			continue
		}
		if t.coeff.Cmp(big.NewInt(1)) != 0 {
			b.WriteString(t.coeff.String())
			b.WriteByte('*')
		}
		for j, f := range t.mono {
			if j > 0 {
				b.WriteByte('*')
			}
			fmt.Fprintf(&b, "x%d", f.v)
			if f.exp != 1 {
				fmt.Fprintf(&b, "^%d", f.exp)
			}
		}
	}
	return b.String()
}

// toSigned interprets val (already in [0, 2^w)) as a two's-complement
// signed integer.
func toSigned(val *big.Int, w uint32) *big.Int {
	half := new(big.Int).Lsh(big.NewInt(1), uint(w-1))
	if val.Cmp(half) >= 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(w))
		return new(big.Int).Sub(val, mod)
	}
	return new(big.Int).Set(val)
}
