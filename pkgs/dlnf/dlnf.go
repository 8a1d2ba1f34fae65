// Package dlnf rewrites an arbitrary formula AST into Disjunctive Literal
// Normal Form (DLNF): a disjunction of conjunctions whose atoms are
// propositions, negated propositions, EP(p), or ¬EP(p) — spec.md §3, §4.2.
package dlnf

import (
	"fmt"

	"github.com/aledsdavies/pbtlwatch/pkgs/ast"
)

// LiteralKind classifies a DLNF atom.
type LiteralKind int

const (
	// M is a direct positive proposition: must hold at the frontier.
	M LiteralKind = iota
	// NotM is a direct negative proposition.
	NotM
	// P is a positive past literal: EP(p).
	P
	// N is a negated past literal: ¬EP(p).
	N
)

func (k LiteralKind) String() string {
	switch k {
	case M:
		return "M"
	case NotM:
		return "NotM"
	case P:
		return "P"
	case N:
		return "N"
	default:
		return fmt.Sprintf("LiteralKind(%d)", int(k))
	}
}

// Literal is one atom of a DLNF disjunct.
type Literal struct {
	Kind LiteralKind
	Prop string
}

func (l Literal) String() string {
	switch l.Kind {
	case M:
		return l.Prop
	case NotM:
		return "!" + l.Prop
	case P:
		return "EP(" + l.Prop + ")"
	case N:
		return "!EP(" + l.Prop + ")"
	default:
		return "?"
	}
}

// Disjunct is a conjunction of literals.
type Disjunct []Literal

// Formula is a disjunction of disjuncts — the normalized form.
type Formula []Disjunct

// UnsupportedFormula reports a formula outside the DLNF-reducible subset:
// an EP whose body, after all rewrites, is neither a proposition nor a
// conjunction of EP(p)/!EP(p) literals (for example EP(a & b) or EP(!a)),
// or a distribution step that would exceed the transformer's node-count
// guard (spec.md §4.2).
type UnsupportedFormula struct {
	Offending ast.Node
}

func (e *UnsupportedFormula) Error() string {
	return fmt.Sprintf("formula not reducible to DLNF: offending subterm %s", e.Offending.String())
}

// DefaultMaxNodes bounds the size of any intermediate AST produced while
// distributing conjunctions over disjunctions, guarding against the
// exponential blow-up spec.md §9 calls out, rather than trying to bound it
// algorithmically.
const DefaultMaxNodes = 100_000

// Transform rewrites n into DLNF. maxNodes <= 0 uses DefaultMaxNodes.
func Transform(n ast.Node, maxNodes int) (Formula, error) {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	t := &transformer{maxNodes: maxNodes}

	normalized, err := t.run(n)
	if err != nil {
		return nil, err
	}
	// A formula that folds all the way to a bare constant has no
	// proposition atoms left to express as a Disjunct; represent TRUE as
	// the single vacuously-satisfied (empty) disjunct and FALSE as the
	// empty disjunction.
	switch normalized.(type) {
	case ast.True:
		return Formula{Disjunct{}}, nil
	case ast.False:
		return Formula{}, nil
	}
	return dnfToLiterals(normalized)
}

// foldConstants eagerly simplifies TRUE/FALSE short-circuits
// (And(FALSE,x)=FALSE, Or(TRUE,x)=TRUE, etc.) so that boolean constants
// never have to be represented as DLNF literals.
func foldConstants(n ast.Node) ast.Node {
	switch v := n.(type) {
	case ast.And:
		l, r := foldConstants(v.L), foldConstants(v.R)
		if isFalse(l) || isFalse(r) {
			return ast.False{}
		}
		if isTrue(l) {
			return r
		}
		if isTrue(r) {
			return l
		}
		return ast.And{L: l, R: r}
	case ast.Or:
		l, r := foldConstants(v.L), foldConstants(v.R)
		if isTrue(l) || isTrue(r) {
			return ast.True{}
		}
		if isFalse(l) {
			return r
		}
		if isFalse(r) {
			return l
		}
		return ast.Or{L: l, R: r}
	case ast.Not:
		x := foldConstants(v.X)
		if isTrue(x) {
			return ast.False{}
		}
		if isFalse(x) {
			return ast.True{}
		}
		return ast.Not{X: x}
	case ast.EP:
		x := foldConstants(v.X)
		if isTrue(x) {
			return ast.True{}
		}
		if isFalse(x) {
			return ast.False{}
		}
		return ast.EP{X: x}
	default:
		return n
	}
}

func isTrue(n ast.Node) bool  { _, ok := n.(ast.True); return ok }
func isFalse(n ast.Node) bool { _, ok := n.(ast.False); return ok }

type transformer struct {
	maxNodes int
}

// run applies the three rewrites to fixed point: negation normalization,
// EP distribution, and distribution of '&' over '|' to top-level DNF.
func (t *transformer) run(n ast.Node) (ast.Node, error) {
	prev := foldConstants(n)
	for i := 0; i < 64; i++ {
		pushed, err := t.pushNegations(prev)
		if err != nil {
			return nil, err
		}
		pushed = foldConstants(pushed)

		distributedEP, err := t.distributeEP(pushed)
		if err != nil {
			return nil, err
		}
		distributedEP = foldConstants(distributedEP)

		dnf, err := t.toDNF(distributedEP)
		if err != nil {
			return nil, err
		}
		dnf = foldConstants(dnf)

		if ast.Equal(dnf, prev) {
			return dnf, nil
		}
		prev = dnf
	}
	return prev, nil
}

// pushNegations implements rewrite 1: push '!' inward via De Morgan,
// collapse double negation, and resolve '!EP(...)'.
//
//   - !!x           -> x
//   - !(a & b)      -> !a | !b
//   - !(a | b)      -> !a & !b
//   - !TRUE/!FALSE  -> FALSE/TRUE
//   - !EP(p)        -> atomic N-literal if p is itself a literal
//   - !EP(a | b)    -> !EP(a) & !EP(b)   (De Morgan across EP's own duality)
//   - !EP(a & b)    -> distributed after EP-distribution turns the body
//     into a disjunction first (handled by distributeEP below; here we
//     recurse into the body and re-push once it has been flattened).
func (t *transformer) pushNegations(n ast.Node) (ast.Node, error) {
	switch v := n.(type) {
	case ast.True, ast.False, ast.Prop:
		return v, nil
	case ast.Not:
		return t.pushNotInto(v.X)
	case ast.And:
		l, err := t.pushNegations(v.L)
		if err != nil {
			return nil, err
		}
		r, err := t.pushNegations(v.R)
		if err != nil {
			return nil, err
		}
		return ast.And{L: l, R: r}, nil
	case ast.Or:
		l, err := t.pushNegations(v.L)
		if err != nil {
			return nil, err
		}
		r, err := t.pushNegations(v.R)
		if err != nil {
			return nil, err
		}
		return ast.Or{L: l, R: r}, nil
	case ast.EP:
		body, err := t.pushNegations(v.X)
		if err != nil {
			return nil, err
		}
		return ast.EP{X: body}, nil
	default:
		return nil, &UnsupportedFormula{Offending: n}
	}
}

// pushNotInto pushes a negation into x, the operand of a Not node.
func (t *transformer) pushNotInto(x ast.Node) (ast.Node, error) {
	switch v := x.(type) {
	case ast.True:
		return ast.False{}, nil
	case ast.False:
		return ast.True{}, nil
	case ast.Prop:
		return ast.Not{X: v}, nil
	case ast.Not:
		// Double negation.
		return t.pushNegations(v.X)
	case ast.And:
		// De Morgan: !(a & b) == !a | !b.
		return t.pushNegations(ast.Or{L: ast.Not{X: v.L}, R: ast.Not{X: v.R}})
	case ast.Or:
		// De Morgan: !(a | b) == !a & !b.
		return t.pushNegations(ast.And{L: ast.Not{X: v.L}, R: ast.Not{X: v.R}})
	case ast.EP:
		body, err := t.pushNegations(v.X)
		if err != nil {
			return nil, err
		}
		switch b := body.(type) {
		case ast.Prop, ast.Not:
			// !EP(literal) is itself atomic — leave wrapped; the
			// literal extraction pass (dnfToLiterals) recognizes
			// Not{EP{Prop}} as an N-literal and rejects
			// Not{EP{Not{...}}} as UnsupportedFormula.
			return ast.Not{X: ast.EP{X: b}}, nil
		case ast.Or:
			// !EP(a | b) == !EP(a) & !EP(b), after first flattening
			// the inner disjunction (rule 3 referenced from rule 1).
			l, err := t.pushNotInto(ast.EP{X: b.L})
			if err != nil {
				return nil, err
			}
			r, err := t.pushNotInto(ast.EP{X: b.R})
			if err != nil {
				return nil, err
			}
			return ast.And{L: l, R: r}, nil
		case ast.True, ast.False:
			return t.pushNotInto(b)
		default:
			// A conjunction body: distribute EP across any nested
			// disjunctions before negating; distributeEP handles the
			// conjunction-of-literals case directly.
			distributed, err := t.distributeEP(ast.EP{X: b})
			if err != nil {
				return nil, err
			}
			if ep, ok := distributed.(ast.EP); ok && ast.Equal(ep.X, b) {
				return nil, &UnsupportedFormula{Offending: x}
			}
			return t.pushNotInto(distributed)
		}
	default:
		return nil, &UnsupportedFormula{Offending: x}
	}
}

// distributeEP implements rewrite 2: EP(a | b) == EP(a) | EP(b), flattening
// disjunctions out of EP bodies; conjunctions are recursed into first (so
// any disjunction nested inside one of their conjuncts is flattened too)
// and then lifted out of the EP using the same identity.
func (t *transformer) distributeEP(n ast.Node) (ast.Node, error) {
	switch v := n.(type) {
	case ast.True, ast.False, ast.Prop:
		return v, nil
	case ast.Not:
		x, err := t.distributeEP(v.X)
		if err != nil {
			return nil, err
		}
		return ast.Not{X: x}, nil
	case ast.And:
		l, err := t.distributeEP(v.L)
		if err != nil {
			return nil, err
		}
		r, err := t.distributeEP(v.R)
		if err != nil {
			return nil, err
		}
		return ast.And{L: l, R: r}, nil
	case ast.Or:
		l, err := t.distributeEP(v.L)
		if err != nil {
			return nil, err
		}
		r, err := t.distributeEP(v.R)
		if err != nil {
			return nil, err
		}
		return ast.Or{L: l, R: r}, nil
	case ast.EP:
		body, err := t.distributeEP(v.X)
		if err != nil {
			return nil, err
		}
		return t.liftEP(body)
	default:
		return nil, &UnsupportedFormula{Offending: n}
	}
}

// liftEP distributes a single EP wrapper over its (already recursively
// distributed) body, producing EP(literal), EP(a)|EP(b), or — when the body
// is a conjunction whose conjuncts are all EP(p) or !EP(p) (spec.md
// §4.2 rule 2) — the bare conjunction itself. Any other conjunction body
// is rejected as UnsupportedFormula.
//
// EP(p1 & ... & pn) where every pi is EP(p) or !EP(p) is equivalent to
// the conjunction alone: the current
// frontier is always a valid witness for its own past, so "there exists an
// earlier cut at which this conjunction of literals holds" adds nothing
// once the conjunction is evaluated directly against the current frontier.
// The outer EP is therefore dropped rather than kept as a fifth, wider
// literal shape that spec.md §3 does not define.
func (t *transformer) liftEP(body ast.Node) (ast.Node, error) {
	switch b := body.(type) {
	case ast.Prop, ast.Not, ast.True, ast.False:
		return ast.EP{X: b}, nil
	case ast.Or:
		l, err := t.liftEP(b.L)
		if err != nil {
			return nil, err
		}
		r, err := t.liftEP(b.R)
		if err != nil {
			return nil, err
		}
		return ast.Or{L: l, R: r}, nil
	case ast.And:
		if isLiteralConjunction(b) {
			return b, nil
		}
		return nil, &UnsupportedFormula{Offending: ast.EP{X: b}}
	default:
		return nil, &UnsupportedFormula{Offending: body}
	}
}

// isLiteralConjunction reports whether n is a (possibly nested) conjunction
// whose every leaf is already a P- or N-literal (EP(p) or !EP(p)) — the
// only shapes an "exists in the past" wrapper is redundant over. A bare
// M-literal (p or !p) does not qualify: it describes what holds *at* the
// current frontier, not in its causal past, so EP(p & q) is not the same
// formula as p & q and must not be collapsed by dropping the outer EP.
func isLiteralConjunction(n ast.Node) bool {
	switch v := n.(type) {
	case ast.And:
		return isLiteralConjunction(v.L) && isLiteralConjunction(v.R)
	case ast.Not:
		if ep, ok := v.X.(ast.EP); ok {
			_, ok := ep.X.(ast.Prop)
			return ok
		}
		return false
	case ast.EP:
		_, ok := v.X.(ast.Prop)
		return ok
	default:
		return false
	}
}

// toDNF implements rewrite 3: distribute '&' over '|' until the top level
// is a disjunction of conjunctions. EP-wrapped subterms are opaque atoms
// to this pass — their internal structure was already normalized by
// distributeEP.
func (t *transformer) toDNF(n ast.Node) (ast.Node, error) {
	switch v := n.(type) {
	case ast.True, ast.False, ast.Prop, ast.EP:
		return v, nil
	case ast.Not:
		if isLiteralAtom(v.X) {
			return v, nil
		}
		return nil, &UnsupportedFormula{Offending: v}
	case ast.Or:
		l, err := t.toDNF(v.L)
		if err != nil {
			return nil, err
		}
		r, err := t.toDNF(v.R)
		if err != nil {
			return nil, err
		}
		return ast.Or{L: l, R: r}, nil
	case ast.And:
		l, err := t.toDNF(v.L)
		if err != nil {
			return nil, err
		}
		r, err := t.toDNF(v.R)
		if err != nil {
			return nil, err
		}
		return t.distributeAnd(l, r)
	default:
		return nil, &UnsupportedFormula{Offending: n}
	}
}

// distributeAnd applies (l & r) distribution when either side is itself a
// disjunction, and enforces the node-count guard from spec.md §9.
func (t *transformer) distributeAnd(l, r ast.Node) (ast.Node, error) {
	if orL, ok := l.(ast.Or); ok {
		left, err := t.distributeAnd(orL.L, r)
		if err != nil {
			return nil, err
		}
		right, err := t.distributeAnd(orL.R, r)
		if err != nil {
			return nil, err
		}
		return t.checkedOr(left, right)
	}
	if orR, ok := r.(ast.Or); ok {
		left, err := t.distributeAnd(l, orR.L)
		if err != nil {
			return nil, err
		}
		right, err := t.distributeAnd(l, orR.R)
		if err != nil {
			return nil, err
		}
		return t.checkedOr(left, right)
	}
	return ast.And{L: l, R: r}, nil
}

func (t *transformer) checkedOr(l, r ast.Node) (ast.Node, error) {
	if countNodes(l)+countNodes(r) > t.maxNodes {
		return nil, &UnsupportedFormula{Offending: ast.Or{L: l, R: r}}
	}
	return ast.Or{L: l, R: r}, nil
}

func countNodes(n ast.Node) int {
	switch v := n.(type) {
	case ast.And:
		return 1 + countNodes(v.L) + countNodes(v.R)
	case ast.Or:
		return 1 + countNodes(v.L) + countNodes(v.R)
	case ast.Not:
		return 1 + countNodes(v.X)
	case ast.EP:
		return 1 + countNodes(v.X)
	default:
		return 1
	}
}

func isLiteralAtom(n ast.Node) bool {
	switch n.(type) {
	case ast.Prop, ast.True, ast.False, ast.EP:
		return true
	default:
		return false
	}
}

// dnfToLiterals walks a fully-normalized (negation-pushed, EP-distributed,
// DNF-flattened) AST and extracts the Formula's Disjunct/Literal shape,
// rejecting any remaining non-literal structure as UnsupportedFormula.
func dnfToLiterals(n ast.Node) (Formula, error) {
	disjuncts, err := splitDisjuncts(n)
	if err != nil {
		return nil, err
	}
	out := make(Formula, 0, len(disjuncts))
	for _, d := range disjuncts {
		lits, err := splitConjuncts(d)
		if err != nil {
			return nil, err
		}
		out = append(out, lits)
	}
	return out, nil
}

func splitDisjuncts(n ast.Node) ([]ast.Node, error) {
	if or, ok := n.(ast.Or); ok {
		l, err := splitDisjuncts(or.L)
		if err != nil {
			return nil, err
		}
		r, err := splitDisjuncts(or.R)
		if err != nil {
			return nil, err
		}
		return append(l, r...), nil
	}
	return []ast.Node{n}, nil
}

func splitConjuncts(n ast.Node) (Disjunct, error) {
	if and, ok := n.(ast.And); ok {
		l, err := splitConjuncts(and.L)
		if err != nil {
			return nil, err
		}
		r, err := splitConjuncts(and.R)
		if err != nil {
			return nil, err
		}
		return append(l, r...), nil
	}
	lit, err := toLiteral(n)
	if err != nil {
		return nil, err
	}
	return Disjunct{lit}, nil
}

func toLiteral(n ast.Node) (Literal, error) {
	switch v := n.(type) {
	case ast.Prop:
		return Literal{Kind: M, Prop: v.Name}, nil
	case ast.Not:
		if p, ok := v.X.(ast.Prop); ok {
			return Literal{Kind: NotM, Prop: p.Name}, nil
		}
		if ep, ok := v.X.(ast.EP); ok {
			if p, ok := ep.X.(ast.Prop); ok {
				return Literal{Kind: N, Prop: p.Name}, nil
			}
		}
		return Literal{}, &UnsupportedFormula{Offending: n}
	case ast.EP:
		if p, ok := v.X.(ast.Prop); ok {
			return Literal{Kind: P, Prop: p.Name}, nil
		}
		return Literal{}, &UnsupportedFormula{Offending: n}
	default:
		return Literal{}, &UnsupportedFormula{Offending: n}
	}
}
