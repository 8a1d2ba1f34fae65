// Package evaluator implements the per-disjunct case analysis of spec.md
// §4.4: classifying a DLNF disjunct's literals into M/¬M/P/N kinds and
// deciding TRUE/FALSE/INCONCLUSIVE against the frontier store's current
// set F.
package evaluator

import (
	"github.com/aledsdavies/pbtlwatch/pkgs/dlnf"
	"github.com/aledsdavies/pbtlwatch/pkgs/frontier"
	"github.com/aledsdavies/pbtlwatch/pkgs/vclock"
)

// Verdict is the three-valued result lattice from spec.md §3: FALSE <
// INCONCLUSIVE < TRUE.
type Verdict int

const (
	Inconclusive Verdict = iota
	True
	False
)

func (v Verdict) String() string {
	switch v {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	default:
		return "INCONCLUSIVE"
	}
}

// Or combines two disjunct verdicts under the spec.md §4.4 lattice: TRUE
// dominates; FALSE only when both sides are FALSE.
func Or(a, b Verdict) Verdict {
	if a == True || b == True {
		return True
	}
	if a == False && b == False {
		return False
	}
	return Inconclusive
}

// Result is a single disjunct's evaluation outcome.
type Result struct {
	Verdict Verdict
	// Boundary is set when the disjunct's only obstacle to a permanent
	// FALSE verdict is a retained frontier that does not yet witness one
	// of its N-literals' forbidden propositions — the close call spec.md
	// §9's first open question flags for implementers (see DESIGN.md).
	Boundary bool
}

// classified splits a disjunct into its four literal-kind buckets.
type classified struct {
	m, notM, p, n []string
}

func classify(d dlnf.Disjunct) classified {
	var c classified
	for _, lit := range d {
		switch lit.Kind {
		case dlnf.M:
			c.m = append(c.m, lit.Prop)
		case dlnf.NotM:
			c.notM = append(c.notM, lit.Prop)
		case dlnf.P:
			c.p = append(c.p, lit.Prop)
		case dlnf.N:
			c.n = append(c.n, lit.Prop)
		}
	}
	return c
}

// EvalDisjunct decides d's verdict against the current frontier set F, per
// spec.md §4.4:
//
//  1. TRUE if some f in F satisfies every M/¬M/P/N clause.
//  2. FALSE only when every retained frontier already witnesses, for some
//     N-literal in d, the forbidden proposition in its causal past — props
//     accumulate monotonically, so no future extension can undo that.
//  3. INCONCLUSIVE otherwise.
//
// Search cost is O(|F|*|d|) proposition lookups, as required.
func EvalDisjunct(d dlnf.Disjunct, store *frontier.Store, arena *vclock.Arena) Result {
	c := classify(d)

	frontiers := store.Frontiers()

	for _, f := range frontiers {
		if satisfies(f, c, arena) {
			return Result{Verdict: True}
		}
	}

	if len(c.n) == 0 {
		return Result{Verdict: Inconclusive}
	}

	allWitnessed := true
	for _, f := range frontiers {
		if !anyForbiddenWitnessed(f, c.n) {
			allWitnessed = false
			break
		}
	}
	if allWitnessed {
		return Result{Verdict: False}
	}
	return Result{Verdict: Inconclusive, Boundary: true}
}

// satisfies checks all four clauses of spec.md §4.4 against a single
// frontier f.
func satisfies(f frontier.Frontier, c classified, arena *vclock.Arena) bool {
	props := f.Props(arena)
	for _, p := range c.m {
		if !props[p] {
			return false
		}
	}
	for _, p := range c.notM {
		if props[p] {
			return false
		}
	}
	for _, p := range c.p {
		if !f.HoldsInPast(p) {
			return false
		}
	}
	for _, p := range c.n {
		if !f.FalseInPast(p) {
			return false
		}
	}
	return true
}

// anyForbiddenWitnessed reports whether at least one N-literal's
// proposition already holds in f's causal past — i.e. whether f already
// rules out this disjunct's N-side forever.
func anyForbiddenWitnessed(f frontier.Frontier, forbidden []string) bool {
	for _, p := range forbidden {
		if f.HoldsInPast(p) {
			return true
		}
	}
	return false
}
