// Package monitor drives the top-level verification loop of spec.md §4.5:
// absorb one event, re-evaluate every disjunct of the normalized property
// against the updated frontier store, combine the per-disjunct verdicts by
// disjunction, and optionally stop the moment the combined verdict settles.
package monitor

import (
	"github.com/aledsdavies/pbtlwatch/pkgs/dlnf"
	"github.com/aledsdavies/pbtlwatch/pkgs/evaluator"
	"github.com/aledsdavies/pbtlwatch/pkgs/frontier"
	"github.com/aledsdavies/pbtlwatch/pkgs/vclock"
)

// Step reports the outcome of absorbing a single event: the combined
// verdict after that absorb, whether it changed from the verdict before
// this step, each disjunct's result, and the frontier-set summary.
type Step struct {
	EventID   vclock.EventID
	Verdict   evaluator.Verdict
	Changed   bool
	Disjunct  []evaluator.Result
	Frontiers []frontier.Snapshot
}

// Monitor owns one run's frontier store and disjunct verdict state, and
// advances it one absorbed event at a time. Mirrors the teacher's
// single-mutable-engine-state, one-unit-of-work-at-a-time shape
// (internal/interpreter's RunCommand, runtime/executor's Execute loop).
type Monitor struct {
	arena   *vclock.Arena
	store   *frontier.Store
	formula dlnf.Formula
	stopOn  bool
	verdict evaluator.Verdict
	settled bool

	// perDisjunct holds each disjunct's last-known verdict, absorbing on
	// TRUE or FALSE per spec.md §4.5's state machine
	// ("INCONCLUSIVE → TRUE (monotone), INCONCLUSIVE → FALSE (monotone),
	// absorbing on either conclusive state"). Re-evaluating a disjunct
	// that already settled would otherwise let it drift back to
	// INCONCLUSIVE once the frontier set it witnessed TRUE on is pruned
	// or extended past — props(f) for an M-literal is not itself
	// monotone under extension, only EP(p)/¬EP(p) are.
	perDisjunct []evaluator.Result
}

// New creates a Monitor for the given normalized property over procs,
// backed by arena. If stopOnVerdict is true, Absorb becomes a no-op once
// the combined verdict reaches TRUE or FALSE (spec.md §6's
// --stop-on-verdict flag).
func New(formula dlnf.Formula, procs []string, arena *vclock.Arena, stopOnVerdict bool) *Monitor {
	perDisjunct := make([]evaluator.Result, len(formula))
	for i := range perDisjunct {
		perDisjunct[i] = evaluator.Result{Verdict: evaluator.Inconclusive}
	}
	return &Monitor{
		arena:       arena,
		store:       frontier.NewStore(procs, arena),
		formula:     formula,
		stopOn:      stopOnVerdict,
		verdict:     evaluator.Inconclusive,
		perDisjunct: perDisjunct,
	}
}

// Settled reports whether the monitor has reached a terminal verdict
// (TRUE or FALSE) and, given stopOnVerdict, will no longer absorb events.
func (m *Monitor) Settled() bool {
	return m.settled
}

// Verdict returns the most recently computed combined verdict.
func (m *Monitor) Verdict() evaluator.Verdict {
	return m.verdict
}

// Absorb folds eventIdx into the frontier store and re-evaluates the
// property, per spec.md §4.5's monotonicity guarantee: once a disjunct
// reaches TRUE or FALSE, no further absorb can move it off that verdict,
// so a combined TRUE stays TRUE, and a combined FALSE (every disjunct
// settled FALSE) stays FALSE.
//
// If the monitor already settled under --stop-on-verdict, Absorb is a
// no-op: it returns a Step carrying the event's id and the settled
// verdict with Changed false, and no disjunct results or frontier summary.
func (m *Monitor) Absorb(eventIdx int) Step {
	e := m.arena.Get(eventIdx)
	if m.stopOn && m.settled {
		return Step{EventID: e.EID, Verdict: m.verdict, Changed: false}
	}

	m.store.Absorb(eventIdx)

	combined := evaluator.False
	for i, d := range m.formula {
		prior := m.perDisjunct[i]
		if prior.Verdict != evaluator.Inconclusive {
			// already settled: absorb, per spec.md §4.5's
			// INCONCLUSIVE -> {TRUE,FALSE} monotone state machine.
			combined = evaluator.Or(combined, prior.Verdict)
			continue
		}
		r := evaluator.EvalDisjunct(d, m.store, m.arena)
		m.perDisjunct[i] = r
		combined = evaluator.Or(combined, r.Verdict)
	}

	results := append([]evaluator.Result(nil), m.perDisjunct...)
	changed := combined != m.verdict
	m.verdict = combined
	if combined == evaluator.True || combined == evaluator.False {
		m.settled = true
	}

	return Step{EventID: e.EID, Verdict: combined, Changed: changed, Disjunct: results, Frontiers: m.store.Snapshot()}
}
