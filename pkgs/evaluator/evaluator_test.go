package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/pbtlwatch/pkgs/dlnf"
	"github.com/aledsdavies/pbtlwatch/pkgs/frontier"
	"github.com/aledsdavies/pbtlwatch/pkgs/vclock"
)

func clock(procs []string, vals map[string]int) vclock.Clock {
	c := vclock.New(procs)
	for p, v := range vals {
		c = c.WithSet(p, v)
	}
	return c
}

func TestEvalDisjunctTrueWhenFrontierSatisfiesMLiteral(t *testing.T) {
	procs := []string{"A"}
	arena := vclock.NewArena()
	store := frontier.NewStore(procs, arena)

	e := vclock.Event{EID: "e1", Processes: []string{"A"}, VC: clock(procs, map[string]int{"A": 1}), Props: []string{"x"}}
	idx := arena.Put(e)
	store.Absorb(idx)

	d := dlnf.Disjunct{{Kind: dlnf.M, Prop: "x"}}
	result := EvalDisjunct(d, store, arena)
	assert.Equal(t, True, result.Verdict)
}

func TestEvalDisjunctInconclusiveBeforePropertyObserved(t *testing.T) {
	procs := []string{"A"}
	arena := vclock.NewArena()
	store := frontier.NewStore(procs, arena)

	d := dlnf.Disjunct{{Kind: dlnf.M, Prop: "x"}}
	result := EvalDisjunct(d, store, arena)
	assert.Equal(t, Inconclusive, result.Verdict)
}

func TestEvalDisjunctPLiteralHoldsOnceObservedInPast(t *testing.T) {
	procs := []string{"A", "B"}
	arena := vclock.NewArena()
	store := frontier.NewStore(procs, arena)

	ea := vclock.Event{EID: "ea", Processes: []string{"A"}, VC: clock(procs, map[string]int{"A": 1}), Props: []string{"a"}}
	idxA := arena.Put(ea)
	store.Absorb(idxA)

	eb := vclock.Event{EID: "eb", Processes: []string{"A", "B"}, VC: clock(procs, map[string]int{"A": 2, "B": 1}), Props: []string{"b"}}
	idxB := arena.Put(eb)
	store.Absorb(idxB)

	d := dlnf.Disjunct{{Kind: dlnf.P, Prop: "a"}, {Kind: dlnf.M, Prop: "b"}}
	result := EvalDisjunct(d, store, arena)
	assert.Equal(t, True, result.Verdict)
}

func TestEvalDisjunctFalseWhenForbiddenPropAlreadyWitnessedEverywhere(t *testing.T) {
	procs := []string{"A"}
	arena := vclock.NewArena()
	store := frontier.NewStore(procs, arena)

	e := vclock.Event{EID: "e1", Processes: []string{"A"}, VC: clock(procs, map[string]int{"A": 1}), Props: []string{"bad"}}
	idx := arena.Put(e)
	store.Absorb(idx)

	d := dlnf.Disjunct{{Kind: dlnf.N, Prop: "bad"}}
	result := EvalDisjunct(d, store, arena)
	assert.Equal(t, False, result.Verdict)
	assert.False(t, result.Boundary)
}

func TestEvalDisjunctInconclusiveWithNLiteralBeforeWitness(t *testing.T) {
	procs := []string{"A"}
	arena := vclock.NewArena()
	store := frontier.NewStore(procs, arena)

	d := dlnf.Disjunct{{Kind: dlnf.N, Prop: "bad"}}
	result := EvalDisjunct(d, store, arena)
	assert.Equal(t, Inconclusive, result.Verdict)
}

// Store.Absorb always advances its single retained frontier to a strict
// dominator of its predecessor (every participant moves forward, every
// non-participant holds still), so in practice Frontiers() never holds more
// than one incomparable pair at a time for this Store implementation. The
// Boundary flag exists for the general case EvalDisjunct is written
// against — multiple retained, mutually non-dominating frontiers, only
// some of which have witnessed an N-literal's forbidden proposition. Here
// the lone converged frontier has already witnessed "bad", so the verdict
// is a permanent FALSE and Boundary is not set.
func TestEvalDisjunctNoBoundaryOnConvergedSingletonStore(t *testing.T) {
	procs := []string{"A", "B"}
	arena := vclock.NewArena()
	store := frontier.NewStore(procs, arena)

	ea := vclock.Event{EID: "ea", Processes: []string{"A"}, VC: clock(procs, map[string]int{"A": 1}), Props: []string{"bad"}}
	idxA := arena.Put(ea)
	store.Absorb(idxA)

	require.Len(t, store.Frontiers(), 1)

	d := dlnf.Disjunct{{Kind: dlnf.N, Prop: "bad"}}
	result := EvalDisjunct(d, store, arena)
	assert.Equal(t, False, result.Verdict)
	assert.False(t, result.Boundary)
}

func TestOrLattice(t *testing.T) {
	assert.Equal(t, True, Or(True, False))
	assert.Equal(t, True, Or(False, True))
	assert.Equal(t, False, Or(False, False))
	assert.Equal(t, Inconclusive, Or(False, Inconclusive))
	assert.Equal(t, Inconclusive, Or(Inconclusive, Inconclusive))
	assert.Equal(t, True, Or(Inconclusive, True))
}

func TestNotMLiteralFailsWhenPropHolds(t *testing.T) {
	procs := []string{"A"}
	arena := vclock.NewArena()
	store := frontier.NewStore(procs, arena)

	e := vclock.Event{EID: "e1", Processes: []string{"A"}, VC: clock(procs, map[string]int{"A": 1}), Props: []string{"x"}}
	idx := arena.Put(e)
	store.Absorb(idx)

	d := dlnf.Disjunct{{Kind: dlnf.NotM, Prop: "x"}}
	result := EvalDisjunct(d, store, arena)
	assert.Equal(t, Inconclusive, result.Verdict)
}
