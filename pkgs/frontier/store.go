package frontier

import (
	"github.com/aledsdavies/pbtlwatch/pkgs/vclock"
)

// Store holds the set F of causally consistent global states reachable so
// far, and derives F' from F by absorbing one event at a time (spec.md
// §4.3).
type Store struct {
	procs     []string
	arena     *vclock.Arena
	frontiers []Frontier
	seen      map[[32]byte]bool
}

// NewStore creates a Store over procs, seeded with the sentinel F0.
func NewStore(procs []string, arena *vclock.Arena) *Store {
	f0 := initial(procs, arena)
	s := &Store{
		procs:     procs,
		arena:     arena,
		frontiers: []Frontier{f0},
		seen:      map[[32]byte]bool{f0.fingerprint(): true},
	}
	return s
}

// Frontiers returns the current set F, in insertion order (the order new
// candidates were discovered) — the tie-break order spec.md §4.4 specifies
// for witness enumeration.
func (s *Store) Frontiers() []Frontier {
	return s.frontiers
}

// Snapshot renders the current set F as printable per-frontier summaries,
// in the same insertion order Frontiers returns — the frontier-set
// summary spec.md §6 requires every report line to carry.
func (s *Store) Snapshot() []Snapshot {
	out := make([]Snapshot, len(s.frontiers))
	for i, f := range s.frontiers {
		out[i] = f.Snapshot(s.arena)
	}
	return out
}

// Absorb derives F' from F by absorbing the event at arena index eventIdx,
// per the rules in spec.md §4.3:
//
//   - for every frontier f, the candidate f' (f with each participant's
//     entry replaced by e) is accepted when every participant's predecessor
//     was ready (f[p].vc[p] <= e.vc[p]-1), no non-participant's clock
//     outruns e (e.vc[q] <= f[q].vc[q]), and f' is mutually consistent;
//   - f itself is always retained too (it is still a valid state the
//     observer could have been in before e arrived);
//   - the resulting set is then dominance-pruned.
func (s *Store) Absorb(eventIdx int) {
	e := s.arena.Get(eventIdx)
	participants := make(map[string]bool, len(e.Processes))
	for _, p := range e.Processes {
		participants[p] = true
	}

	var next []Frontier
	nextSeen := make(map[[32]byte]bool, len(s.frontiers)*2)
	add := func(f Frontier) {
		fp := f.fingerprint()
		if nextSeen[fp] {
			return
		}
		nextSeen[fp] = true
		next = append(next, f)
	}

	for _, f := range s.frontiers {
		if candidate, ok := f.tryExtend(participants, eventIdx, e, s.arena); ok {
			add(candidate)
		}
		add(f)
	}

	pruned := prune(next, s.arena)
	seen := make(map[[32]byte]bool, len(pruned))
	for _, f := range pruned {
		seen[f.fingerprint()] = true
	}
	s.frontiers = pruned
	s.seen = seen
}

// tryExtend builds the candidate frontier from f for event e and reports
// whether it satisfies spec.md §4.3's readiness, non-participant, and
// mutual-consistency conditions.
func (f Frontier) tryExtend(participants map[string]bool, newIdx int, e vclock.Event, arena *vclock.Arena) (Frontier, bool) {
	for p := range participants {
		predIdx, ok := f.latest[p]
		if !ok {
			return Frontier{}, false
		}
		pred := arena.Get(predIdx)
		if pred.VC.At(p) > e.VC.At(p)-1 {
			return Frontier{}, false
		}
	}
	for q, idx := range f.latest {
		if participants[q] {
			continue
		}
		qEvt := arena.Get(idx)
		if e.VC.At(q) > qEvt.VC.At(q) {
			return Frontier{}, false
		}
	}

	candidate := f.extend(participants, newIdx, e)
	if !candidate.consistent(arena) {
		return Frontier{}, false
	}
	return candidate, true
}

// extend returns a copy of f with every participant's entry replaced by
// the new event, and that event's props folded into the participants'
// accumulated past-props caches.
func (f Frontier) extend(participants map[string]bool, newIdx int, e vclock.Event) Frontier {
	latest := make(map[string]int, len(f.latest))
	for p, idx := range f.latest {
		latest[p] = idx
	}
	pastProps := make(map[string]map[string]bool, len(f.pastProps))
	for p, props := range f.pastProps {
		cp := make(map[string]bool, len(props)+1)
		for k := range props {
			cp[k] = true
		}
		pastProps[p] = cp
	}

	for p := range participants {
		latest[p] = newIdx
		for _, prop := range e.Props {
			pastProps[p][prop] = true
		}
	}
	return Frontier{procs: f.procs, latest: latest, pastProps: pastProps}
}

// consistent checks the mutual causal consistency invariant from spec.md
// §3: for any two entries (p, q), e_p.vc[q] <= e_q.vc[q] and vice versa.
func (f Frontier) consistent(arena *vclock.Arena) bool {
	for i, p := range f.procs {
		pe := arena.Get(f.latest[p])
		for _, q := range f.procs[i+1:] {
			qe := arena.Get(f.latest[q])
			if pe.VC.At(q) > qe.VC.At(q) {
				return false
			}
			if qe.VC.At(p) > pe.VC.At(p) {
				return false
			}
		}
	}
	return true
}

// prune retires any frontier strictly dominated by another in fs, per
// spec.md §4.3: "A frontier in F is retired only if it is strictly
// dominated by another retained frontier in both process-coverage and
// event set."
func prune(fs []Frontier, arena *vclock.Arena) []Frontier {
	keep := make([]bool, len(fs))
	for i := range keep {
		keep[i] = true
	}
	for i, g := range fs {
		for j, h := range fs {
			if i == j {
				continue
			}
			if h.dominates(g, arena) {
				keep[i] = false
				break
			}
		}
	}
	out := make([]Frontier, 0, len(fs))
	for i, k := range keep {
		if k {
			out = append(out, fs[i])
		}
	}
	return out
}
