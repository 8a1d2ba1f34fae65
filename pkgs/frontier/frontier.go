// Package frontier implements consistent cuts over an absorbed event
// stream (spec.md §3, §4.3): the Frontier type, the Store that derives new
// frontiers as events are absorbed, and the past-reachability queries the
// evaluator needs.
package frontier

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/pbtlwatch/pkgs/vclock"
)

// Frontier is a consistent cut: the most recent event observed on each
// process, plus the cached union of propositions over every event in each
// process's causal past (the "props accumulated so far" the evaluator
// needs for EP/¬EP queries in O(1)).
type Frontier struct {
	procs     []string
	latest    map[string]int             // process -> arena index of its latest event
	pastProps map[string]map[string]bool // process -> props ever seen up to and including latest[process]
}

// initial builds the sentinel F0: every process mapped to the iota event.
func initial(procs []string, arena *vclock.Arena) Frontier {
	iotaIdx, ok := arena.IndexOf(vclock.IotaID)
	if !ok {
		iotaIdx = arena.Put(vclock.IotaEvent(procs))
	}
	latest := make(map[string]int, len(procs))
	pastProps := make(map[string]map[string]bool, len(procs))
	for _, p := range procs {
		latest[p] = iotaIdx
		pastProps[p] = map[string]bool{vclock.IotaProp: true}
	}
	return Frontier{procs: procs, latest: latest, pastProps: pastProps}
}

// LatestEventIndex returns the arena index of the most recent event
// observed on process p within this cut.
func (f Frontier) LatestEventIndex(p string) int {
	return f.latest[p]
}

// Props returns the union of props over the per-process latest events in
// this cut — what spec.md §4.4 calls props(f), the set an M-literal is
// checked against.
func (f Frontier) Props(arena *vclock.Arena) map[string]bool {
	out := make(map[string]bool)
	for _, p := range f.procs {
		for _, prop := range arena.Get(f.latest[p]).Props {
			out[prop] = true
		}
	}
	return out
}

// HoldsInPast reports whether prop appears in the props of at least one
// event in the causal past of f on any process (literal_holds_at, spec.md
// §4.3).
func (f Frontier) HoldsInPast(prop string) bool {
	for _, p := range f.procs {
		if f.pastProps[p][prop] {
			return true
		}
	}
	return false
}

// FalseInPast reports whether no event in the causal past of f (on any
// process) carries prop (literal_false_in_past, spec.md §4.3).
func (f Frontier) FalseInPast(prop string) bool {
	return !f.HoldsInPast(prop)
}

// SnapshotEntry pairs a process with the event most recently observed on
// it within a frontier.
type SnapshotEntry struct {
	Process string
	EventID vclock.EventID
}

// Snapshot is a printable, declared-process-order summary of one retained
// frontier — the "frontier set summary" spec.md §6 requires every report
// line to include.
type Snapshot []SnapshotEntry

func (s Snapshot) String() string {
	parts := make([]string, len(s))
	for i, e := range s {
		parts[i] = fmt.Sprintf("%s:%s", e.Process, e.EventID)
	}
	return strings.Join(parts, ",")
}

// Snapshot builds f's printable summary: each declared process paired
// with the id of the event it last observed in this cut.
func (f Frontier) Snapshot(arena *vclock.Arena) Snapshot {
	out := make(Snapshot, 0, len(f.procs))
	for _, p := range f.procs {
		out = append(out, SnapshotEntry{Process: p, EventID: arena.Get(f.latest[p]).EID})
	}
	return out
}

// fingerprint derives a compact, content-addressed key for f from its
// per-process latest-event arena indices, sorted by process name for a
// deterministic hash input regardless of the store's process insertion
// order. Mirrors the opaque-ID technique in the teacher's secret.Handle
// (core/sdk/secret/handle.go), here used to dedup frontiers by content in
// O(1) instead of a deep map comparison on every absorb (spec.md §4.3:
// "duplicates … are suppressed").
func (f Frontier) fingerprint() [32]byte {
	keys := make([]string, 0, len(f.procs))
	for p := range f.latest {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	h, _ := blake2b.New256(nil)
	for _, p := range keys {
		fmt.Fprintf(h, "%s=%d;", p, f.latest[p])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// dominates reports whether f strictly dominates other: f observes every
// process other does, with an event set that is a strict superset, and
// at least as recent an event on every shared process (spec.md §4.3:
// "retired only if it is strictly dominated ... in both process-coverage
// and event set").
func (f Frontier) dominates(other Frontier, arena *vclock.Arena) bool {
	if len(f.procs) < len(other.procs) {
		return false
	}
	strictlyAhead := false
	for p, otherIdx := range other.latest {
		fIdx, ok := f.latest[p]
		if !ok {
			return false
		}
		if fIdx == otherIdx {
			continue
		}
		fEvt, otherEvt := arena.Get(fIdx), arena.Get(otherIdx)
		if !otherEvt.VC.Precedes(fEvt.VC) && !otherEvt.VC.Equal(fEvt.VC) {
			return false
		}
		strictlyAhead = true
	}
	return strictlyAhead
}
