package vclock

import "fmt"

// EventID uniquely identifies an event within a trace.
type EventID string

// IotaID is the sentinel event identifier every frontier starts at, before
// any real event has been absorbed.
const IotaID EventID = "iota"

// IotaProp is the proposition that holds at the sentinel iota event.
const IotaProp = "iota"

// Event is an immutable record of a single occurrence in the trace: the
// processes that jointly participated, the vector clock in effect
// immediately after the event, and the propositions that hold as of it.
type Event struct {
	EID       EventID
	Processes []string
	VC        Clock
	Props     []string
}

// HasProcess reports whether p participated in this event.
func (e Event) HasProcess(p string) bool {
	for _, q := range e.Processes {
		if q == p {
			return true
		}
	}
	return false
}

// HasProp reports whether prop holds immediately after this event.
func (e Event) HasProp(prop string) bool {
	for _, p := range e.Props {
		if p == prop {
			return true
		}
	}
	return false
}

func (e Event) String() string {
	return fmt.Sprintf("%s@%v vc=%s props=%v", e.EID, e.Processes, e.VC, e.Props)
}

// IotaEvent builds the sentinel initial event for the given declared
// process set: zero clock, single iota proposition, every process as a
// "participant" so every process's frontier entry starts here.
func IotaEvent(procs []string) Event {
	return Event{
		EID:       IotaID,
		Processes: procs,
		VC:        New(procs),
		Props:     []string{IotaProp},
	}
}

// Arena is an append-only store of events, referenced by index rather than
// by pointer. Frontiers hold Arena indices: this keeps a frontier cheap to
// clone (a map of small ints) and avoids any back-reference cycles between
// events and the frontiers that observe them.
type Arena struct {
	events []Event
	byID   map[EventID]int
}

// NewArena creates an empty event arena.
func NewArena() *Arena {
	return &Arena{byID: make(map[EventID]int)}
}

// Put appends e to the arena and returns its index. Put panics if e.EID
// has already been recorded — the caller (the trace reader) is responsible
// for rejecting duplicate event identifiers before reaching the arena.
func (a *Arena) Put(e Event) int {
	if _, exists := a.byID[e.EID]; exists {
		panic(fmt.Sprintf("vclock: duplicate event id %q", e.EID))
	}
	idx := len(a.events)
	a.events = append(a.events, e)
	a.byID[e.EID] = idx
	return idx
}

// Get returns the event at idx.
func (a *Arena) Get(idx int) Event {
	return a.events[idx]
}

// IndexOf returns the arena index for eid and whether it was found.
func (a *Arena) IndexOf(eid EventID) (int, bool) {
	idx, ok := a.byID[eid]
	return idx, ok
}

// Len returns the number of events recorded so far.
func (a *Arena) Len() int {
	return len(a.events)
}
