// Package vclock implements the vector-clock and event model that the
// frontier store and monitor build on: a total per-process logical clock,
// the happened-before partial order it induces, and an append-only arena
// of immutable events.
package vclock

import (
	"fmt"
	"sort"
	"strings"
)

// Clock is a total mapping from every declared process identifier to a
// non-negative logical timestamp. The zero value is not valid; use New.
type Clock struct {
	procs  []string
	values map[string]int
}

// New builds a Clock over procs, all components initialized to zero (the
// iota clock).
func New(procs []string) Clock {
	values := make(map[string]int, len(procs))
	for _, p := range procs {
		values[p] = 0
	}
	return Clock{procs: procs, values: values}
}

// WithSet returns a copy of c with component p set to v.
func (c Clock) WithSet(p string, v int) Clock {
	next := make(map[string]int, len(c.values))
	for k, val := range c.values {
		next[k] = val
	}
	next[p] = v
	return Clock{procs: c.procs, values: next}
}

// At returns the logical timestamp for process p, or 0 if p is not
// declared in this clock's process set.
func (c Clock) At(p string) int {
	return c.values[p]
}

// Processes returns the declared process identifiers in insertion order.
func (c Clock) Processes() []string {
	return c.procs
}

// Precedes reports whether c ≺ other: every component of c is no greater
// than the corresponding component of other, with strict inequality on at
// least one process.
func (c Clock) Precedes(other Clock) bool {
	strict := false
	for _, p := range c.procs {
		cv, ov := c.values[p], other.values[p]
		if cv > ov {
			return false
		}
		if cv < ov {
			strict = true
		}
	}
	return strict
}

// Concurrent reports whether neither c ≺ other nor other ≺ c.
func (c Clock) Concurrent(other Clock) bool {
	return !c.Precedes(other) && !other.Precedes(c)
}

// Equal reports component-wise equality.
func (c Clock) Equal(other Clock) bool {
	for _, p := range c.procs {
		if c.values[p] != other.values[p] {
			return false
		}
	}
	return true
}

// Max returns the component-wise maximum of c and other.
func (c Clock) Max(other Clock) Clock {
	next := make(map[string]int, len(c.values))
	for _, p := range c.procs {
		a, b := c.values[p], other.values[p]
		if b > a {
			a = b
		}
		next[p] = a
	}
	return Clock{procs: c.procs, values: next}
}

// String renders the clock deterministically, in declared process order,
// as "P:N;Q:N" — the same shape the trace format uses for a vc field.
func (c Clock) String() string {
	parts := make([]string, 0, len(c.procs))
	for _, p := range c.procs {
		parts = append(parts, fmt.Sprintf("%s:%d", p, c.values[p]))
	}
	return strings.Join(parts, ";")
}

// SortedEntries returns the clock's (process, value) pairs sorted by
// process name, for contexts that need a stable key independent of
// declared insertion order (e.g. fingerprinting).
func (c Clock) SortedEntries() []string {
	keys := make([]string, 0, len(c.procs))
	for p := range c.values {
		keys = append(keys, p)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, p := range keys {
		out = append(out, fmt.Sprintf("%s:%d", p, c.values[p]))
	}
	return out
}
