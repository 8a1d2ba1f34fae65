// Package tracefile reads the CSV trace format spec.md §6 specifies and
// builds the vclock.Event sequence a monitor absorbs: an optional
// "# system_processes:" directive, a fixed header row, and one row per
// event. Errors carry line numbers, in the spirit of the teacher's
// parser.ErrorCollector (pkgs/parser/errors.go), but reading stops at the
// first error rather than collecting several. encoding/csv handles row
// tokenizing.
package tracefile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aledsdavies/pbtlwatch/pkgs/vclock"
)

// TraceFormatError reports a malformed trace: bad header, unknown process,
// non-numeric timestamp, or a missing vector-clock entry (spec.md §7).
type TraceFormatError struct {
	Line    int
	Message string
}

func (e *TraceFormatError) Error() string {
	return fmt.Sprintf("trace line %d: %s", e.Line, e.Message)
}

// CausalityViolation reports a row whose vector clock does not
// monotonically advance for a participating process, or whose
// non-participant entries outrun the "merge on rendezvous" discipline
// (spec.md §3, §7).
type CausalityViolation struct {
	Line    int
	EID     vclock.EventID
	Message string
}

func (e *CausalityViolation) Error() string {
	return fmt.Sprintf("trace line %d: causality violation at event %q: %s", e.Line, e.EID, e.Message)
}

// Warning is a non-fatal diagnostic recorded while reading under
// --lenient-causality, or when the process set had to be inferred.
type Warning struct {
	Line    int
	Message string
}

// Trace is the fully parsed trace file: the ordered event sequence ready
// for absorption, the resolved process set, and any warnings downgraded
// from errors under lenient mode.
type Trace struct {
	Processes         []string
	Events            []vclock.Event
	Warnings          []Warning
	ProcessesInferred bool
}

const header = "eid,processes,vc,props"

// wantHeader is the exact column order spec.md §6 fixes.
var wantHeader = []string{"eid", "processes", "vc", "props"}

// Read parses r as a trace file. If lenientCausality is true,
// CausalityViolation is downgraded to a recorded Warning instead of
// aborting the read (spec.md §9, §8 example 2).
func Read(r io.Reader, lenientCausality bool) (*Trace, error) {
	lines, err := splitLines(r)
	if err != nil {
		return nil, err
	}

	var declaredProcs []string
	dataStart := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			dataStart = i + 1
			continue
		}
		if strings.HasPrefix(trimmed, "# system_processes:") {
			rest := strings.TrimPrefix(trimmed, "# system_processes:")
			declaredProcs = splitNonEmpty(rest, "|")
			dataStart = i + 1
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			dataStart = i + 1
			continue
		}
		break
	}

	body := strings.Join(lines[dataStart:], "\n")
	cr := csv.NewReader(strings.NewReader(body))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("tracefile: %w", err)
	}
	if len(rows) == 0 {
		return nil, &TraceFormatError{Line: dataStart + 1, Message: "missing header row"}
	}

	headerLine := dataStart + 1
	if !equalHeader(rows[0], wantHeader) {
		return nil, &TraceFormatError{Line: headerLine, Message: fmt.Sprintf("expected header %q, got %q", header, strings.Join(rows[0], ","))}
	}

	t := &Trace{Processes: declaredProcs}
	if len(declaredProcs) == 0 {
		t.ProcessesInferred = true
	}

	latest := map[string]vclock.Event{}
	seenEID := map[vclock.EventID]int{}

	for i, row := range rows[1:] {
		lineNo := headerLine + i + 1
		if len(row) != 4 {
			return nil, &TraceFormatError{Line: lineNo, Message: fmt.Sprintf("expected 4 fields, got %d", len(row))}
		}
		eid, procsField, vcField, propsField := row[0], row[1], row[2], row[3]
		if eid == "" {
			return nil, &TraceFormatError{Line: lineNo, Message: "eid must not be empty"}
		}
		if firstLine, dup := seenEID[vclock.EventID(eid)]; dup {
			return nil, &TraceFormatError{Line: lineNo, Message: fmt.Sprintf("eid %q already used on line %d", eid, firstLine)}
		}
		seenEID[vclock.EventID(eid)] = lineNo

		procs := splitNonEmpty(procsField, "|")
		if len(procs) == 0 {
			return nil, &TraceFormatError{Line: lineNo, Message: "processes must not be empty"}
		}

		if t.ProcessesInferred {
			t.Processes = mergeProcesses(t.Processes, procs)
		} else {
			for _, p := range procs {
				if !contains(t.Processes, p) {
					return nil, &TraceFormatError{Line: lineNo, Message: fmt.Sprintf("unknown process %q not in declared system_processes", p)}
				}
			}
		}

		vc, err := parseVC(vcField, t.Processes, lineNo)
		if err != nil {
			return nil, err
		}
		props := splitNonEmpty(propsField, "|")

		ev := vclock.Event{
			EID:       vclock.EventID(eid),
			Processes: procs,
			VC:        vc,
			Props:     props,
		}

		if err := checkCausality(ev, latest, lineNo); err != nil {
			if lenientCausality {
				t.Warnings = append(t.Warnings, Warning{Line: lineNo, Message: err.Error()})
			} else {
				return nil, err
			}
		}
		for _, p := range procs {
			latest[p] = ev
		}

		t.Events = append(t.Events, ev)
	}

	return t, nil
}

func parseVC(field string, procs []string, lineNo int) (vclock.Clock, error) {
	c := vclock.New(procs)
	entries := splitNonEmpty(field, ";")
	seen := map[string]bool{}
	for _, entry := range entries {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return vclock.Clock{}, &TraceFormatError{Line: lineNo, Message: fmt.Sprintf("malformed vc entry %q, want P:N", entry)}
		}
		p, nStr := parts[0], parts[1]
		if !contains(procs, p) {
			return vclock.Clock{}, &TraceFormatError{Line: lineNo, Message: fmt.Sprintf("vc entry references undeclared process %q", p)}
		}
		n, err := strconv.Atoi(nStr)
		if err != nil || n < 0 {
			return vclock.Clock{}, &TraceFormatError{Line: lineNo, Message: fmt.Sprintf("non-numeric or negative timestamp %q for process %q", nStr, p)}
		}
		c = c.WithSet(p, n)
		seen[p] = true
	}
	for _, p := range procs {
		if !seen[p] {
			return vclock.Clock{}, &TraceFormatError{Line: lineNo, Message: fmt.Sprintf("vc missing entry for declared process %q", p)}
		}
	}
	return c, nil
}

// checkCausality enforces spec.md §3's invariant: a participant's clock
// component must strictly advance past its value at that process's
// previous event, and a non-participant's component in this event must
// not outrun its own most recent event (the merge-on-rendezvous bound).
func checkCausality(e vclock.Event, latest map[string]vclock.Event, lineNo int) error {
	for _, p := range e.Processes {
		if prev, ok := latest[p]; ok && e.VC.At(p) <= prev.VC.At(p) {
			return &CausalityViolation{Line: lineNo, EID: e.EID, Message: fmt.Sprintf("process %q clock did not advance (%d <= %d)", p, e.VC.At(p), prev.VC.At(p))}
		}
	}
	participant := make(map[string]bool, len(e.Processes))
	for _, p := range e.Processes {
		participant[p] = true
	}
	for q, prev := range latest {
		if participant[q] {
			continue
		}
		if e.VC.At(q) > prev.VC.At(q) {
			return &CausalityViolation{Line: lineNo, EID: e.EID, Message: fmt.Sprintf("non-participant %q clock outruns its own history (%d > %d)", q, e.VC.At(q), prev.VC.At(q))}
		}
	}
	return nil
}

func splitLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("tracefile: %w", err)
	}
	return strings.Split(string(data), "\n"), nil
}

func splitNonEmpty(s, sep string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mergeProcesses(have, add []string) []string {
	for _, p := range add {
		if !contains(have, p) {
			have = append(have, p)
		}
	}
	return have
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func equalHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}
	return true
}
