// Package reportfmt renders monitor output the way spec.md §6 specifies:
// a per-event line (event id, participants, vector clock, frontier-set
// summary, verdict) and a final "FINAL VERDICT: ..." line, written
// straight to an io.Writer with fmt.Fprintf — no logging framework,
// matching the teacher's core/planfmt/formatter/tree.go discipline.
package reportfmt

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/aledsdavies/pbtlwatch/pkgs/evaluator"
	"github.com/aledsdavies/pbtlwatch/pkgs/frontier"
	"github.com/aledsdavies/pbtlwatch/pkgs/monitor"
	"github.com/aledsdavies/pbtlwatch/pkgs/vclock"
)

// EventLine renders one absorbed event's report line to w: eid,
// participants, vector clock, the frontier set summary, and the current
// verdict, per spec.md §6.
func EventLine(w io.Writer, e vclock.Event, step monitor.Step) {
	fmt.Fprintf(w, "%s %s %s frontiers=%s verdict=%s\n",
		e.EID, joinProcs(e.Processes), e.VC.String(), formatFrontiers(step.Frontiers), step.Verdict)
}

// formatFrontiers renders the frontier set as "N[{p:eid,...} ...]": the
// count of retained frontiers followed by each one's per-process latest
// event id, in the store's insertion order.
func formatFrontiers(snapshots []frontier.Snapshot) string {
	parts := make([]string, len(snapshots))
	for i, snap := range snapshots {
		parts[i] = fmt.Sprintf("{%s}", snap.String())
	}
	return fmt.Sprintf("%d[%s]", len(snapshots), strings.Join(parts, " "))
}

// FinalLine renders the terminal "FINAL VERDICT: ..." line spec.md §6
// requires.
func FinalLine(w io.Writer, v evaluator.Verdict) {
	fmt.Fprintf(w, "FINAL VERDICT: %s\n", v)
}

// WarningLine renders a non-fatal diagnostic (a lenient-causality
// downgrade, or a missing system_processes inference) to w.
func WarningLine(w io.Writer, line int, message string) {
	fmt.Fprintf(w, "warning: line %d: %s\n", line, message)
}

func joinProcs(procs []string) string {
	out := ""
	for i, p := range procs {
		if i > 0 {
			out += "|"
		}
		out += p
	}
	return out
}

// DisjunctVerdict is one entry of the per-disjunct verdict history
// captured for the --debug-final dump.
type DisjunctVerdict struct {
	Index    int    `cbor:"index"`
	Verdict  string `cbor:"verdict"`
	Boundary bool   `cbor:"boundary"`
}

// FinalDump is the structured, CBOR-encoded snapshot --debug-final
// writes: the terminal combined verdict and the last-seen verdict of
// every disjunct in the normalized property.
type FinalDump struct {
	Verdict   string            `cbor:"verdict"`
	Disjuncts []DisjunctVerdict `cbor:"disjuncts"`
}

// NewFinalDump builds a FinalDump from a monitor's last Step.
func NewFinalDump(v evaluator.Verdict, results []evaluator.Result) FinalDump {
	d := make([]DisjunctVerdict, len(results))
	for i, r := range results {
		d[i] = DisjunctVerdict{Index: i, Verdict: r.Verdict.String(), Boundary: r.Boundary}
	}
	sort.Slice(d, func(i, j int) bool { return d[i].Index < d[j].Index })
	return FinalDump{Verdict: v.String(), Disjuncts: d}
}

// WriteDebugFinal CBOR-encodes dump and writes it to w as a hex-framed
// block — never to a file, per spec.md §6's "no persisted state across
// runs" — mirroring the teacher's core/planfmt binary plan-artifact
// discipline (core/planfmt/writer.go) adapted from a length-prefixed
// binary container to a single self-describing CBOR map, since this dump
// is a one-shot debug artifact rather than a plan format with its own
// versioned header.
func WriteDebugFinal(w io.Writer, dump FinalDump) error {
	data, err := cbor.Marshal(dump)
	if err != nil {
		return fmt.Errorf("reportfmt: encode debug-final dump: %w", err)
	}
	fmt.Fprintf(w, "--- debug-final (cbor, hex) ---\n%s\n", hex.EncodeToString(data))
	return nil
}
