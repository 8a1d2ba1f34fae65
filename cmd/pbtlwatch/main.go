package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/pbtlwatch/internal/config"
	"github.com/aledsdavies/pbtlwatch/internal/reportfmt"
	"github.com/aledsdavies/pbtlwatch/internal/tracefile"
	"github.com/aledsdavies/pbtlwatch/pkgs/dlnf"
	"github.com/aledsdavies/pbtlwatch/pkgs/monitor"
	"github.com/aledsdavies/pbtlwatch/pkgs/parser"
	"github.com/aledsdavies/pbtlwatch/pkgs/vclock"
)

// Flags
var (
	propertyFlag         string
	traceFlag            string
	verboseFlag          bool
	debugFlag            bool
	validateOnlyFlag     bool
	stopOnVerdictFlag    bool
	debugFinalFlag       bool
	configFlag           string
	lenientCausalityFlag bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pbtlwatch",
	Short: "Verify a past-based temporal property against a recorded trace",
	Long: `pbtlwatch checks a Past-Based Temporal Logic property against a
causally-ordered event trace, absorbing events one at a time and reporting
the combined verdict (TRUE, FALSE, or INCONCLUSIVE) after each.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.Flags().StringVarP(&propertyFlag, "property", "p", "", "the PBTL property to verify (required)")
	rootCmd.Flags().StringVarP(&traceFlag, "trace", "t", "", "path to the CSV trace file (required)")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "print a report line after every absorbed event")
	rootCmd.Flags().BoolVar(&debugFlag, "debug", false, "print the normalized (DLNF) form of the property before running")
	rootCmd.Flags().BoolVar(&validateOnlyFlag, "validate-only", false, "parse and normalize the property and trace, then exit without running the monitor")
	rootCmd.Flags().BoolVar(&stopOnVerdictFlag, "stop-on-verdict", false, "stop absorbing events once the verdict reaches TRUE or FALSE")
	rootCmd.Flags().BoolVar(&debugFinalFlag, "debug-final", false, "emit a CBOR-encoded dump of the terminal disjunct verdicts")
	rootCmd.Flags().StringVar(&configFlag, "config", "", "path to an optional JSON run-configuration file")
	rootCmd.Flags().BoolVar(&lenientCausalityFlag, "lenient-causality", false, "downgrade causality violations to warnings instead of aborting")

	_ = rootCmd.MarkFlagRequired("property")
	_ = rootCmd.MarkFlagRequired("trace")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configFlag)
	if err != nil {
		return err
	}

	verbose := resolveFlag(cmd, "verbose", verboseFlag, cfg.VerboseOr)
	debug := resolveFlag(cmd, "debug", debugFlag, cfg.DebugOr)
	stopOnVerdict := resolveFlag(cmd, "stop-on-verdict", stopOnVerdictFlag, cfg.StopOnVerdictOr)
	lenient := resolveFlag(cmd, "lenient-causality", lenientCausalityFlag, cfg.LenientCausalityOr)
	maxNodes := cfg.MaxFormulaNodesOr()

	node, err := parser.Parse(propertyFlag)
	if err != nil {
		return fmt.Errorf("property: %w", err)
	}

	formula, err := dlnf.Transform(node, maxNodes)
	if err != nil {
		return fmt.Errorf("property: %w", err)
	}

	if debug {
		fmt.Fprintf(os.Stderr, "normalized: %s\n", formatFormula(formula))
	}

	f, err := os.Open(traceFlag)
	if err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	defer f.Close()

	trace, err := tracefile.Read(f, lenient)
	if err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	for _, w := range trace.Warnings {
		reportfmt.WarningLine(os.Stderr, w.Line, w.Message)
	}
	if trace.ProcessesInferred {
		reportfmt.WarningLine(os.Stderr, 0, "system_processes directive absent; process set inferred from trace rows")
	}

	if validateOnlyFlag {
		fmt.Fprintln(os.Stdout, "ok")
		return nil
	}

	arena := vclock.NewArena()
	m := monitor.New(formula, trace.Processes, arena, stopOnVerdict)

	var lastStep monitor.Step
	for _, e := range trace.Events {
		if stopOnVerdict && m.Settled() {
			break
		}
		idx := arena.Put(e)
		lastStep = m.Absorb(idx)
		if verbose {
			reportfmt.EventLine(os.Stdout, e, lastStep)
		}
	}

	reportfmt.FinalLine(os.Stdout, m.Verdict())

	if debugFinalFlag {
		dump := reportfmt.NewFinalDump(m.Verdict(), lastStep.Disjunct)
		if err := reportfmt.WriteDebugFinal(os.Stderr, dump); err != nil {
			return err
		}
	}

	return nil
}

// formatFormula renders a DLNF formula back into formula syntax for
// --debug output: disjuncts joined by " | ", each disjunct's literals
// joined by " & ".
func formatFormula(f dlnf.Formula) string {
	disjuncts := make([]string, len(f))
	for i, d := range f {
		lits := make([]string, len(d))
		for j, lit := range d {
			lits[j] = lit.String()
		}
		disjuncts[i] = strings.Join(lits, " & ")
	}
	return strings.Join(disjuncts, " | ")
}

// resolveFlag applies the documented precedence (internal/config's package
// doc, SPEC_FULL.md's "Configuration" section): an explicitly-set CLI flag
// always wins; otherwise the config file's value applies, if any; otherwise
// flagVal — cobra's bound default when the flag was never set — is used
// as-is. cmd.Flags().Changed distinguishes "user passed --verbose" from
// "verboseFlag is just sitting at its zero value".
func resolveFlag(cmd *cobra.Command, name string, flagVal bool, configOr func(bool) bool) bool {
	if cmd.Flags().Changed(name) {
		return flagVal
	}
	return configOr(flagVal)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return config.Load(f)
}
