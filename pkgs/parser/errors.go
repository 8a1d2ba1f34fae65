package parser

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/aledsdavies/pbtlwatch/pkgs/lexer"
)

// reservedWords is the keyword vocabulary consulted for "did you mean"
// suggestions, matching the teacher's ParseError.Hint convention
// (pkgs/parser/errors.go).
var reservedWords = []string{"EP", "TRUE", "FALSE"}

// SyntaxError reports a malformed formula, with a rendered source-line
// pointer and an optional hint, the same shape as the teacher's
// parser.ParseError (pkgs/parser/errors.go).
type SyntaxError struct {
	Line    int
	Column  int
	Message string
	Context string
	Hint    string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "line %d: %s", e.Line, e.Message)
	if e.Context != "" {
		pointer := strings.Repeat(" ", max(0, e.Column-1)) + "^"
		fmt.Fprintf(&b, "\n%s\n%s", e.Context, pointer)
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, "\nhint: %s", e.Hint)
	}
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// newSyntaxError builds a SyntaxError for tok, attaching a fuzzy-matched
// hint when tok looks like a near-miss of a reserved keyword.
func (p *Parser) newSyntaxError(tok lexer.Token, format string, args ...any) *SyntaxError {
	err := &SyntaxError{
		Line:    tok.Line,
		Column:  tok.Column,
		Message: fmt.Sprintf(format, args...),
	}
	if p.sourceLines != nil && tok.Line > 0 && tok.Line <= len(p.sourceLines) {
		err.Context = p.sourceLines[tok.Line-1]
	}
	if tok.Type == lexer.IDENT && tok.Value != "" {
		if hint := suggestKeyword(tok.Value); hint != "" {
			err.Hint = fmt.Sprintf("did you mean %q?", hint)
		}
	}
	return err
}

// suggestKeyword returns the closest reserved word to name under
// fuzzy.RankMatch, or "" if none is close enough to be a plausible typo.
// Only reserved words that contain name's letters in order (upper-cased)
// are ranked, by Levenshtein distance; a distance > 2, or a name that
// already matches case-insensitively, yields "".
func suggestKeyword(name string) string {
	upper := strings.ToUpper(name)
	for _, w := range reservedWords {
		if upper == w {
			return "" // exact case-insensitive match, not a typo
		}
	}
	best := ""
	bestDist := 3 // anything farther than this isn't a useful suggestion
	for _, w := range reservedWords {
		d := fuzzy.RankMatch(upper, w)
		if d < 0 {
			continue
		}
		if d < bestDist {
			bestDist = d
			best = w
		}
	}
	return best
}
