package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/pbtlwatch/pkgs/ast"
)

func TestParsePrecedence(t *testing.T) {
	node, err := Parse("a & b | c & !d")
	require.NoError(t, err)

	want := ast.Or{
		L: ast.And{L: ast.Prop{Name: "a"}, R: ast.Prop{Name: "b"}},
		R: ast.And{L: ast.Prop{Name: "c"}, R: ast.Not{X: ast.Prop{Name: "d"}}},
	}
	assert.True(t, ast.Equal(want, node), "got %s", node)
}

func TestParseEPAndParens(t *testing.T) {
	node, err := Parse("EP(EP(request) & EP(response))")
	require.NoError(t, err)

	want := ast.EP{X: ast.And{
		L: ast.EP{X: ast.Prop{Name: "request"}},
		R: ast.EP{X: ast.Prop{Name: "response"}},
	}}
	assert.True(t, ast.Equal(want, node), "got %s", node)
}

func TestParseKeywordsCaseInsensitive(t *testing.T) {
	node, err := Parse("true | false")
	require.NoError(t, err)
	assert.True(t, ast.Equal(ast.Or{L: ast.True{}, R: ast.False{}}, node))
}

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"a",
		"!a",
		"a & b",
		"a | b & c",
		"(a | b) & c",
		"EP(a)",
		"!EP(a)",
		"EP(a & b) | !EP(c)",
	}
	for _, src := range cases {
		node, err := Parse(src)
		require.NoError(t, err, src)

		reparsed, err := Parse(node.String())
		require.NoError(t, err, node.String())

		assert.True(t, ast.Equal(node, reparsed), "round-trip mismatch for %q: %s vs %s", src, node, reparsed)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"(a & b":  "expected ')'",
		"a &":     "unexpected end of input",
		"EP()":    "empty EP",
		"a & & b": "double binary operator",
		"a | | b": "double binary operator",
		"EP(a":    "expected ')'",
		"":        "unexpected end of input",
	}
	for src, wantSubstr := range cases {
		_, err := Parse(src)
		require.Error(t, err, src)
		assert.Contains(t, err.Error(), wantSubstr, src)
	}
}

func TestParseUnknownIdentifierIsPlainProposition(t *testing.T) {
	// "TRU" is not a reserved keyword, so it resolves to an ordinary
	// proposition literal rather than a syntax error.
	node, err := Parse("TRU")
	require.NoError(t, err)
	assert.True(t, ast.Equal(ast.Prop{Name: "TRU"}, node))
}
