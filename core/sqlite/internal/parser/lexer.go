package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// sqlLexer splits SQL text into the few token classes the grammars need.
// Order matters: comments must be tried before punctuation.
var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*|/\*(?s:.*?)\*/`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`" + `|\[[^\]]*\]`},
	{Name: "Number", Pattern: `0[xX][0-9a-fA-F]+|[0-9]+(?:\.[0-9]*)?(?:[eE][+-]?[0-9]+)?|\.[0-9]+(?:[eE][+-]?[0-9]+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_$]*`},
	{Name: "Punct", Pattern: `[(),.;*]|[-=<>!|+/%&~]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// options shared by every grammar in the package.
var options = []participle.Option{
	participle.Lexer(sqlLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.Map(unquote, "QuotedIdent", "String"),
	participle.UseLookahead(4),
}

// unquote strips identifier and string quoting: "a""b", `a``b`, [a b] and
// 'a''b'.
func unquote(tok lexer.Token) (lexer.Token, error) {
	v := tok.Value
	if len(v) < 2 {
		return tok, nil
	}
	switch open := v[0]; open {
	case '[':
		tok.Value = v[1 : len(v)-1]
	case '"', '`', '\'':
		q := string(open)
		tok.Value = strings.ReplaceAll(v[1:len(v)-1], q+q, q)
	}
	return tok, nil
}
