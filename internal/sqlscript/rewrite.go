package sqlscript

import "strings"

// ResolveFunc maps a schema-qualified display name to the internal name the
// engine registered. It must return ok=false for unknown pairs; matching is
// the resolver's business so it can be case-insensitive.
type ResolveFunc func(schema, display string) (internal string, ok bool)

// RewriteTables replaces every schema.display table reference with its
// internal registered name, quoting the replacement. The lexer supplies byte
// spans, so quoted names ("Display"), bracketed names ([Display]) and spaced
// dots (schema . name) are all handled, and string literals and comments are
// left alone.
func RewriteTables(sql string, resolve ResolveFunc) string {
	toks := Tokens(sql)
	var out strings.Builder
	last := 0

	for i := 0; i+2 < len(toks); i++ {
		if toks[i].Type != TOKEN_IDENT || toks[i+1].Type != TOKEN_DOT || toks[i+2].Type != TOKEN_IDENT {
			continue
		}
		// A preceding dot means toks[i] is itself a qualified part
		// (e.g. the column in alias.column.field), not a schema.
		if i > 0 && toks[i-1].Type == TOKEN_DOT {
			continue
		}
		internal, ok := resolve(toks[i].Literal, toks[i+2].Literal)
		if !ok || internal == toks[i+2].Literal {
			continue
		}
		name := toks[i+2]
		out.WriteString(sql[last:name.Start])
		out.WriteString(quoteIdent(internal))
		last = name.End
		i += 2
	}

	if last == 0 {
		return sql
	}
	out.WriteString(sql[last:])
	return out.String()
}

// quoteIdent double-quotes an identifier, escaping embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
