package sqlscript

import (
	"fmt"
	"strings"

	"fsql/internal/domain"
)

// Classify determines how a statement should be executed. SELECT-like
// statements return rows, DML statements trigger a write-back to the backing
// file, CTAS statements materialize a new file, and everything else runs as
// an opaque utility statement.
func Classify(stmt string) domain.StatementKind {
	toks := Tokens(stmt)
	if len(toks) == 0 {
		return domain.StmtUtility
	}
	first := toks[0]
	if first.Type != TOKEN_IDENT || first.Quoted {
		return domain.StmtUtility
	}
	switch strings.ToUpper(first.Literal) {
	case "SELECT", "WITH", "VALUES", "SHOW", "DESCRIBE", "SUMMARIZE", "PRAGMA", "FROM":
		return domain.StmtSelect
	case "INSERT", "UPDATE", "DELETE":
		return domain.StmtWriteBack
	case "CREATE":
		if _, ok := ParseCTAS(stmt); ok {
			return domain.StmtCTAS
		}
		return domain.StmtUtility
	default:
		return domain.StmtUtility
	}
}

// EnsureLimit caps row-returning statements that do not already carry a
// LIMIT at the top level, by wrapping them in a derived table. Only
// statements that start with SELECT, WITH, VALUES or FROM are wrapped:
// SHOW, DESCRIBE, PRAGMA and SUMMARIZE also return rows but reject a LIMIT
// clause, so they pass through untouched. Returns the possibly modified
// statement and whether a cap was injected. cap <= 0 disables injection.
func EnsureLimit(stmt string, cap int) (string, bool) {
	if cap <= 0 {
		return stmt, false
	}
	toks := Tokens(stmt)
	if len(toks) == 0 {
		return stmt, false
	}
	first := toks[0]
	if first.Type != TOKEN_IDENT || first.Quoted {
		return stmt, false
	}
	switch strings.ToUpper(first.Literal) {
	case "SELECT", "WITH", "VALUES", "FROM":
	default:
		return stmt, false
	}

	depth := 0
	for _, tok := range toks {
		switch tok.Type {
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			depth--
		case TOKEN_IDENT:
			if depth == 0 && !tok.Quoted && strings.EqualFold(tok.Literal, "LIMIT") {
				return stmt, false
			}
		}
	}
	// The newline before the closing paren keeps the wrapper out of any
	// trailing line comment in the original statement.
	return fmt.Sprintf("SELECT * FROM (%s\n) LIMIT %d", strings.TrimRight(stmt, " \t\r\n;"), cap), true
}

// TableRefs extracts the table references a statement reads or writes,
// looking at identifiers that follow FROM, JOIN, INTO, UPDATE and TABLE
// keywords. Unqualified names come back with an empty Schema. Duplicates
// are removed, first occurrence wins.
func TableRefs(stmt string) []domain.TableRef {
	toks := Tokens(stmt)
	var refs []domain.TableRef
	seen := make(map[domain.TableRef]bool)

	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if tok.Type != TOKEN_IDENT || tok.Quoted {
			continue
		}
		switch strings.ToUpper(tok.Literal) {
		case "FROM", "JOIN", "INTO", "UPDATE", "TABLE":
		default:
			continue
		}
		if i+1 >= len(toks) || toks[i+1].Type != TOKEN_IDENT {
			continue
		}
		ref := domain.TableRef{Display: toks[i+1].Literal}
		consumed := 1
		if i+3 < len(toks) && toks[i+2].Type == TOKEN_DOT && toks[i+3].Type == TOKEN_IDENT {
			ref = domain.TableRef{Schema: toks[i+1].Literal, Display: toks[i+3].Literal}
			consumed = 3
		}
		// A following ( means a table function, not a table.
		if i+consumed+1 < len(toks) && toks[i+consumed+1].Type == TOKEN_LPAREN {
			continue
		}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
		i += consumed
	}
	return refs
}

// TargetTable returns the table a DML statement writes to.
func TargetTable(stmt string) (domain.TableRef, bool) {
	toks := Tokens(stmt)
	if len(toks) == 0 || toks[0].Type != TOKEN_IDENT {
		return domain.TableRef{}, false
	}

	// Index of the token that names the table.
	at := -1
	switch strings.ToUpper(toks[0].Literal) {
	case "INSERT":
		// INSERT INTO <table>
		if len(toks) > 2 && strings.EqualFold(toks[1].Literal, "INTO") {
			at = 2
		}
	case "UPDATE":
		at = 1
	case "DELETE":
		// DELETE FROM <table>
		if len(toks) > 2 && strings.EqualFold(toks[1].Literal, "FROM") {
			at = 2
		}
	}
	if at < 0 || at >= len(toks) || toks[at].Type != TOKEN_IDENT {
		return domain.TableRef{}, false
	}
	ref := domain.TableRef{Display: toks[at].Literal}
	if at+2 < len(toks) && toks[at+1].Type == TOKEN_DOT && toks[at+2].Type == TOKEN_IDENT {
		ref = domain.TableRef{Schema: toks[at].Literal, Display: toks[at+2].Literal}
	}
	return ref, true
}

// CTAS describes a CREATE TABLE ... AS SELECT statement.
type CTAS struct {
	Schema    string
	Table     string
	Query     string // the SELECT after AS, verbatim
	OrReplace bool
}

// ParseCTAS recognizes CREATE [OR REPLACE] TABLE schema.table AS <query>.
// Unqualified targets are rejected since the schema names the output folder.
func ParseCTAS(stmt string) (*CTAS, bool) {
	toks := Tokens(stmt)
	i := 0
	next := func() *Token {
		if i >= len(toks) {
			return nil
		}
		t := &toks[i]
		i++
		return t
	}
	expectWord := func(word string) bool {
		t := next()
		return t != nil && t.Type == TOKEN_IDENT && !t.Quoted && strings.EqualFold(t.Literal, word)
	}

	if !expectWord("CREATE") {
		return nil, false
	}
	out := &CTAS{}
	if i < len(toks) && strings.EqualFold(toks[i].Literal, "OR") {
		i++
		if !expectWord("REPLACE") {
			return nil, false
		}
		out.OrReplace = true
	}
	if !expectWord("TABLE") {
		return nil, false
	}

	schema := next()
	if schema == nil || schema.Type != TOKEN_IDENT {
		return nil, false
	}
	if i+1 >= len(toks) || toks[i].Type != TOKEN_DOT || toks[i+1].Type != TOKEN_IDENT {
		return nil, false
	}
	out.Schema = schema.Literal
	out.Table = toks[i+1].Literal
	i += 2

	asTok := next()
	if asTok == nil || asTok.Type != TOKEN_IDENT || !strings.EqualFold(asTok.Literal, "AS") {
		return nil, false
	}
	if asTok.End >= len(stmt) {
		return nil, false
	}
	out.Query = strings.TrimSpace(stmt[asTok.End:])
	if out.Query == "" {
		return nil, false
	}
	return out, true
}
