// Package sqlscript tokenizes and transforms SQL scripts before they reach
// DuckDB: splitting batches into statements, classifying each statement,
// extracting and rewriting table references, and injecting row caps.
package sqlscript

// TokenType represents the type of a lexical token.
type TokenType int

// TOKEN_EOF and friends enumerate all token types produced by the lexer.
const (
	TOKEN_EOF     TokenType = iota // end of input
	TOKEN_ILLEGAL                  // unexpected character

	TOKEN_IDENT  // identifier or keyword
	TOKEN_NUMBER // 123, 45.67, 1e10
	TOKEN_STRING // 'hello'

	TOKEN_DOT       // .
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
	TOKEN_OP        // any other operator character
)

// Token is a lexical token with its byte span in the original input.
// For identifiers Literal holds the unquoted name; Quoted records whether
// the source spelled it as "name" or [name].
type Token struct {
	Type    TokenType
	Literal string
	Quoted  bool
	Start   int // byte offset of the first character
	End     int // byte offset just past the last character
}
