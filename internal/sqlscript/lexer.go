package sqlscript

import "strings"

// Lexer tokenizes a single SQL statement.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	start := l.pos

	switch l.ch {
	case 0:
		return Token{Type: TOKEN_EOF, Start: start, End: start}
	case '.':
		l.readChar()
		return Token{Type: TOKEN_DOT, Literal: ".", Start: start, End: l.pos}
	case ',':
		l.readChar()
		return Token{Type: TOKEN_COMMA, Literal: ",", Start: start, End: l.pos}
	case ';':
		l.readChar()
		return Token{Type: TOKEN_SEMICOLON, Literal: ";", Start: start, End: l.pos}
	case '(':
		l.readChar()
		return Token{Type: TOKEN_LPAREN, Literal: "(", Start: start, End: l.pos}
	case ')':
		l.readChar()
		return Token{Type: TOKEN_RPAREN, Literal: ")", Start: start, End: l.pos}
	case '\'':
		lit := l.readString()
		return Token{Type: TOKEN_STRING, Literal: lit, Start: start, End: l.pos}
	case '"':
		lit := l.readQuoted('"', '"')
		return Token{Type: TOKEN_IDENT, Literal: lit, Quoted: true, Start: start, End: l.pos}
	case '[':
		lit := l.readQuoted('[', ']')
		return Token{Type: TOKEN_IDENT, Literal: lit, Quoted: true, Start: start, End: l.pos}
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_':
			lit := l.readIdentifier()
			return Token{Type: TOKEN_IDENT, Literal: lit, Start: start, End: l.pos}
		case isDigit(l.ch):
			lit := l.readNumber()
			return Token{Type: TOKEN_NUMBER, Literal: lit, Start: start, End: l.pos}
		default:
			ch := l.ch
			l.readChar()
			return Token{Type: TOKEN_OP, Literal: string(ch), Start: start, End: l.pos}
		}
	}
}

// skipWhitespaceAndComments skips whitespace and SQL comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		// Line comment (-- ...)
		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		// Block comment (/* ... */)
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					break
				}
				l.readChar()
			}
			continue
		}
		break
	}
}

// readString reads a single-quoted string literal.
// Handles '' escape for embedded quotes.
func (l *Lexer) readString() string {
	l.readChar() // skip opening quote
	var result strings.Builder
	for l.ch != 0 {
		if l.ch == '\'' {
			if l.peekChar() == '\'' {
				result.WriteByte('\'')
				l.readChar()
				l.readChar()
			} else {
				l.readChar() // skip closing quote
				break
			}
		} else {
			result.WriteByte(l.ch)
			l.readChar()
		}
	}
	return result.String()
}

// readQuoted reads a delimited identifier. Double quotes escape by doubling;
// square brackets have no escape.
func (l *Lexer) readQuoted(open, close byte) string {
	l.readChar() // skip opening delimiter
	var result strings.Builder
	for l.ch != 0 {
		if l.ch == close {
			if open == close && l.peekChar() == close {
				result.WriteByte(close)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing delimiter
			break
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	return result.String()
}

// readIdentifier reads an unquoted identifier.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal including decimals and exponents.
func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) || l.ch == '.' || l.ch == 'e' || l.ch == 'E' {
		if (l.ch == 'e' || l.ch == 'E') && (l.peekChar() == '+' || l.peekChar() == '-') {
			l.readChar()
		}
		l.readChar()
	}
	return l.input[start:l.pos]
}

// Tokens runs the lexer over the whole input.
func Tokens(input string) []Token {
	l := NewLexer(input)
	var toks []Token
	for {
		tok := l.NextToken()
		if tok.Type == TOKEN_EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
