package sqlscript

import "strings"

// isGoSeparator reports whether line is a batch separator: the word GO on
// its own, optionally followed by a semicolon and a line comment.
func isGoSeparator(line string) bool {
	rest := strings.TrimSpace(line)
	if len(rest) < 2 || !strings.EqualFold(rest[:2], "go") {
		return false
	}
	rest = strings.TrimSpace(rest[2:])
	if rest == "" {
		return true
	}
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ";"))
	return rest == "" || strings.HasPrefix(rest, "--")
}

type splitState int

const (
	stNormal splitState = iota
	stSingleQuote
	stDoubleQuote
	stBracket
	stLineComment
	stBlockComment
)

// Split breaks a SQL script into individual statements. Statements are
// separated by semicolons outside quotes and comments, or by a line whose
// only content is the word GO (any case, optionally followed by a semicolon
// and a line comment). Empty statements are dropped and separators are not
// included in the output.
func Split(script string) []string {
	var stmts []string
	var cur strings.Builder

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	state := stNormal
	for _, line := range strings.Split(script, "\n") {
		if state == stNormal || state == stLineComment {
			if state == stLineComment {
				state = stNormal
			}
			if isGoSeparator(line) {
				flush()
				continue
			}
		}

		for i := 0; i < len(line); i++ {
			ch := line[i]
			switch state {
			case stNormal:
				switch {
				case ch == ';':
					flush()
					continue
				case ch == '\'':
					state = stSingleQuote
				case ch == '"':
					state = stDoubleQuote
				case ch == '[':
					state = stBracket
				case ch == '-' && i+1 < len(line) && line[i+1] == '-':
					state = stLineComment
				case ch == '/' && i+1 < len(line) && line[i+1] == '*':
					state = stBlockComment
				}
			case stSingleQuote:
				if ch == '\'' {
					if i+1 < len(line) && line[i+1] == '\'' {
						cur.WriteByte(ch)
						i++
					} else {
						state = stNormal
					}
				}
			case stDoubleQuote:
				if ch == '"' {
					if i+1 < len(line) && line[i+1] == '"' {
						cur.WriteByte(ch)
						i++
					} else {
						state = stNormal
					}
				}
			case stBracket:
				if ch == ']' {
					state = stNormal
				}
			case stLineComment:
				// runs to end of line
			case stBlockComment:
				if ch == '*' && i+1 < len(line) && line[i+1] == '/' {
					cur.WriteByte(ch)
					i++
					ch = '/'
					state = stNormal
				}
			}
			cur.WriteByte(ch)
		}

		if state == stLineComment {
			state = stNormal
		}
		cur.WriteByte('\n')
	}
	flush()
	return stmts
}
