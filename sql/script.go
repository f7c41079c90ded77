package sql

import (
	"math"
	"strconv"
	"strings"
)

// StripComments removes "--" line comments and "/* */" block comments that
// sit outside single-quoted strings. A block comment becomes a single space
// so the words around it stay apart.
func StripComments(script string) string {
	var builder strings.Builder
	builder.Grow(len(script))

	inString := false
	for i := 0; i < len(script); i++ {
		ch := script[i]

		if inString {
			builder.WriteByte(ch)
			if ch == '\'' {
				inString = false
			}
			continue
		}

		switch {
		case ch == '\'':
			inString = true
			builder.WriteByte(ch)
		case ch == '-' && i+1 < len(script) && script[i+1] == '-':
			for i < len(script) && script[i] != '\n' {
				i++
			}
			if i < len(script) {
				builder.WriteByte('\n')
			}
		case ch == '/' && i+1 < len(script) && script[i+1] == '*':
			end := strings.Index(script[i+2:], "*/")
			if end < 0 {
				i = len(script)
			} else {
				i += end + 3
			}
			builder.WriteByte(' ')
		default:
			builder.WriteByte(ch)
		}
	}

	return builder.String()
}

// Split strips comments and cuts a script into trimmed, non-empty
// statements at every semicolon outside a quoted string.
func Split(script string) []string {
	stripped := StripComments(script)

	var statements []string
	inString := false
	start := 0

	for i := 0; i < len(stripped); i++ {
		switch stripped[i] {
		case '\'':
			inString = !inString
		case ';':
			if inString {
				continue
			}
			if statement := strings.TrimSpace(stripped[start:i]); statement != "" {
				statements = append(statements, statement)
			}
			start = i + 1
		}
	}

	if statement := strings.TrimSpace(stripped[start:]); statement != "" {
		statements = append(statements, statement)
	}

	return statements
}

// Keyword returns the first whitespace-delimited word of a statement in upper case.
func Keyword(statement string) string {
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return ""
	}
	word := fields[0]
	if i := strings.IndexAny(word, "(;"); i >= 0 {
		word = word[:i]
	}
	return toUpper(word)
}

// CastValue interprets a literal the same way for WHERE, INSERT and SET:
// a single-quoted token is a string without its quotes, null/true/false in
// any case are the corresponding primitives, a finite number is a float64,
// and anything else is returned as raw text.
func CastValue(raw string) any {
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return raw[1 : len(raw)-1]
	}

	switch toLower(raw) {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}

	if isNumeric(raw) {
		if n, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
			return n
		}
	}

	return raw
}

// isNumeric rejects the spellings strconv accepts but a decimal literal
// does not have (hex, underscores, inf, nan).
func isNumeric(raw string) bool {
	if raw == "" {
		return false
	}
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if !isDigit(ch) && ch != '.' && ch != 'e' && ch != 'E' && !isSign(ch) {
			return false
		}
	}
	return true
}
