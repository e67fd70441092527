// Package timing estimates how long the KC BASIC interpreter needs to
// digest one typed program line. The estimates only pace keystroke
// injection; they never reject input.
package timing

import "strings"

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlnum(c byte) bool {
	return isLetter(c) || isDigit(c)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	default:
		return false
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

// stripLineNumber removes leading whitespace, up to maxDigits digits and the
// whitespace after them. maxDigits <= 0 means unlimited.
func stripLineNumber(line string, maxDigits int) string {
	i := skipSpace(line, 0)
	j := i
	for j < len(line) && isDigit(line[j]) && (maxDigits <= 0 || j-i < maxDigits) {
		j++
	}
	if j == i {
		return line
	}
	return line[skipSpace(line, j):]
}

// maskStrings blanks string literal content including the quotes. A doubled
// quote inside a literal is an escaped quote.
func maskStrings(line string) string {
	out := []byte(line)
	inString := false
	for i := 0; i < len(out); i++ {
		if out[i] == '"' {
			if inString && i+1 < len(out) && out[i+1] == '"' {
				out[i], out[i+1] = ' ', ' '
				i++
				continue
			}
			inString = !inString
			out[i] = ' '
			continue
		}
		if inString {
			out[i] = ' '
		}
	}
	return string(out)
}

// stripStringsAndComments masks literals and cuts the line at ', at a
// standalone ! or at a standalone REM.
func stripStringsAndComments(line string) string {
	masked := maskStrings(line)
	for i := 0; i < len(masked); i++ {
		c := masked[i]
		if c == '\'' {
			return masked[:i]
		}
		if c == '!' && (i == 0 || !isAlnum(masked[i-1])) {
			return masked[:i]
		}
		if i+3 <= len(masked) && strings.EqualFold(masked[i:i+3], "REM") {
			prevOK := i == 0 || !isAlnum(masked[i-1])
			nextOK := i+3 >= len(masked) || !isAlnum(masked[i+3])
			if prevOK && nextOK {
				return masked[:i]
			}
		}
	}
	return masked
}

// splitTopLevel splits on commas outside parentheses and trims each part.
// Empty trailing parts are dropped.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}

// statementEnd returns the index of the first ':' outside parentheses.
func statementEnd(s string, from int) int {
	depth := 0
	for k := from; k < len(s); k++ {
		switch s[k] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 {
				return k
			}
		}
	}
	return len(s)
}
