package format

import (
	"strconv"
	"strings"

	"kc-transfer/internal/domain"
)

const basicodeScanLines = 200

var listingKeywords = map[string]bool{
	"PRINT": true, "INPUT": true, "IF": true, "THEN": true, "ELSE": true,
	"FOR": true, "NEXT": true, "GOTO": true, "GOSUB": true, "RETURN": true,
	"REM": true, "DIM": true, "DATA": true, "READ": true, "RESTORE": true,
	"END": true, "STOP": true, "CLS": true, "CLEAR": true, "CALL": true,
	"USR": true, "POKE": true, "PEEK": true, "RANDOMIZE": true, "ON": true,
	"DEF": true, "LET": true, "RUN": true, "LIST": true, "NEW": true,
}

const syntaxChars = "=:\"()<>;,"

// ClassifyListing decides whether text is a BASICODE listing, a plain BASIC
// listing or ordinary text.
func ClassifyListing(text []byte) domain.ContentKind {
	lines := listingLines(text)

	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, _, ok := lineNumber(line); !ok {
			return domain.ContentPlainText
		}
		break
	}

	seen := 0
	for _, line := range lines {
		if line == "" {
			continue
		}
		if isBasicodeStart(line) {
			return domain.ContentBasicodeListing
		}
		seen++
		if seen >= basicodeScanLines {
			break
		}
	}

	var nonEmpty, numbered, keyworded, syntaxHits int
	var numbers []int
	for _, line := range lines {
		if line == "" {
			continue
		}
		nonEmpty++
		n, rest, ok := lineNumber(line)
		if !ok {
			continue
		}
		numbered++
		numbers = append(numbers, n)
		if hasListingKeyword(rest) {
			keyworded++
		}
		if strings.ContainsAny(rest, syntaxChars) {
			syntaxHits++
		}
	}
	if nonEmpty == 0 {
		return domain.ContentPlainText
	}

	ratio := float64(numbered) / float64(nonEmpty)
	mono := 0.0
	if len(numbers) > 1 {
		ordered := 0
		for i := 1; i < len(numbers); i++ {
			if numbers[i] >= numbers[i-1] {
				ordered++
			}
		}
		mono = float64(ordered) / float64(len(numbers)-1)
	}

	switch {
	case numbered >= 2 && ratio >= 0.5 && (keyworded >= 1 || syntaxHits >= 2):
		return domain.ContentBasicListing
	case numbered >= 5 && ratio >= 0.6 && (mono >= 0.7 || keyworded >= 2):
		return domain.ContentBasicListing
	case numbered >= 20 && ratio >= 0.8:
		return domain.ContentBasicListing
	}
	return domain.ContentPlainText
}

// listingLines keeps ASCII only, normalises line ends and trims each line.
func listingLines(text []byte) []string {
	ascii := make([]byte, 0, len(text))
	for _, b := range text {
		if b < 0x80 {
			ascii = append(ascii, b)
		}
	}
	s := strings.ReplaceAll(string(ascii), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

// lineNumber parses a leading line number of one to five digits.
func lineNumber(line string) (int, string, bool) {
	s := strings.TrimLeft(line, " \t")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 || end > 5 {
		return 0, "", false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, "", false
	}
	return n, s[end:], true
}

func isBasicodeStart(line string) bool {
	n, rest, ok := lineNumber(line)
	if !ok || n != 1000 || !strings.HasPrefix(strings.TrimLeft(line, " \t"), "1000") {
		return false
	}
	upper := strings.ToUpper(maskLiterals(rest))
	for i := 0; ; {
		idx := strings.Index(upper[i:], "GOTO")
		if idx < 0 {
			return false
		}
		pos := i + idx
		i = pos + 4
		if pos > 0 && isLetter(upper[pos-1]) {
			continue
		}
		j := i
		for j < len(upper) && (upper[j] == ' ' || upper[j] == '\t') {
			j++
		}
		if strings.HasPrefix(upper[j:], "20") && (j+2 == len(upper) || !isDigit(upper[j+2])) {
			return true
		}
	}
}

// hasListingKeyword reports whether a whole run of letters is a keyword.
func hasListingKeyword(rest string) bool {
	for i := 0; i < len(rest); {
		if !isLetter(rest[i]) {
			i++
			continue
		}
		start := i
		for i < len(rest) && isLetter(rest[i]) {
			i++
		}
		if listingKeywords[strings.ToUpper(rest[start:i])] {
			return true
		}
	}
	return false
}

// maskLiterals blanks the content of string literals.
func maskLiterals(s string) string {
	out := []byte(s)
	inString := false
	for i, c := range out {
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			out[i] = ' '
		}
	}
	return string(out)
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
