package format

import (
	"strconv"
	"strings"
)

// ResumeLine looks at the first non-blank line of a listing for a
// "RUN <line>" statement and returns the normalised line number. Archived
// programs often start with a cleanup line such as "0 CLOSE I#1:RUN10" that
// must be skipped when the program is started.
func ResumeLine(text []byte) string {
	for _, line := range listingLines(text) {
		if line == "" {
			continue
		}
		_, rest, ok := lineNumber(line)
		if !ok {
			rest = line
		}
		return runTarget(stripComment(maskLiterals(rest)))
	}
	return ""
}

// stripComment cuts a masked line at REM, ! or '.
func stripComment(s string) string {
	upper := strings.ToUpper(s)
	if idx := strings.IndexAny(upper, "!'"); idx >= 0 {
		upper = upper[:idx]
	}
	if idx := strings.Index(upper, "REM"); idx >= 0 {
		upper = upper[:idx]
	}
	return upper
}

func runTarget(upper string) string {
	for i := 0; ; {
		idx := strings.Index(upper[i:], "RUN")
		if idx < 0 {
			return ""
		}
		pos := i + idx
		i = pos + 3
		if pos > 0 && isLetter(upper[pos-1]) && !endsWithKeyword(upper[:pos]) {
			continue
		}
		j := i
		for j < len(upper) && (upper[j] == ' ' || upper[j] == '\t') {
			j++
		}
		k := j
		for k < len(upper) && isDigit(upper[k]) {
			k++
		}
		if k == j || k-j > 5 {
			continue
		}
		n, err := strconv.Atoi(upper[j:k])
		if err != nil {
			continue
		}
		return strconv.Itoa(n)
	}
}

// runPrefixes are keywords that may directly precede RUN in compact listings.
var runPrefixes = []string{"THEN", "ELSE"}

func endsWithKeyword(s string) bool {
	for _, kw := range runPrefixes {
		if strings.HasSuffix(s, kw) {
			return true
		}
	}
	return false
}
