package timing

import "strings"

// JumpTargets counts the line numbers listed by ON ... GOTO and
// ON ... GOSUB statements. Each target costs the interpreter one extra
// statement dispatch.
func JumpTargets(line string) int {
	s := strings.ToUpper(line)
	total := 0
	for i := 0; i+2 <= len(s); {
		if s[i:i+2] != "ON" || !onBoundary(s, i) {
			i++
			continue
		}
		n, end := jumpList(s, i+2)
		if end < 0 {
			i++
			continue
		}
		total += n
		i = end
	}
	return total
}

func onBoundary(s string, i int) bool {
	if i == 0 {
		return true
	}
	p := s[i-1]
	if isSpace(p) || p == ':' || isDigit(p) {
		return true
	}
	return strings.HasSuffix(s[:i], "THEN") || strings.HasSuffix(s[:i], "ELSE")
}

// jumpList finds the first GOTO or GOSUB followed by a number inside the
// current statement and counts the comma separated targets. end is -1 when
// nothing matches.
func jumpList(s string, from int) (count int, end int) {
	for k := from; k < len(s) && s[k] != ':'; k++ {
		var after int
		switch {
		case strings.HasPrefix(s[k:], "GOTO"):
			after = k + 4
		case strings.HasPrefix(s[k:], "GOSUB"):
			after = k + 5
		default:
			continue
		}
		j := skipSpace(s, after)
		if j >= len(s) || !isDigit(s[j]) {
			continue
		}
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		count = 1
		for {
			c := skipSpace(s, j)
			if c >= len(s) || s[c] != ',' {
				break
			}
			d := skipSpace(s, c+1)
			if d >= len(s) || !isDigit(s[d]) {
				break
			}
			for d < len(s) && isDigit(s[d]) {
				d++
			}
			count++
			j = d
		}
		return count, j
	}
	return 0, -1
}
