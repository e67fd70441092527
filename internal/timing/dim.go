package timing

import (
	"regexp"
	"strings"
)

var nonArrayNames = map[string]bool{
	"AT": true, "TAB": true, "SPC": true, "SGN": true, "INT": true, "ABS": true,
	"SQR": true, "RND": true, "LN": true, "EXP": true, "COS": true, "SIN": true,
	"TAN": true, "ATN": true, "USR": true, "FRE": true, "INP": true, "POS": true,
	"PEEK": true, "DEEK": true, "LEN": true, "STR$": true, "VAL": true, "ASC": true,
	"CHR$": true, "LEFT$": true, "RIGHT$": true, "MID$": true, "STRING$": true,
	"INSTR": true, "VGET$": true, "PTEST": true,
}

var dimDeclaration = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*\$?)\s*\((.*)\)\s*$`)

// DimEstimator counts array references and the storage units a DIM
// statement allocates.
type DimEstimator struct {
	// DefaultBound replaces dimension expressions that cannot be evaluated.
	DefaultBound int
	// OptionBase selects whether indices start at 0 or 1.
	OptionBase    int
	StringFactor  int
	NumericFactor int
}

func NewDimEstimator(defaultBound, optionBase int) *DimEstimator {
	return &DimEstimator{
		DefaultBound:  defaultBound,
		OptionBase:    optionBase,
		StringFactor:  2,
		NumericFactor: 1,
	}
}

// AnalyzeLine returns the array reference count and the DIM allocation
// units of one program line.
func (e *DimEstimator) AnalyzeLine(line string) (refs int, units int) {
	return e.ArrayRefs(e.RemoveDims(line)), e.AllocationUnits(line)
}

// AllocationUnits sums the element counts of every array declared by DIM
// on the line, weighted by the element type.
func (e *DimEstimator) AllocationUnits(line string) int {
	s := stripStringsAndComments(stripLineNumber(line, 0))
	total := 0
	for _, span := range dimSpans(s) {
		for _, decl := range splitTopLevel(s[span[0]:span[1]]) {
			total += e.declarationUnits(decl)
		}
	}
	return total
}

// RemoveDims blanks every DIM statement so its declarations do not count
// as array references.
func (e *DimEstimator) RemoveDims(line string) string {
	s := stripStringsAndComments(stripLineNumber(line, 0))
	spans := dimSpans(s)
	if len(spans) == 0 {
		return s
	}
	out := []byte(s)
	for _, span := range spans {
		for k := span[0] - 3; k < span[1]; k++ {
			out[k] = ' '
		}
	}
	return string(out)
}

// ArrayRefs counts identifiers followed by an opening parenthesis, skipping
// FN calls and built-in functions.
func (e *DimEstimator) ArrayRefs(line string) int {
	count := 0
	inString := false
	for i := 0; i < len(line); {
		c := line[i]
		if inString {
			if c == '"' {
				if i+1 < len(line) && line[i+1] == '"' {
					i += 2
					continue
				}
				inString = false
			}
			i++
			continue
		}
		if c == '"' {
			inString = true
			i++
			continue
		}
		if c == '\'' || (c == '!' && (i == 0 || !isAlnum(line[i-1]))) {
			break
		}
		if !isLetter(c) {
			i++
			continue
		}
		start := i
		for i < len(line) && isAlnum(line[i]) {
			i++
		}
		if i < len(line) && line[i] == '$' {
			i++
		}
		name := strings.ToUpper(line[start:i])
		if name == "REM" {
			break
		}
		j := skipSpace(line, i)
		if j < len(line) && line[j] == '(' {
			if !strings.HasPrefix(name, "FN") && !nonArrayNames[name] {
				count++
			}
		}
	}
	return count
}

func (e *DimEstimator) declarationUnits(decl string) int {
	m := dimDeclaration.FindStringSubmatch(decl)
	if m == nil {
		return 0
	}
	elements := 1
	for _, dim := range splitTopLevel(m[2]) {
		bound, ok := evalInt(dim)
		if !ok {
			bound = e.DefaultBound
		}
		if bound < 0 {
			bound = 0
		}
		elements *= e.elementsPerDimension(bound)
	}
	if strings.HasSuffix(m[1], "$") {
		return elements * e.StringFactor
	}
	return elements * e.NumericFactor
}

func (e *DimEstimator) elementsPerDimension(bound int) int {
	base := 0
	if e.OptionBase > 0 {
		base = 1
	}
	if n := bound - base + 1; n > 0 {
		return n
	}
	return 0
}

// dimSpans returns the declaration list span of each DIM statement. The
// span starts right after the keyword.
func dimSpans(s string) [][2]int {
	var spans [][2]int
	for i := 0; i+3 <= len(s); i++ {
		if !strings.EqualFold(s[i:i+3], "DIM") {
			continue
		}
		if i > 0 && (isAlnum(s[i-1]) || s[i-1] == '$') {
			continue
		}
		next := skipSpace(s, i+3)
		if next >= len(s) || !isLetter(s[next]) {
			continue
		}
		end := statementEnd(s, i+3)
		spans = append(spans, [2]int{i + 3, end})
		i = end
	}
	return spans
}
