package timing

import (
	"sort"
	"strings"
)

var basicKeywords = []string{
	"IF", "THEN", "ELSE", "FOR", "TO", "STEP", "NEXT", "GOTO", "GOSUB", "RETURN",
	"ON", "END", "STOP", "RUN", "CONT", "LET", "DIM", "NEW", "LIST", "LIST#",
	"EDIT", "DELETE", "RENUMBER", "AUTO", "KEY", "KEYLIST", "TRON", "TROFF",
	"PRINT", "PRINT#", "INPUT", "INPUT#", "OPEN", "CLOSE", "LOAD", "LOAD#",
	"BLOAD", "CLOAD", "CSAVE", "READ", "DATA", "RESTORE", "CLS", "PAPER", "INK",
	"COLOR", "LOCATE", "WINDOW", "WIDTH", "CSRLINE", "TAB", "SPC", "PSET",
	"PRESET", "LINE", "CIRCLE", "PTEST", "SOUND", "BEEP", "PAUSE", "CLEAR", "FRE",
	"PEEK", "DEEK", "POKE", "DOKE", "VPEEK", "VPOKE", "CALL", "SWITCH", "USR",
	"INP", "OUT", "WAIT", "JOYST", "POS", "BYE", "BASIC", "REBASIC", "AND", "OR",
	"NOT", "ABS", "ATN", "COS", "EXP", "INT", "LN", "SGN", "SIN", "SQR", "TAN",
	"RND", "RANDOMIZE", "PI", "ASC", "CHR$", "LEN", "VAL", "STR$", "LEFT$", "MID$",
	"RIGHT$", "RIGTH$", "STRING$", "VGET$", "INSTR", "INKEY$", "INKRY$", "REM",
	"DEF", "FN",
}

// VarEstimator lists the scalar and array variable names a line touches.
// The interpreter only distinguishes the first MaxLetters letters of a name.
type VarEstimator struct {
	MaxLetters int
	keywords   map[string]bool
	longest    []string
}

func NewVarEstimator(maxLetters int) *VarEstimator {
	if maxLetters <= 0 {
		maxLetters = 2
	}
	keywords := make(map[string]bool, len(basicKeywords))
	longest := append([]string(nil), basicKeywords...)
	for _, kw := range basicKeywords {
		keywords[kw] = true
	}
	sort.SliceStable(longest, func(i, j int) bool {
		return len(longest[i]) > len(longest[j])
	})
	return &VarEstimator{MaxLetters: maxLetters, keywords: keywords, longest: longest}
}

// AnalyzeLine returns the number of variable references and their names in
// order of appearance. Scanning stops at DATA or REM.
func (e *VarEstimator) AnalyzeLine(line string) (int, []string) {
	s := strings.ToUpper(cutVarComment(maskStrings(stripLineNumber(line, 5))))
	var names []string
	for i := 0; i < len(s); {
		c := s[i]
		if isSpace(c) || isDigit(c) || c == '?' {
			i++
			continue
		}
		if !isLetter(c) {
			i++
			continue
		}
		if kw := e.keywordAt(s, i); kw != "" {
			if kw == "DATA" || kw == "REM" {
				break
			}
			i += len(kw)
			if kw == "FN" {
				i = e.scanName(s, i)
			}
			continue
		}
		end := e.scanName(s, i)
		if end == i {
			i++
			continue
		}
		if name := s[i:end]; !e.keywords[name] {
			names = append(names, name)
		}
		i = end
	}
	return len(names), names
}

func (e *VarEstimator) keywordAt(s string, i int) string {
	for _, kw := range e.longest {
		if strings.HasPrefix(s[i:], kw) {
			return kw
		}
	}
	return ""
}

// scanName consumes up to MaxLetters letters, any digits and an optional
// string suffix.
func (e *VarEstimator) scanName(s string, i int) int {
	letters := 0
	for i < len(s) && isLetter(s[i]) && letters < e.MaxLetters {
		i++
		letters++
	}
	if letters == 0 {
		return i
	}
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '$' {
		i++
	}
	return i
}

// cutVarComment cuts at the first ! or at a REM that does not continue an
// identifier.
func cutVarComment(s string) string {
	if idx := strings.IndexByte(s, '!'); idx >= 0 {
		s = s[:idx]
	}
	for i := 0; i+3 <= len(s); i++ {
		if !strings.EqualFold(s[i:i+3], "REM") {
			continue
		}
		if i == 0 {
			return ""
		}
		p := s[i-1]
		if !isAlnum(p) && p != '$' {
			return s[:i]
		}
	}
	return s
}
