package codec

// tokenBase is the first keyword token byte.
const tokenBase = 0x80

// keywordTokens lists HC-BASIC keywords in token order starting at 0x80.
var keywordTokens = [...]string{
	"END", "FOR", "NEXT", "DATA", "INPUT", "DIM", "READ", "LET",
	"GOTO", "RUN", "IF", "RESTORE", "GOSUB", "RETURN", "REM", "STOP",
	"OUT", "ON", "NULL", "WAIT", "DEF", "POKE", "DOKE", "AUTO",
	"LINES", "CLS", "WIDTH", "BYE", "!", "CALL", "PRINT", "CONT",
	"LIST", "CLEAR", "CLOAD", "CSAVE", "NEW", "TAB(", "TO", "FN",
	"SPC(", "THEN", "NOT", "STEP", "+", "-", "*", "/",
	"^", "AND", "OR", ">", "=", "<", "SGN", "INT",
	"ABS", "USR", "FRE", "INP", "POS", "SQR", "RND", "LN",
	"EXP", "COS", "SIN", "TAN", "ATN", "PEEK", "DEEK", "PI",
	"LEN", "STR$", "VAL", "ASC", "CHR$", "LEFT$", "RIGHT$", "MID$",
	"LOAD", "TRON", "TROFF", "EDIT", "ELSE", "INKEY$", "JOYST", "STRING$",
	"INSTR", "RENUMBER", "DELETE", "PAUSE", "BEEP", "WINDOW", "BORDER", "INK",
	"PAPER", "AT", "COLOR", "SOUND", "PSET", "PRESET", "BLOAD", "VPEEK",
	"VPOKE", "LOCATE", "KEYLIST", "KEY", "SWITCH", "PTEST", "CLOSE", "OPEN",
	"RANDOMIZE", "VGET$", "LINE", "CIRCLE", "CSRLIN",
}

// spaceAfter holds keywords that are followed by one space in normal listings.
var spaceAfter = map[string]bool{}

func init() {
	for _, kw := range []string{
		"END", "FOR", "NEXT", "DATA", "INPUT", "DIM", "READ", "LET", "GOTO", "RUN",
		"IF", "RESTORE", "GOSUB", "OUT", "ON", "NULL", "WAIT", "DEF", "POKE", "DOKE",
		"LINES", "WIDTH", "CALL", "PRINT", "CLOAD", "CSAVE", "LOAD", "TRON", "TROFF",
		"THEN", "ELSE", "TO", "STEP", "AND", "OR", "NOT", "INKEY$", "JOYST", "STRING$",
		"PAUSE", "BEEP", "COLOR", "SOUND", "PSET", "PRESET", "BLOAD", "VPEEK", "VPOKE",
		"LOCATE", "SWITCH", "WINDOW", "BORDER", "INK", "PAPER", "PTEST", "CLOSE", "OPEN",
		"RANDOMIZE", "LINE", "CIRCLE", "VGET$", "CSRLIN", "INSTR", "REM", "!", "?",
	} {
		spaceAfter[kw] = true
	}
}

// compactForms are the short spellings used by compact listings. LET is dropped.
var compactForms = map[string]string{
	"PRINT": "?",
	"REM":   "!",
	"LET":   "",
}

// Keyword returns the keyword for a token byte.
func Keyword(b byte) (string, bool) {
	if b < tokenBase {
		return "", false
	}
	idx := int(b) - tokenBase
	if idx >= len(keywordTokens) {
		return "", false
	}
	return keywordTokens[idx], true
}

// Token returns the token byte for a keyword.
func Token(keyword string) (byte, bool) {
	for i, kw := range keywordTokens {
		if kw == keyword {
			return byte(tokenBase + i), true
		}
	}
	return 0, false
}
