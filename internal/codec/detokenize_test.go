package codec

import (
	"errors"
	"strings"
	"testing"
)

// tok returns the token byte for a keyword or fails the test.
func tok(t *testing.T, keyword string) byte {
	t.Helper()
	b, ok := Token(keyword)
	if !ok {
		t.Fatalf("no token for %s", keyword)
	}
	return b
}

// program encodes lines at the usual BASIC start address.
func program(lines ...Line) []byte {
	return Encode(lines, 0x0401)
}

// TestTokenTableBounds checks first, last and ELSE positions of the keyword table.
func TestTokenTableBounds(t *testing.T) {
	for b, want := range map[byte]string{0x80: "END", 0x9E: "PRINT", 0xD4: "ELSE", 0xF4: "CSRLIN"} {
		if got, ok := Keyword(b); !ok || got != want {
			t.Fatalf("Keyword(0x%02X) = %q, want %q", b, got, want)
		}
	}
	if _, ok := Keyword(0xF5); ok {
		t.Fatal("0xF5 must not be a keyword")
	}
}

// TestDetokenizeNormalAndCompact compares both render modes for one program.
func TestDetokenizeNormalAndCompact(t *testing.T) {
	prog := program(
		Line{Number: 10, Text: []byte{tok(t, "LET"), 'A', tok(t, "="), '1', ':', tok(t, "PRINT"), ' ', 'A'}},
		Line{Number: 20, Text: []byte{tok(t, "GOTO"), '1', '0'}},
	)

	normal, err := Detokenize(prog, ModeNormal)
	if err != nil {
		t.Fatalf("Detokenize(normal) error = %v", err)
	}
	if got, want := string(normal.Text), "10 LET A=1:PRINT A\r\n20 GOTO 10"; got != want {
		t.Fatalf("normal = %q, want %q", got, want)
	}
	if normal.Lines != 2 {
		t.Fatalf("lines = %d, want 2", normal.Lines)
	}

	compact, err := Detokenize(prog, ModeCompact)
	if err != nil {
		t.Fatalf("Detokenize(compact) error = %v", err)
	}
	if got, want := string(compact.Text), "10A=1:?A\r\n20GOTO10"; got != want {
		t.Fatalf("compact = %q, want %q", got, want)
	}
}

// TestDetokenizeStringIsExemptFromTokens verifies high bytes inside strings never fail.
func TestDetokenizeStringIsExemptFromTokens(t *testing.T) {
	prog := program(Line{Number: 10, Text: []byte{tok(t, "PRINT"), '"', 0x91, 0xFB, '"'}})

	listing, err := Detokenize(prog, ModeNormal)
	if err != nil {
		t.Fatalf("Detokenize() error = %v", err)
	}
	want := "10 PRINT \"\x91\x7B\""
	if string(listing.Text) != want {
		t.Fatalf("text = %q, want %q", listing.Text, want)
	}
}

// TestDetokenizeUnknownTokenFails checks the decode-fatal path.
func TestDetokenizeUnknownTokenFails(t *testing.T) {
	prog := program(
		Line{Number: 10, Text: []byte{tok(t, "CLS")}},
		Line{Number: 20, Text: []byte{'A', 0xF9}},
	)

	_, err := Detokenize(prog, ModeNormal)
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("error = %v, want %v", err, ErrUnknownToken)
	}
	var tokenErr *TokenError
	if !errors.As(err, &tokenErr) || tokenErr.Line != 20 || tokenErr.Offset != 1 || tokenErr.Byte != 0xF9 {
		t.Fatalf("token error = %+v", tokenErr)
	}
}

// TestDetokenizeComments keeps comments in normal mode and drops them in compact mode.
func TestDetokenizeComments(t *testing.T) {
	prog := program(Line{Number: 5, Text: []byte{tok(t, "REM"), ' ', 'H', 0x01, 'I', tok(t, "PRINT")}})

	normal, err := Detokenize(prog, ModeNormal)
	if err != nil {
		t.Fatalf("Detokenize() error = %v", err)
	}
	if got, want := string(normal.Text), "5 REM  HI\x9e"; got != want {
		t.Fatalf("normal = %q, want %q", got, want)
	}
	if len(normal.Diagnostics) != 1 || !strings.Contains(normal.Diagnostics[0], "0x01") {
		t.Fatalf("diagnostics = %v, want one control character entry", normal.Diagnostics)
	}

	compact, err := Detokenize(prog, ModeCompact)
	if err != nil {
		t.Fatalf("Detokenize() error = %v", err)
	}
	if got := string(compact.Text); got != "5!" {
		t.Fatalf("compact = %q, want 5!", got)
	}
}

// TestDetokenizeLongLineWarning checks the non-fatal width diagnostic.
func TestDetokenizeLongLineWarning(t *testing.T) {
	text := []byte{tok(t, "PRINT"), '"'}
	text = append(text, []byte(strings.Repeat("X", 80))...)
	text = append(text, '"')

	listing, err := Detokenize(program(Line{Number: 100, Text: text}), ModeNormal)
	if err != nil {
		t.Fatalf("Detokenize() error = %v", err)
	}
	if len(listing.Diagnostics) != 1 || !strings.Contains(listing.Diagnostics[0], "line 100") {
		t.Fatalf("diagnostics = %v", listing.Diagnostics)
	}
}

// TestSplitLinesTruncated reports a missing terminator as a diagnostic.
func TestSplitLinesTruncated(t *testing.T) {
	lines, diags := SplitLines([]byte{0x10, 0x04, 0x0A, 0x00, 'A', 'B'})
	if len(lines) != 1 || string(lines[0].Text) != "AB" {
		t.Fatalf("lines = %+v", lines)
	}
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v, want 1", diags)
	}
}

// TestEncodeEndsWithThreeZeros checks the program terminator and forward pointers.
func TestEncodeEndsWithThreeZeros(t *testing.T) {
	prog := Encode([]Line{{Number: 1, Text: []byte("A")}}, 0x0401)
	want := []byte{0x07, 0x04, 0x01, 0x00, 'A', 0x00, 0x00, 0x00}
	if string(prog) != string(want) {
		t.Fatalf("Encode = % X, want % X", prog, want)
	}
}
