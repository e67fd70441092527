package codec

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// MaxLineWidth is the longest line the KC line editor accepts.
const MaxLineWidth = 76

// ErrUnknownToken is wrapped by TokenError.
var ErrUnknownToken = errors.New("unknown token")

// Mode selects the listing layout.
type Mode int

const (
	// ModeNormal spaces keywords like the interpreter's LIST command.
	ModeNormal Mode = iota
	// ModeCompact drops whitespace and comments and uses short keyword forms.
	ModeCompact
)

// TokenError reports a byte >= 0x80 outside a string or comment with no keyword.
type TokenError struct {
	Line   int
	Offset int
	Byte   byte
}

// Error returns a readable message.
func (e *TokenError) Error() string {
	return fmt.Sprintf("unknown token 0x%02X in line %d at offset %d", e.Byte, e.Line, e.Offset)
}

// Unwrap exposes ErrUnknownToken for errors.Is checks.
func (e *TokenError) Unwrap() error {
	return ErrUnknownToken
}

// Line is one program line: number and raw tokenized text without terminator.
type Line struct {
	Number uint16
	Text   []byte
}

// Listing is a detokenized program in KC character codes.
type Listing struct {
	Text        []byte
	Lines       int
	Diagnostics []string
}

// SplitLines walks the forward-pointer chain of a tokenized program. A zero
// forward pointer marks the end of the program.
func SplitLines(program []byte) ([]Line, []string) {
	var (
		lines []Line
		diags []string
	)

	i := 0
	n := len(program)
	for i+4 <= n {
		next := int(program[i]) | int(program[i+1])<<8
		if next == 0 {
			return lines, diags
		}
		number := uint16(program[i+2]) | uint16(program[i+3])<<8

		j := i + 4
		for j < n && program[j] != 0x00 {
			j++
		}
		lines = append(lines, Line{Number: number, Text: program[i+4 : j]})
		if j >= n {
			diags = append(diags, fmt.Sprintf("line %d: missing line terminator", number))
			return lines, diags
		}
		i = j + 1
	}

	if i < n {
		diags = append(diags, fmt.Sprintf("truncated line header at offset %d", i))
	}
	return lines, diags
}

// Detokenize renders a tokenized HC-BASIC program as a CRLF separated listing.
// Unknown tokens abort the whole decode; other problems are collected as
// diagnostics next to the best-effort output.
func Detokenize(program []byte, mode Mode) (Listing, error) {
	lines, diags := SplitLines(program)
	listing := Listing{Diagnostics: diags}

	var out bytes.Buffer
	for idx, line := range lines {
		text, err := detokenizeLine(line, mode, &listing.Diagnostics)
		if err != nil {
			return listing, err
		}

		rendered := make([]byte, 0, len(text)+6)
		rendered = strconv.AppendUint(rendered, uint64(line.Number), 10)
		if mode == ModeNormal {
			rendered = append(rendered, ' ')
		}
		rendered = append(rendered, bytes.TrimRight(text, " \t")...)
		if len(rendered) > MaxLineWidth {
			listing.Diagnostics = append(listing.Diagnostics,
				fmt.Sprintf("line %d: longer than %d characters", line.Number, MaxLineWidth))
		}

		if idx > 0 {
			out.WriteString("\r\n")
		}
		out.Write(rendered)
	}

	listing.Text = out.Bytes()
	listing.Lines = len(lines)
	return listing, nil
}

func detokenizeLine(line Line, mode Mode, diags *[]string) ([]byte, error) {
	var out bytes.Buffer
	inString := false
	inComment := false

	for i, b := range line.Text {
		if inComment {
			c := unshiftText(b)
			if !legalLiteral(c, line.Number, i, "comment", diags) {
				continue
			}
			if mode == ModeNormal {
				if c < 0x20 {
					c = ' '
				}
				out.WriteByte(c)
			}
			continue
		}

		if !inString {
			if kw, ok := Keyword(b); ok {
				if mode == ModeCompact {
					if short, ok := compactForms[kw]; ok {
						kw = short
					}
				}
				if kw == "REM" || kw == "!" {
					inComment = true
				}
				out.WriteString(kw)
				if mode == ModeNormal && spaceAfter[kw] && !endsWithSpace(&out) {
					out.WriteByte(' ')
				}
				continue
			}
			if b >= 0x80 {
				return nil, &TokenError{Line: int(line.Number), Offset: i, Byte: b}
			}
		}

		if b == '"' {
			out.WriteByte('"')
			inString = !inString
			continue
		}

		if inString {
			c := unshiftText(b)
			if legalLiteral(c, line.Number, i, "string", diags) {
				out.WriteByte(c)
			}
			continue
		}

		if b == ' ' || b == '\t' {
			if mode == ModeNormal && out.Len() > 0 && !endsWithSpace(&out) {
				out.WriteByte(' ')
			}
			continue
		}
		out.WriteByte(b)
	}

	return out.Bytes(), nil
}

// unshiftText maps umlauts stored with bit 7 set back to their KC codes.
func unshiftText(b byte) byte {
	if b >= 0xFB && b <= 0xFE {
		return b & 0x7F
	}
	return b
}

func legalLiteral(b byte, number uint16, offset int, where string, diags *[]string) bool {
	if b < 0x20 && b != '\t' {
		*diags = append(*diags, fmt.Sprintf(
			"line %d: control character 0x%02X at offset %d in %s removed", number, b, offset, where))
		return false
	}
	return true
}

func endsWithSpace(buf *bytes.Buffer) bool {
	data := buf.Bytes()
	return len(data) > 0 && data[len(data)-1] == ' '
}

// Encode builds a tokenized program image for the given load address. Each
// line gets its absolute forward pointer and the image ends with a zero
// pointer, so a non-empty program ends in three zero bytes.
func Encode(lines []Line, base uint32) []byte {
	var out []byte
	for _, line := range lines {
		next := base + uint32(len(out)) + 4 + uint32(len(line.Text)) + 1
		out = append(out, byte(next), byte(next>>8), byte(line.Number), byte(line.Number>>8))
		out = append(out, line.Text...)
		out = append(out, 0x00)
	}
	return append(out, 0x00, 0x00)
}
