package codec

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

var unicodePunctuation = strings.NewReplacer(
	"\u00a0", " ",
	"\u2013", "-",
	"\u2014", "-",
	"\u2212", "-",
	"\u2018", "'",
	"\u2019", "'",
	"\u201c", "\"",
	"\u201d", "\"",
	"\u2026", "...",
	"\ufeff", "",
)

// NormalizeText replaces Unicode punctuation with host equivalents and turns
// every line break into a single CR.
func NormalizeText(s string) string {
	s = unicodePunctuation.Replace(s)
	s = strings.ReplaceAll(s, "\r\n", "\r")
	return strings.ReplaceAll(s, "\n", "\r")
}

// EncodeHost converts text to ISO-8859-1 bytes. Text outside Latin-1 is
// decomposed first and remaining unencodable runes become '?'.
func EncodeHost(s string) []byte {
	if out, err := charmap.ISO8859_1.NewEncoder().String(s); err == nil {
		return []byte(out)
	}

	decomposed := norm.NFKD.String(s)
	out := make([]byte, 0, len(decomposed))
	for _, r := range decomposed {
		b, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

// DecodeHost converts KC bytes into a UTF-8 string via the host code page.
func DecodeHost(kc []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(KCBytesToHost(kc))
	if err != nil {
		return string(kc)
	}
	return string(out)
}

// KeystrokePayload converts clipboard text into bytes that can be typed at
// the KC prompt: CR line ends and printable KC codes only.
func KeystrokePayload(text string) []byte {
	raw := EncodeHost(NormalizeText(text))
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		b = HostToKC(b)
		switch {
		case b == 0x0A:
			continue
		case b == 0x0D, b >= 0x20 && b < 0x80:
			out = append(out, b)
		default:
			out = append(out, 0x20)
		}
	}
	return out
}
