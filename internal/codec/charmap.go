// Package codec converts between host text, KC85 character codes and
// tokenized HC-BASIC program images.
package codec

// hostToKC maps ISO-8859-1 / Windows-1252 host bytes onto the KC character set.
// Several host bytes share one KC code, so the map is not invertible as a whole.
var hostToKC = map[byte]byte{
	0xE4: 0x7B, // ä
	0xF6: 0x7C, // ö
	0xFC: 0x7D, // ü
	0xC4: 0x7B, // Ä
	0xD6: 0x7C, // Ö
	0xDC: 0x7D, // Ü
	0xDF: 0x7E, // ß
	0xAC: 0x5D, // ¬
	0x7C: 0x5C, // |
	0xA9: 0x60, // ©
	0x84: 0x22, // „
	0x93: 0x22, // “
	0x94: 0x22, // ”
	0x96: 0x2D, // –
	0x97: 0x2D, // —
}

var kcToHost = map[byte]byte{
	0x7B: 0xE4,
	0x7C: 0xF6,
	0x7D: 0xFC,
	0x7E: 0xDF,
	0x5D: 0xAC,
	0x5C: 0x7C,
	0x60: 0xA9,
}

// HostToKC maps one host byte to its KC code.
func HostToKC(b byte) byte {
	if v, ok := hostToKC[b]; ok {
		return v
	}
	return b
}

// KCToHost maps one KC code to its host byte.
func KCToHost(b byte) byte {
	if v, ok := kcToHost[b]; ok {
		return v
	}
	return b
}

// HostBytesToKC maps a host byte slice into a new KC byte slice.
func HostBytesToKC(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = HostToKC(b)
	}
	return out
}

// KCBytesToHost maps a KC byte slice into a new host byte slice.
func KCBytesToHost(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = KCToHost(b)
	}
	return out
}

// LossyHostBytes lists host bytes that do not survive HostToKC followed by
// KCToHost: capitals fold onto lower case umlauts, typographic quotes and
// dashes fold onto ASCII, and the ASCII bytes the KC uses for umlauts come
// back as umlauts.
func LossyHostBytes() []byte {
	return []byte{0xC4, 0xD6, 0xDC, 0x84, 0x93, 0x94, 0x96, 0x97, 0x5C, 0x5D, 0x60, 0x7B, 0x7D, 0x7E}
}
