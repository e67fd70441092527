package codec

import "strings"

// Modifier flags for live keyboard translation.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModControl
)

type keyCombo struct {
	name string
	mods Modifier
}

var keyCombos = map[keyCombo][]byte{
	{"home", 0}:                       {0x10},
	{"home", ModShift}:                {0x0C},
	{"down", 0}:                       {0x0A},
	{"down", ModShift}:                {0x12},
	{"up", 0}:                         {0x0B},
	{"up", ModShift}:                  {0x11},
	{"left", 0}:                       {0x08},
	{"left", ModShift}:                {0x19},
	{"right", 0}:                      {0x09},
	{"right", ModShift}:               {0x18},
	{"escape", 0}:                     {0x03},
	{"pause", 0}:                      {0x13},
	{"pause", ModShift}:               {0x1B},
	{"insert", 0}:                     {0x1A},
	{"insert", ModShift}:              {0x14},
	{"delete", 0}:                     {0x1F},
	{"delete", ModShift}:              {0x02},
	{"delete", ModControl}:            {0x01},
	{"delete", ModControl | ModShift}: {0x0F},
	{"backspace", 0}:                  {0x08, 0x1F},
	{"capslock", 0}:                   {0x16},
	{"return", 0}:                     {0x0D},
	{"enter", 0}:                      {0x0D},
}

// NamedKey returns the KC bytes for a named key such as "Home" or "F3".
func NamedKey(name string, mods Modifier) ([]byte, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if payload, ok := keyCombos[keyCombo{key, mods}]; ok {
		return append([]byte(nil), payload...), true
	}

	if len(key) >= 2 && key[0] == 'f' {
		n := 0
		for _, c := range key[1:] {
			if c < '0' || c > '9' {
				return nil, false
			}
			n = n*10 + int(c-'0')
		}
		if n >= 1 && n <= 12 {
			return []byte{0xF0 + byte(n)}, true
		}
	}
	return nil, false
}

// RuneKey returns the KC bytes for a typed character. The KC keyboard has
// inverted shift for letters, so the case is swapped before mapping.
func RuneKey(r rune) ([]byte, bool) {
	switch {
	case r >= 'A' && r <= 'Z':
		r += 'a' - 'A'
	case r >= 'a' && r <= 'z':
		r -= 'a' - 'A'
	case r == '\r' || r == '\n':
		return []byte{0x0D}, true
	}
	if r < 0 || r > 0xFF {
		return nil, false
	}
	return []byte{HostToKC(byte(r))}, true
}
