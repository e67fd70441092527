package codec

import (
	"bytes"
	"testing"
)

// TestNamedKey covers plain keys, shifted variants and function keys.
func TestNamedKey(t *testing.T) {
	cases := []struct {
		name string
		mods Modifier
		want []byte
	}{
		{"Home", 0, []byte{0x10}},
		{"Home", ModShift, []byte{0x0C}},
		{"Delete", ModControl | ModShift, []byte{0x0F}},
		{"BackSpace", 0, []byte{0x08, 0x1F}},
		{"F1", 0, []byte{0xF1}},
		{"F12", 0, []byte{0xFC}},
	}
	for _, tc := range cases {
		got, ok := NamedKey(tc.name, tc.mods)
		if !ok || !bytes.Equal(got, tc.want) {
			t.Fatalf("NamedKey(%s, %d) = % X, %v, want % X", tc.name, tc.mods, got, ok, tc.want)
		}
	}

	if _, ok := NamedKey("F13", 0); ok {
		t.Fatal("F13 must not map")
	}
}

// TestRuneKeyInvertsCase checks the KC shift inversion.
func TestRuneKeyInvertsCase(t *testing.T) {
	if got, _ := RuneKey('a'); got[0] != 'A' {
		t.Fatalf("RuneKey(a) = %q, want A", got)
	}
	if got, _ := RuneKey('Q'); got[0] != 'q' {
		t.Fatalf("RuneKey(Q) = %q, want q", got)
	}
	if got, _ := RuneKey('ö'); got[0] != 0x7C {
		t.Fatalf("RuneKey(ö) = % X, want 7C", got)
	}
	if _, ok := RuneKey('€'); ok {
		t.Fatal("euro sign must not map")
	}
}
