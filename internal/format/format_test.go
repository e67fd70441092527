package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"kc-transfer/internal/codec"
	"kc-transfer/internal/domain"
)

func token(t *testing.T, keyword string) byte {
	t.Helper()
	b, ok := codec.Token(keyword)
	if !ok {
		t.Fatalf("no token for %q", keyword)
	}
	return b
}

// helloProgram is a two line PRINT program, 50 bytes long when linked.
func helloProgram(t *testing.T) []byte {
	t.Helper()
	pr := token(t, "PRINT")
	lines := []codec.Line{
		{Number: 10, Text: append([]byte{pr}, `"HELLO, KC85/4 TEST"`...)},
		{Number: 20, Text: append([]byte{pr}, `"SECOND LINE OK"`...)},
	}
	program := codec.Encode(lines, 0x0401)
	if len(program) != 50 {
		t.Fatalf("program length = %d, want 50", len(program))
	}
	return program
}

func tapeFile(name string, program []byte, padding int) []byte {
	data := []byte{0xD3, 0xD3, 0xD3}
	data = append(data, fmt.Sprintf("%-8s", name)...)
	data = binary.LittleEndian.AppendUint16(data, uint16(len(program)))
	data = append(data, program...)
	return append(data, bytes.Repeat([]byte{0xA5}, padding)...)
}

func memoryImage(args byte, start, end, entry uint16, dump []byte) []byte {
	header := make([]byte, memHeaderSize)
	copy(header, "GAME    COM")
	header[16] = args
	binary.LittleEndian.PutUint16(header[17:], start)
	binary.LittleEndian.PutUint16(header[19:], end)
	binary.LittleEndian.PutUint16(header[21:], entry)
	return append(header, dump...)
}

// TestClassifyTapeBecomesMemoryImage runs the cassette dump end to end.
func TestClassifyTapeBecomesMemoryImage(t *testing.T) {
	data := tapeFile("TEST    ", helloProgram(t), 197)
	if len(data) != 260 {
		t.Fatalf("input length = %d, want 260", len(data))
	}

	desc := Classify(data)
	if desc.IsError {
		t.Fatalf("Classify failed: code=%d %v", desc.ValidCode, desc.Diagnostics)
	}
	if desc.Format != domain.FormatTapeTokenized {
		t.Fatalf("format = %q, want %q", desc.Format, domain.FormatTapeTokenized)
	}
	if desc.Kind != domain.ContentBasicMemoryImage {
		t.Fatalf("kind = %q, want %q", desc.Kind, domain.ContentBasicMemoryImage)
	}
	if desc.LoadStart == nil || *desc.LoadStart != templateBase {
		t.Fatalf("load start = %v, want 0x0300", desc.LoadStart)
	}
	if desc.HeaderName != "TEST" {
		t.Fatalf("header name = %q, want TEST", desc.HeaderName)
	}
	if desc.PayloadLength != len(workArea)+1+50 {
		t.Fatalf("payload length = %d", desc.PayloadLength)
	}
}

// TestClassifyZeroBytesFallsBackToRaw accepts five zero bytes as machine code.
func TestClassifyZeroBytesFallsBackToRaw(t *testing.T) {
	desc := Classify(make([]byte, 5))
	if desc.IsError {
		t.Fatalf("Classify failed: code=%d", desc.ValidCode)
	}
	if desc.Format != domain.FormatRawFallback || desc.Kind != domain.ContentMachineCode {
		t.Fatalf("descriptor = %s", desc)
	}
	if *desc.LoadStart != 0x0200 || *desc.LoadEnd != 0x0205 || *desc.EntrySelected() != 0x0200 {
		t.Fatalf("addresses = %s", desc)
	}
}

// TestClassifyEmptyInput reports the dedicated empty code.
func TestClassifyEmptyInput(t *testing.T) {
	desc := Classify(nil)
	if !desc.IsError || desc.ValidCode != CodeRawEmpty {
		t.Fatalf("Classify(nil) = error %v code %d, want code %d", desc.IsError, desc.ValidCode, CodeRawEmpty)
	}
}

// TestClassifyTooLargeForRAM rejects raw data that reaches the ROM.
func TestClassifyTooLargeForRAM(t *testing.T) {
	data := bytes.Repeat([]byte{0xFF}, 0xBE01)
	desc := Classify(data)
	if !desc.IsError || desc.ValidCode != CodeRawTooLarge {
		t.Fatalf("code = %d, want %d", desc.ValidCode, CodeRawTooLarge)
	}
}

// TestMachineCodeAtHighLoader places a headerless loader below the ROM.
func TestMachineCodeAtHighLoader(t *testing.T) {
	desc, err := MachineCodeAt(make([]byte, 0x100), 0xBF00)
	if err != nil {
		t.Fatalf("MachineCodeAt error: %v", err)
	}
	if *desc.LoadStart != 0xBF00 || *desc.LoadEnd != 0xC000 || *desc.EntrySelected() != 0xBF00 {
		t.Fatalf("addresses = %s", desc)
	}
	if _, err := MachineCodeAt(make([]byte, 0x101), 0xBF00); err == nil {
		t.Fatal("expected loader crossing into ROM to fail")
	}
}

// TestParseTextStripsBlockPadding drops 0x1A fillers at a block boundary.
func TestParseTextStripsBlockPadding(t *testing.T) {
	text := []byte("HELLO\r\nWORLD\r\n")
	data := append(append([]byte(nil), text...), bytes.Repeat([]byte{0x1A}, blockSize-len(text))...)
	desc, err := ParseText(data)
	if err != nil {
		t.Fatalf("ParseText error: %v", err)
	}
	if !bytes.Equal(desc.Payload, text) {
		t.Fatalf("payload = %q, want %q", desc.Payload, text)
	}
	if desc.Kind != domain.ContentPlainText {
		t.Fatalf("kind = %q, want plain text", desc.Kind)
	}
}

// TestParseTextRejectsControlBytes refuses bytes that cannot be typed.
func TestParseTextRejectsControlBytes(t *testing.T) {
	_, err := ParseText([]byte("A\x01B"))
	rej, ok := err.(*Rejection)
	if !ok || rej.Code != CodeTextInvalidByte || rej.Terminal {
		t.Fatalf("err = %v, want code %d", err, CodeTextInvalidByte)
	}
}

// TestClassifyBasicTextListing recognises a typed listing and its resume line.
func TestClassifyBasicTextListing(t *testing.T) {
	desc := Classify([]byte("0 CLOSE I#1: RUN 10\r\n10 PRINT \"HI\"\r\n20 GOTO 10\r\n"))
	if desc.Kind != domain.ContentBasicListing {
		t.Fatalf("kind = %q, want basic listing", desc.Kind)
	}
	if desc.ResumeLine != "10" {
		t.Fatalf("resume line = %q, want 10", desc.ResumeLine)
	}
}

// TestClassifyListing covers the three content kinds.
func TestClassifyListing(t *testing.T) {
	cases := []struct {
		name string
		text string
		want domain.ContentKind
	}{
		{"prose", "Dear reader,\nthis is text.\n", domain.ContentPlainText},
		{"basicode", "1000 A=100:GOTO 20:REM\n1010 PRINT A\n", domain.ContentBasicodeListing},
		{"basicode compact", "1000A=100:GOTO20\n", domain.ContentBasicodeListing},
		{"goto inside string", "1000 PRINT \"GOTO 20\"\n1010 END\n", domain.ContentBasicListing},
		{"listing", "10 FOR I=1 TO 5\n20 NEXT I\n", domain.ContentBasicListing},
		{"numbers only", "1\n2\n", domain.ContentPlainText},
		{"starts with prose", "TITLE\n10 PRINT\n20 END\n", domain.ContentPlainText},
	}
	for _, tc := range cases {
		if got := ClassifyListing([]byte(tc.text)); got != tc.want {
			t.Fatalf("%s: ClassifyListing = %q, want %q", tc.name, got, tc.want)
		}
	}
}

// TestResumeLine only inspects the first non-blank line.
func TestResumeLine(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"\r\n0 CLOSE I#1:RUN0010\r\n10 END", "10"},
		{"0 PRINT \"RUN 5\"\r\n", ""},
		{"0 REM RUN 5\r\n", ""},
		{"10 PRINT\r\n20 RUN 30", ""},
		{"5 TRUN 7", ""},
		{"0 IFX=1THENRUN100", "100"},
		{"0 IFX=1THENEND:ELSERUN 20", "20"},
	}
	for _, tc := range cases {
		if got := ResumeLine([]byte(tc.text)); got != tc.want {
			t.Fatalf("ResumeLine(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

// TestParseTapeMarkers stops on markers that cannot be transferred.
func TestParseTapeMarkers(t *testing.T) {
	cases := map[int][]byte{
		CodeTapeMarkerTTT: {0xD4, 0xD4, 0xD4, 0, 0},
		CodeTapeMarkerUUU: {0xD5, 0xD5, 0xD5, 0, 0},
		CodeTapeMarkerWWW: {0xD7, 0xD7, 0xD7, 0, 0},
		CodeTapeMarkerTAP: {0x01, 0xD3, 0xD3, 0, 0},
	}
	for code, data := range cases {
		desc := Classify(data)
		if !desc.IsError || desc.ValidCode != code {
			t.Fatalf("Classify(% X) code = %d, want %d", data, desc.ValidCode, code)
		}
	}
}

// TestParseTapeInconsistentIsTerminal reports length problems as errors.
func TestParseTapeInconsistentIsTerminal(t *testing.T) {
	program := helloProgram(t)
	data := tapeFile("TEST", program, 0)
	data[11] = 0xFF

	desc := Classify(data)
	if !desc.IsError || desc.ValidCode != CodeTapeTruncated {
		t.Fatalf("code = %d, want %d", desc.ValidCode, CodeTapeTruncated)
	}
}

// TestParseTapeKeepsBasicodeAsText leaves BASICODE listings for typing.
func TestParseTapeKeepsBasicodeAsText(t *testing.T) {
	lines := []codec.Line{{Number: 1000, Text: append([]byte("A=100:"), token(t, "GOTO"), '2', '0')}}
	desc, err := ParseTape(tapeFile("BC", codec.Encode(lines, 0x0401), 0))
	if err != nil {
		t.Fatalf("ParseTape error: %v", err)
	}
	if desc.Kind != domain.ContentBasicodeListing {
		t.Fatalf("kind = %q, want basicode", desc.Kind)
	}
	if string(desc.Payload) != "1000A=100:GOTO20" {
		t.Fatalf("payload = %q", desc.Payload)
	}
}

// TestParseDisk decodes a length-prefixed program.
func TestParseDisk(t *testing.T) {
	program := helloProgram(t)
	data := binary.LittleEndian.AppendUint16(nil, uint16(len(program)))
	data = append(data, program...)

	desc := Classify(data)
	if desc.IsError || desc.Format != domain.FormatDiskTokenized {
		t.Fatalf("descriptor = %s %v", desc, desc.Diagnostics)
	}
	if desc.Kind != domain.ContentBasicMemoryImage {
		t.Fatalf("kind = %q, want basic memory image", desc.Kind)
	}
}

// TestParseDiskWithoutTerminatorFallsThrough leaves the input to later rules.
func TestParseDiskWithoutTerminatorFallsThrough(t *testing.T) {
	data := []byte{0x03, 0x00, 0x01, 0x02, 0x03}
	if _, err := ParseDisk(data); err == nil {
		t.Fatalf("ParseDisk accepted data without terminator")
	}
	desc := Classify(data)
	if desc.IsError || desc.Format != domain.FormatRawFallback {
		t.Fatalf("descriptor = %s, want raw fallback", desc)
	}
}

// TestSynthesizeBasicImageIsStable rebuilds an image from its own program.
func TestSynthesizeBasicImageIsStable(t *testing.T) {
	first := SynthesizeBasicImage(helloProgram(t))
	program, ok := BasicProgram(first)
	if !ok {
		t.Fatalf("BasicProgram failed")
	}
	second := SynthesizeBasicImage(program)
	if !bytes.Equal(first.Payload, second.Payload) {
		t.Fatalf("images differ")
	}

	end := uint16(programStart) + 50
	for _, off := range []int{offsetVarStart, offsetArrayStart, offsetFreeStart} {
		if got := binary.LittleEndian.Uint16(first.Payload[off:]); got != end {
			t.Fatalf("pointer at 0x%02X = %04X, want %04X", off, got, end)
		}
	}
	if got := binary.LittleEndian.Uint16(first.Payload[offsetTextStart:]); got != uint16(programStart) {
		t.Fatalf("text start = %04X", got)
	}
	if *first.LoadEnd != templateBase+uint32(len(first.Payload)) {
		t.Fatalf("load end = %04X", *first.LoadEnd)
	}
}

// TestSynthesizeBasicImageKeepsProgramBytes appends the program unchanged,
// even when its line pointers were linked for another address.
func TestSynthesizeBasicImageKeepsProgramBytes(t *testing.T) {
	program := []byte{0x09, 0x10, 0x0A, 0x00, token(t, "PRINT"), '"', 'A', '"', 0x00, 0x00, 0x00, 0x00}

	desc := SynthesizeBasicImage(program)
	if !bytes.HasSuffix(desc.Payload, program) {
		t.Fatalf("payload tail = % X, want % X", desc.Payload[len(desc.Payload)-len(program):], program)
	}
	if got, want := len(desc.Payload), len(workArea)+len(textGuard)+len(program); got != want {
		t.Fatalf("payload length = %d, want %d", got, want)
	}

	end := uint16(programStart) + uint16(len(program))
	for _, off := range []int{offsetVarStart, offsetArrayStart, offsetFreeStart} {
		if got := binary.LittleEndian.Uint16(desc.Payload[off:]); got != end {
			t.Fatalf("pointer at 0x%02X = %04X, want %04X", off, got, end)
		}
	}
}

// TestSynthesizedImageLooksLikeBasic matches the work area signature.
func TestSynthesizedImageLooksLikeBasic(t *testing.T) {
	img := SynthesizeBasicImage(helloProgram(t))
	end := uint16(*img.LoadEnd)
	data := memoryImage(2, uint16(templateBase), end, 0, img.Payload)

	desc := Classify(data)
	if desc.Kind != domain.ContentBasicMemoryImage || desc.Format != domain.FormatMemoryImageBasic {
		t.Fatalf("descriptor = %s", desc)
	}
}

// TestParseMemoryImageWithPrologue finds the CAOS menu entry.
func TestParseMemoryImageWithPrologue(t *testing.T) {
	dump := append([]byte{0x00, 0x7F, 0x7F}, "GAME"...)
	dump = append(dump, 0x01, 0xC9)
	dump = append(dump, make([]byte, 128-len(dump))...)
	data := memoryImage(2, 0x1000, 0x1080, 0, dump)

	desc := Classify(data)
	if desc.IsError || desc.Kind != domain.ContentMachineCode {
		t.Fatalf("descriptor = %s", desc)
	}
	if desc.HeaderName != "GAME" {
		t.Fatalf("header name = %q, want GAME", desc.HeaderName)
	}
	if desc.PrologueName != "GAME" || desc.EntryFromPrologue == nil || *desc.EntryFromPrologue != 0x1008 {
		t.Fatalf("prologue = %q %v", desc.PrologueName, desc.EntryFromPrologue)
	}
	if desc.EntryFromHeader != nil {
		t.Fatalf("entry from header set with two arguments")
	}
	if desc.MemoryClass != domain.MemoryClass16K {
		t.Fatalf("memory class = %q", desc.MemoryClass)
	}
}

// TestParseMemoryImageRejections covers the structural checks.
func TestParseMemoryImageRejections(t *testing.T) {
	dump := make([]byte, 16)
	cases := []struct {
		name string
		data []byte
		code int
	}{
		{"short", make([]byte, 100), CodeMemShortHeader},
		{"no data", memoryImage(2, 0x200, 0x210, 0, nil), CodeMemNoData},
		{"bad args", memoryImage(11, 0x200, 0x210, 0, dump), CodeMemBadArgCount},
		{"truncated", memoryImage(3, 0x200, 0x300, 0, dump), CodeMemTruncated},
		{"past top", memoryImage(2, 0xFFF8, 0x0008, 0, dump), CodeMemPastTop},
	}
	for _, tc := range cases {
		_, err := ParseMemoryImage(tc.data)
		rej, ok := err.(*Rejection)
		if !ok || rej.Code != tc.code {
			t.Fatalf("%s: err = %v, want code %d", tc.name, err, tc.code)
		}
	}
}
