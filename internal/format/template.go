package format

// HC-BASIC keeps its work area at 0x0300 and the program text at 0x0401.
// The end-of-program pointers in the work area are patched per program.
const (
	templateBase uint32 = 0x0300
	programStart uint32 = 0x0401
)

const (
	offsetTextStart  = 0x5F
	offsetVarStart   = 0xD7
	offsetArrayStart = 0xD9
	offsetFreeStart  = 0xDB
)

// workArea is the interpreter work area from 0x0300 to 0x03FF.
var workArea = [256]byte{
	0xC3, 0x89, 0xC0, 0xC3, 0x8C, 0xC0, 0xC3, 0xE7, 0xC4, 0xC3, 0x4F, 0xC5, 0x00, 0x00, 0x00, 0x20,
	0x28, 0x00, 0x00, 0x00, 0xD6, 0x00, 0x6F, 0x7C, 0xDE, 0x00, 0x67, 0x78, 0xDE, 0x00, 0x47, 0x3E,
	0x00, 0xC9, 0x00, 0x50, 0x28, 0x00, 0x00, 0x00, 0x00, 0x00, 0x35, 0x4A, 0xCA, 0x99, 0x39, 0x1C,
	0x76, 0x98, 0x22, 0x95, 0xB3, 0x98, 0x0A, 0xDD, 0x47, 0x98, 0x53, 0xD1, 0x99, 0x99, 0x0A, 0x1A,
	0x9F, 0x98, 0x65, 0xBC, 0xCD, 0x98, 0xD6, 0x77, 0x3E, 0x98, 0x52, 0xC7, 0x4F, 0x80, 0xDB, 0x00,
	0xC9, 0x01, 0xFF, 0x1C, 0x00, 0x00, 0x14, 0x00, 0x14, 0x00, 0x00, 0x00, 0x00, 0xFE, 0xBF, 0x01,
	0x04, 0x3A, 0x03, 0xFE, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xFE, 0xBF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03, 0x04, 0x03, 0x04, 0x03, 0x04, 0xFE, 0xBF, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// textGuard is the byte at 0x0400 in front of the first program line.
var textGuard = [1]byte{0x00}
