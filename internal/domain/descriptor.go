package domain

import "fmt"

// ContainerFormat names the file container a descriptor was parsed from.
type ContainerFormat string

const (
	FormatNone             ContainerFormat = ""
	FormatText             ContainerFormat = "text"
	FormatTapeTokenized    ContainerFormat = "tape-tokenized"
	FormatDiskTokenized    ContainerFormat = "disk-tokenized"
	FormatMemoryImage      ContainerFormat = "memory-image"
	FormatMemoryImageBasic ContainerFormat = "memory-image-basic"
	FormatRawFallback      ContainerFormat = "raw"
)

// ContentKind decides how a payload reaches the target.
type ContentKind string

const (
	ContentNone             ContentKind = ""
	ContentMachineCode      ContentKind = "machine-code"
	ContentBasicMemoryImage ContentKind = "basic-memory-image"
	ContentBasicListing     ContentKind = "basic-listing"
	ContentBasicodeListing  ContentKind = "basicode-listing"
	ContentPlainText        ContentKind = "plain-text"
)

// MemoryClass is the smallest memory configuration that holds the program.
type MemoryClass string

const (
	MemoryClass16K     MemoryClass = "16k"
	MemoryClass32K     MemoryClass = "32k"
	MemoryClass48K     MemoryClass = "48k"
	MemoryClassUnknown MemoryClass = "unknown"
)

// MemoryClassFor derives the memory class from an exclusive end address.
func MemoryClassFor(end *uint32) MemoryClass {
	if end == nil {
		return MemoryClassUnknown
	}
	switch {
	case *end <= 0x4000:
		return MemoryClass16K
	case *end <= 0x8000:
		return MemoryClass32K
	case *end <= 0xC000:
		return MemoryClass48K
	default:
		return MemoryClassUnknown
	}
}

// TransferDescriptor is the normalized result of classifying one input.
// Addresses are pointers so that "absent" differs from zero; load end is
// exclusive and may be 0x10000.
type TransferDescriptor struct {
	Format            ContainerFormat `json:"format"`
	Kind              ContentKind     `json:"kind"`
	LoadStart         *uint32         `json:"loadStart,omitempty"`
	LoadEnd           *uint32         `json:"loadEnd,omitempty"`
	EntryFromHeader   *uint32         `json:"entryFromHeader,omitempty"`
	EntryFromPrologue *uint32         `json:"entryFromPrologue,omitempty"`
	HeaderName        string          `json:"headerName,omitempty"`
	PrologueName      string          `json:"prologueName,omitempty"`
	Payload           []byte          `json:"-"`
	PayloadLength     int             `json:"payloadLength"`
	MemoryClass       MemoryClass     `json:"memoryClass"`
	ResumeLine        string          `json:"resumeLine,omitempty"`
	ValidCode         int             `json:"validCode"`
	IsError           bool            `json:"isError"`
	Diagnostics       []string        `json:"diagnostics,omitempty"`
}

// Addr returns a pointer to an address value.
func Addr(v uint32) *uint32 {
	return &v
}

// EntrySelected prefers the header-declared entry over the prologue entry.
func (d TransferDescriptor) EntrySelected() *uint32 {
	if d.EntryFromHeader != nil {
		return d.EntryFromHeader
	}
	return d.EntryFromPrologue
}

// WithoutPayload returns a copy that keeps metadata but drops the bytes.
func (d TransferDescriptor) WithoutPayload() TransferDescriptor {
	d.Payload = nil
	d.Diagnostics = append([]string(nil), d.Diagnostics...)
	return d
}

// String renders a one-line summary for logs and the CLI.
func (d TransferDescriptor) String() string {
	if d.IsError {
		return fmt.Sprintf("error code=%d", d.ValidCode)
	}
	return fmt.Sprintf("%s/%s start=%s end=%s entry=%s name=%q size=%d ram=%s",
		d.Format, d.Kind, formatAddr(d.LoadStart), formatAddr(d.LoadEnd),
		formatAddr(d.EntrySelected()), d.displayName(), d.PayloadLength, d.MemoryClass)
}

func (d TransferDescriptor) displayName() string {
	if d.PrologueName != "" {
		return d.PrologueName
	}
	return d.HeaderName
}

func formatAddr(v *uint32) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%04X", *v)
}
