package format

import (
	"bytes"
	"fmt"

	"kc-transfer/internal/domain"
)

const (
	memHeaderSize = 128
	memNameSize   = 8
	minAddrArgs   = 2
	maxAddrArgs   = 10
)

// ParseMemoryImage accepts a KCC/KCB container: a 128 byte header with
// name and address arguments, followed by the memory dump.
func ParseMemoryImage(data []byte) (domain.TransferDescriptor, error) {
	size := len(data)
	if size >= 2 {
		if length := int(data[0]) | int(data[1])<<8; length > 0 && length+2 == size {
			return domain.TransferDescriptor{}, reject(CodeMemLengthPrefixed, "length prefixed program, not a memory image")
		}
	}
	if size < memHeaderSize {
		return domain.TransferDescriptor{}, reject(CodeMemShortHeader, "shorter than a memory image header")
	}
	switch {
	case hasMarker(data, 0xD3, 0xD3, 0xD3):
		return domain.TransferDescriptor{}, reject(CodeMemMarkerSSS, "BASIC tape marker")
	case hasMarker(data, 0x01, 0xD3, 0xD3):
		return domain.TransferDescriptor{}, reject(CodeMemMarkerTAP, "TAP marker")
	case hasMarker(data, 0xD5, 0xD5, 0xD5):
		return domain.TransferDescriptor{}, reject(CodeMemMarkerUUU, "BASIC UUU marker")
	case hasMarker(data, 0xD7, 0xD7, 0xD7):
		return domain.TransferDescriptor{}, reject(CodeMemMarkerWWW, "BASIC WWW marker")
	}

	args := int(data[16])
	start := uint32(data[17]) | uint32(data[18])<<8
	end := uint32(data[19]) | uint32(data[20])<<8
	entry := uint32(data[21]) | uint32(data[22])<<8
	progSize := int((end - start) & 0xFFFF)

	dump := data[memHeaderSize:]
	if len(dump) == 0 {
		return domain.TransferDescriptor{}, reject(CodeMemNoData, "no memory data")
	}
	if args < minAddrArgs || args > maxAddrArgs {
		return domain.TransferDescriptor{}, reject(CodeMemBadArgCount, fmt.Sprintf("%d address arguments", args))
	}
	if progSize == 0 || progSize+memHeaderSize > size {
		return domain.TransferDescriptor{}, reject(CodeMemTruncated,
			fmt.Sprintf("header declares %d bytes, file holds %d", progSize, len(dump)))
	}

	loadEnd := start + uint32(progSize)
	if loadEnd > 0x10000 {
		return domain.TransferDescriptor{}, reject(CodeMemPastTop,
			fmt.Sprintf("image %04X+%d runs past the address space", start, progSize))
	}
	desc := domain.TransferDescriptor{
		Format:     domain.FormatMemoryImage,
		Kind:       domain.ContentMachineCode,
		LoadStart:  domain.Addr(start),
		LoadEnd:    domain.Addr(loadEnd),
		HeaderName: headerName(data[:memNameSize]),
		Payload:    dump[:progSize],
	}
	if args >= 3 {
		desc.EntryFromHeader = domain.Addr(entry)
	}
	if isBasicWorkArea(start, data) {
		desc.Format = domain.FormatMemoryImageBasic
		desc.Kind = domain.ContentBasicMemoryImage
	}
	if name, addr, ok := findPrologue(start, dump); ok {
		desc.PrologueName = name
		desc.EntryFromPrologue = domain.Addr(addr)
	}
	return desc, nil
}

// isBasicWorkArea looks for the interpreter jump vector at 0x0300.
func isBasicWorkArea(start uint32, data []byte) bool {
	if start > templateBase {
		return false
	}
	at := int(templateBase-start) + memHeaderSize
	if at+2 >= len(data) {
		return false
	}
	return data[at] == 0xC3 && (data[at+1] == 0x89 || data[at+1] == 0x8C) && data[at+2] == 0xC0
}

func isMenuChar(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == ':'
}

// findPrologue returns the first CAOS menu entry: 7F 7F, a name and a
// terminator byte <= 0x1F. The code starts right after the terminator.
func findPrologue(start uint32, dump []byte) (string, uint32, bool) {
	n := len(dump)
	for i := 0; i+4 < n; i++ {
		if dump[i] != 0x7F || dump[i+1] != 0x7F {
			continue
		}
		j := i + 2
		for j+1 < n && isMenuChar(dump[j]) {
			j++
		}
		if j > i+2 && j < n && dump[j] <= 0x1F {
			return string(dump[i+2 : j]), (uint32(j) + 1 + start) & 0xFFFF, true
		}
		i = j - 1
	}
	return "", 0, false
}

func headerName(raw []byte) string {
	return string(bytes.TrimSpace([]byte(tapeName(raw))))
}
