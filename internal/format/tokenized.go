package format

import (
	"bytes"
	"fmt"

	"kc-transfer/internal/codec"
	"kc-transfer/internal/domain"
)

const (
	tapeHeaderSize = 13
	// Tape dumps carry whatever was left in the last two cassette blocks.
	maxTapePadding = 2*blockSize - 1
	maxDiskPadding = blockSize - 1
)

var programEnd = []byte{0x00, 0x00, 0x00}

// ParseTape accepts a cassette dump with the SSS marker: 8 name bytes, a
// little-endian program length and the tokenized program. The other
// BASIC markers are recognised but cannot be transferred.
func ParseTape(data []byte) (domain.TransferDescriptor, error) {
	switch {
	case hasMarker(data, 0xD4, 0xD4, 0xD4):
		return domain.TransferDescriptor{}, rejectTerminal(CodeTapeMarkerTTT, "BASIC field data (TTT) cannot be transferred")
	case hasMarker(data, 0xD5, 0xD5, 0xD5):
		return domain.TransferDescriptor{}, rejectTerminal(CodeTapeMarkerUUU, "BASIC UUU dump cannot be transferred")
	case hasMarker(data, 0xD7, 0xD7, 0xD7):
		return domain.TransferDescriptor{}, rejectTerminal(CodeTapeMarkerWWW, "BASIC WWW dump cannot be transferred")
	case hasMarker(data, 0x01, 0xD3, 0xD3):
		return domain.TransferDescriptor{}, rejectTerminal(CodeTapeMarkerTAP, "TAP container cannot be transferred")
	case !hasMarker(data, 0xD3, 0xD3, 0xD3):
		return domain.TransferDescriptor{}, reject(CodeTapeNoMarker, "no tape marker")
	}

	if len(data) < tapeHeaderSize+1 {
		return domain.TransferDescriptor{}, rejectTerminal(CodeTapeTooShort, "tape header truncated")
	}
	length := int(data[11]) | int(data[12])<<8
	if length == 0 {
		return domain.TransferDescriptor{}, rejectTerminal(CodeTapeBadLength, "program length is zero")
	}
	available := len(data) - tapeHeaderSize
	if available < length {
		return domain.TransferDescriptor{}, rejectTerminal(CodeTapeTruncated,
			fmt.Sprintf("program length %d exceeds %d available bytes", length, available))
	}
	if available-length > maxTapePadding {
		return domain.TransferDescriptor{}, rejectTerminal(CodeTapePadding,
			fmt.Sprintf("%d bytes after the program", available-length))
	}

	program := data[tapeHeaderSize : tapeHeaderSize+length]
	desc, err := fromTokenized(domain.FormatTapeTokenized, program)
	if err != nil {
		return domain.TransferDescriptor{}, rejectTerminal(CodeTapeDecode, err.Error())
	}
	desc.HeaderName = tapeName(data[3:11])
	return desc, nil
}

// ParseDisk accepts a length-prefixed tokenized program as written by the
// disk and USB drivers.
func ParseDisk(data []byte) (domain.TransferDescriptor, error) {
	if len(data) < 2+len(programEnd) {
		return domain.TransferDescriptor{}, reject(CodeDiskTooShort, "too short for a disk program")
	}
	length := int(data[0]) | int(data[1])<<8
	if length < len(programEnd) {
		return domain.TransferDescriptor{}, reject(CodeDiskBadLength, "program length too small")
	}
	end := 2 + length
	if end > len(data) {
		return domain.TransferDescriptor{}, reject(CodeDiskTruncated, "program length exceeds file")
	}
	if len(data)-end > maxDiskPadding {
		return domain.TransferDescriptor{}, reject(CodeDiskPadding, "too many bytes after the program")
	}
	program := data[2:end]
	if !bytes.HasSuffix(program, programEnd) {
		return domain.TransferDescriptor{}, reject(CodeDiskNoTerminator, "program does not end with 00 00 00")
	}

	desc, err := fromTokenized(domain.FormatDiskTokenized, program)
	if err != nil {
		return domain.TransferDescriptor{}, reject(CodeDiskDecode, err.Error())
	}
	return desc, nil
}

// fromTokenized lists a tokenized program. Plain BASIC listings become a
// loadable memory image; BASICODE and other text stays a keystroke listing.
func fromTokenized(format domain.ContainerFormat, program []byte) (domain.TransferDescriptor, error) {
	listing, err := codec.Detokenize(program, codec.ModeCompact)
	if err != nil {
		return domain.TransferDescriptor{}, fmt.Errorf("detokenize: %w", err)
	}

	kind := ClassifyListing(listing.Text)
	if kind != domain.ContentBasicListing {
		return domain.TransferDescriptor{
			Format:      format,
			Kind:        kind,
			Payload:     listing.Text,
			Diagnostics: listing.Diagnostics,
		}, nil
	}

	desc := SynthesizeBasicImage(program)
	desc.Format = format
	desc.ResumeLine = ResumeLine(listing.Text)
	desc.Diagnostics = append(desc.Diagnostics, listing.Diagnostics...)
	return desc, nil
}

func hasMarker(data []byte, a, b, c byte) bool {
	return len(data) >= 3 && data[0] == a && data[1] == b && data[2] == c
}

// tapeName keeps printable bytes, shows other non-zero bytes as '.' and
// zero bytes as blanks.
func tapeName(raw []byte) string {
	name := make([]byte, len(raw))
	for i, b := range raw {
		switch {
		case b >= 0x20 && b <= 0x7E:
			name[i] = b
		case b == 0:
			name[i] = ' '
		default:
			name[i] = '.'
		}
	}
	return string(bytes.TrimRight(name, " "))
}
