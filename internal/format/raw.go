package format

import (
	"fmt"

	"kc-transfer/internal/domain"
)

const (
	rawLoadAddress uint32 = 0x0200
	rawTopOfRAM    uint32 = 0xBFFF
)

// ParseRaw treats any non-empty input as machine code loaded and started at
// 0x0200, as long as it stays below the ROM area.
func ParseRaw(data []byte) (domain.TransferDescriptor, error) {
	return MachineCodeAt(data, rawLoadAddress)
}

// MachineCodeAt wraps headerless machine code that loads and starts at start.
func MachineCodeAt(data []byte, start uint32) (domain.TransferDescriptor, error) {
	if len(data) == 0 {
		return domain.TransferDescriptor{}, reject(CodeRawEmpty, "empty input")
	}
	last := start + uint32(len(data)) - 1
	if last > rawTopOfRAM {
		return domain.TransferDescriptor{}, reject(CodeRawTooLarge,
			fmt.Sprintf("%d bytes at 0x%04X do not fit below 0x%04X", len(data), start, rawTopOfRAM+1))
	}
	end := last + 1
	return domain.TransferDescriptor{
		Format:          domain.FormatRawFallback,
		Kind:            domain.ContentMachineCode,
		LoadStart:       domain.Addr(start),
		LoadEnd:         domain.Addr(end),
		EntryFromHeader: domain.Addr(start),
		Payload:         data,
		PayloadLength:   len(data),
		MemoryClass:     domain.MemoryClassFor(&end),
	}, nil
}
