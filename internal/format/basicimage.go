package format

import (
	"encoding/binary"

	"kc-transfer/internal/codec"
	"kc-transfer/internal/domain"
)

// SynthesizeBasicImage builds a memory image that HC-BASIC can load as a
// binary block: work area, text guard byte, then the program bytes as given.
// The program is only split into lines to collect diagnostics.
func SynthesizeBasicImage(program []byte) domain.TransferDescriptor {
	_, diags := codec.SplitLines(program)
	end := programStart + uint32(len(program))

	image := make([]byte, 0, len(workArea)+len(textGuard)+len(program))
	image = append(image, workArea[:]...)
	binary.LittleEndian.PutUint16(image[offsetTextStart:], uint16(programStart))
	for _, off := range []int{offsetVarStart, offsetArrayStart, offsetFreeStart} {
		binary.LittleEndian.PutUint16(image[off:], uint16(end))
	}
	image = append(image, textGuard[:]...)
	image = append(image, program...)

	loadEnd := templateBase + uint32(len(image))
	return domain.TransferDescriptor{
		Format:      domain.FormatMemoryImageBasic,
		Kind:        domain.ContentBasicMemoryImage,
		LoadStart:   domain.Addr(templateBase),
		LoadEnd:     domain.Addr(loadEnd),
		Payload:     image,
		MemoryClass: domain.MemoryClassFor(&loadEnd),
		Diagnostics: diags,
	}
}

// BasicProgram extracts the tokenized program text from a BASIC memory
// image. It reports false when the image does not cover 0x0401.
func BasicProgram(desc domain.TransferDescriptor) ([]byte, bool) {
	if desc.Kind != domain.ContentBasicMemoryImage || desc.LoadStart == nil {
		return nil, false
	}
	start := *desc.LoadStart
	if start > programStart {
		return nil, false
	}
	offset := int(programStart - start)
	if offset >= len(desc.Payload) {
		return nil, false
	}
	return desc.Payload[offset:], true
}
