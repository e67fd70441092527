package format

import (
	"fmt"

	"kc-transfer/internal/codec"
	"kc-transfer/internal/domain"
)

const blockSize = 128

func validTextByte(b byte) bool {
	return b == 0x0D || b == 0x0A || (b >= 0x20 && b <= 0x7E)
}

// ParseText accepts host text whose bytes map onto printable KC characters,
// CR and LF. A file that ends on a block boundary may carry up to 127
// identical filler bytes, which are dropped.
func ParseText(data []byte) (domain.TransferDescriptor, error) {
	if len(data) == 0 {
		return domain.TransferDescriptor{}, reject(CodeTextEmpty, "no text")
	}

	kc := codec.HostBytesToKC(data)
	end := len(kc)
	if end >= blockSize && end%blockSize == 0 && !validTextByte(kc[end-1]) {
		fill := kc[end-1]
		for run := 0; end > 0 && kc[end-1] == fill && run < blockSize-1; run++ {
			end--
		}
	}
	kc = kc[:end]

	for i, b := range kc {
		if !validTextByte(b) {
			return domain.TransferDescriptor{}, reject(CodeTextInvalidByte,
				fmt.Sprintf("byte 0x%02X at offset %d is not text", data[i], i))
		}
	}

	kind := ClassifyListing(kc)
	desc := domain.TransferDescriptor{
		Format:  domain.FormatText,
		Kind:    kind,
		Payload: kc,
	}
	if kind == domain.ContentBasicListing {
		desc.ResumeLine = ResumeLine(kc)
	}
	return desc, nil
}
