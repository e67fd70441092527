// Package format recognises the KC85 file containers and turns any input
// into a TransferDescriptor.
package format

import (
	"bytes"
	"errors"
	"fmt"

	"kc-transfer/internal/domain"
)

// Rejection codes. Each rule family owns one hundred.
const (
	CodeTextEmpty       = 100
	CodeTextInvalidByte = 101

	CodeMemLengthPrefixed = 200
	CodeMemShortHeader    = 201
	CodeMemMarkerSSS      = 202
	CodeMemMarkerTAP      = 203
	CodeMemMarkerUUU      = 204
	CodeMemMarkerWWW      = 205
	CodeMemNoData         = 206
	CodeMemBadArgCount    = 207
	CodeMemTruncated      = 208
	CodeMemPastTop        = 209

	CodeDiskTooShort     = 301
	CodeDiskBadLength    = 302
	CodeDiskTruncated    = 303
	CodeDiskPadding      = 304
	CodeDiskNoTerminator = 305
	CodeDiskDecode       = 310

	CodeTapeTooShort  = 400
	CodeTapeBadLength = 402
	CodeTapeTruncated = 403
	CodeTapePadding   = 404
	CodeTapeDecode    = 410

	CodeTapeMarkerTTT = 501
	CodeTapeMarkerUUU = 502
	CodeTapeMarkerWWW = 503
	CodeTapeMarkerTAP = 504

	CodeTapeNoMarker = 904

	CodeRawEmpty    = 1000
	CodeRawTooLarge = 1001
)

// Rejection is returned by a rule that does not accept the input. Terminal
// rejections mean the input is this format but cannot be transferred, so
// later rules are not consulted.
type Rejection struct {
	Code     int
	Terminal bool
	Reason   string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s (code %d)", r.Reason, r.Code)
}

func reject(code int, reason string) error {
	return &Rejection{Code: code, Reason: reason}
}

func rejectTerminal(code int, reason string) error {
	return &Rejection{Code: code, Terminal: true, Reason: reason}
}

// Rule parses one container format.
type Rule struct {
	Name  string
	Parse func(data []byte) (domain.TransferDescriptor, error)
}

// Rules is the decision order. Signatures overlap, so order matters.
var Rules = []Rule{
	{Name: "text", Parse: ParseText},
	{Name: "tape", Parse: ParseTape},
	{Name: "disk", Parse: ParseDisk},
	{Name: "memory-image", Parse: ParseMemoryImage},
	{Name: "raw", Parse: ParseRaw},
}

// Classify runs the rules in order and returns the first accepted
// descriptor. Failure is reported through IsError and ValidCode.
func Classify(data []byte) domain.TransferDescriptor {
	data = bytes.Clone(data)
	var last *Rejection
	var reasons []string
	for _, rule := range Rules {
		desc, err := rule.Parse(data)
		if err == nil {
			desc.PayloadLength = len(desc.Payload)
			if desc.MemoryClass == "" {
				desc.MemoryClass = domain.MemoryClassFor(desc.LoadEnd)
			}
			return desc
		}

		var rej *Rejection
		if !errors.As(err, &rej) {
			rej = &Rejection{Code: -1, Reason: err.Error()}
		}
		last = rej
		reasons = append(reasons, fmt.Sprintf("%s: %s", rule.Name, rej.Error()))
		if rej.Terminal {
			break
		}
	}

	return domain.TransferDescriptor{
		ValidCode:   last.Code,
		IsError:     true,
		MemoryClass: domain.MemoryClassUnknown,
		Diagnostics: reasons,
	}
}
