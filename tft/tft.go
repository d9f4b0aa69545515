// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package tft

import (
	"github.com/pkg/errors"

	"github.com/omec-project/pgwc/pgwerrors"
)

// Operation is the TFT operation code, TS 24.008 10.5.6.12.
type Operation uint8

const (
	OpIgnore Operation = iota
	OpCreateNewTFT
	OpDeleteExistingTFT
	OpAddPacketFilters
	OpReplacePacketFilters
	OpDeletePacketFilters
	OpNoTFTOperation
)

var operationText = [...]string{
	OpIgnore:               "Ignore",
	OpCreateNewTFT:         "CreateNewTFT",
	OpDeleteExistingTFT:    "DeleteExistingTFT",
	OpAddPacketFilters:     "AddPacketFilters",
	OpReplacePacketFilters: "ReplacePacketFilters",
	OpDeletePacketFilters:  "DeletePacketFilters",
	OpNoTFTOperation:       "NoTFTOperation",
}

func (o Operation) String() string {
	if int(o) < len(operationText) {
		return operationText[o]
	}
	return "Reserved"
}

// Direction of a packet filter
type Direction uint8

const (
	DirectionPreRel7 Direction = iota
	DirectionDownlink
	DirectionUplink
	DirectionBidirectional
)

const MaxNumOfPacketFilter = 16

var ErrTFTSyntax = errors.Wrap(pgwerrors.ErrSyntacticErrorInTAD, "malformed TFT")

// PacketFilterDescriptor is one entry of a TFT packet filter list.
// Identifier is the zero-based wire identifier.
type PacketFilterDescriptor struct {
	Identifier uint8
	Direction  Direction
	Precedence uint8
	Components []Component
}

type TrafficFlowTemplate struct {
	Operation Operation
	Filters   []PacketFilterDescriptor
	// Identifiers lists the packet filters of a delete packet filters
	// operation.
	Identifiers []uint8
	// Parameters is the raw parameters list, present when the E bit is set.
	Parameters []byte
}

// Parse decodes the value of a TFT or TAD information element.
func Parse(b []byte) (*TrafficFlowTemplate, error) {
	if len(b) < 1 {
		return nil, errors.Wrap(ErrTFTSyntax, "empty TFT")
	}
	t := &TrafficFlowTemplate{Operation: Operation(b[0] >> 5)}
	ebit := b[0]&0x10 != 0
	n := int(b[0] & 0x0f)
	off := 1

	switch t.Operation {
	case OpDeletePacketFilters:
		if len(b) < off+n {
			return nil, errors.Wrapf(ErrTFTSyntax, "%d packet filter identifiers, have %d octets", n, len(b)-off)
		}
		for i := 0; i < n; i++ {
			t.Identifiers = append(t.Identifiers, b[off+i]&0x0f)
		}
		off += n
	case OpCreateNewTFT, OpAddPacketFilters, OpReplacePacketFilters:
		for i := 0; i < n; i++ {
			if len(b) < off+3 {
				return nil, errors.Wrapf(ErrTFTSyntax, "packet filter %d truncated", i)
			}
			d := PacketFilterDescriptor{
				Direction:  Direction(b[off] >> 4 & 0x03),
				Identifier: b[off] & 0x0f,
				Precedence: b[off+1],
			}
			l := int(b[off+2])
			off += 3
			if len(b) < off+l {
				return nil, errors.Wrapf(ErrTFTSyntax, "packet filter %d contents truncated", i)
			}
			contents := b[off : off+l]
			for len(contents) > 0 {
				c, size, err := parseComponent(d.Identifier, contents)
				if err != nil {
					return nil, errors.Wrapf(err, "packet filter %d", i)
				}
				d.Components = append(d.Components, c)
				contents = contents[size:]
			}
			off += l
			t.Filters = append(t.Filters, d)
		}
	case OpIgnore, OpDeleteExistingTFT, OpNoTFTOperation:
		if n != 0 {
			return nil, errors.Wrapf(ErrTFTSyntax, "%d packet filters with operation %s", n, t.Operation)
		}
	default:
		return nil, errors.Wrapf(ErrTFTSyntax, "reserved operation code %d", t.Operation)
	}

	if ebit {
		t.Parameters = append([]byte{}, b[off:]...)
		off = len(b)
	}
	if off != len(b) {
		return nil, errors.Wrapf(ErrTFTSyntax, "%d trailing octets", len(b)-off)
	}
	return t, nil
}

func (t *TrafficFlowTemplate) MarshalBinary() ([]byte, error) {
	n := len(t.Filters)
	if t.Operation == OpDeletePacketFilters {
		n = len(t.Identifiers)
	}
	if n > MaxNumOfPacketFilter-1 {
		return nil, errors.Errorf("%d packet filters in one TFT", n)
	}

	first := uint8(t.Operation)<<5 | uint8(n)
	if t.Parameters != nil {
		first |= 0x10
	}
	b := []byte{first}

	if t.Operation == OpDeletePacketFilters {
		for _, id := range t.Identifiers {
			b = append(b, id&0x0f)
		}
	} else {
		for _, d := range t.Filters {
			var contents []byte
			for _, c := range d.Components {
				contents = c.appendValue(append(contents, uint8(c.Type())))
			}
			if len(contents) > 0xff {
				return nil, errors.Errorf("packet filter %d contents too long", d.Identifier)
			}
			b = append(b, uint8(d.Direction)<<4|d.Identifier&0x0f, d.Precedence, uint8(len(contents)))
			b = append(b, contents...)
		}
	}
	return append(b, t.Parameters...), nil
}
