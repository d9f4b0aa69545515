// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package ies

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// IE type values, TS 29.274 Table 8.1-1
const (
	IMSI          uint8 = 1
	Cause         uint8 = 2
	APN           uint8 = 71
	AMBR          uint8 = 72
	EBI           uint8 = 73
	BearerQoS     uint8 = 80
	FlowQoS       uint8 = 81
	BearerTFT     uint8 = 84
	TAD           uint8 = 85
	ULI           uint8 = 86
	FTEID         uint8 = 87
	BearerContext uint8 = 93
	PTI           uint8 = 100
)

const headerLen = 4

var ErrMalformedIE = errors.New("malformed IE")

// IE is one type-length-instance-value element.
type IE struct {
	Type     uint8
	Instance uint8
	Value    []byte
}

// TLV is an IE slot of a decoded message. Presence is set when the IE was
// carried; Data is meaningless otherwise.
type TLV struct {
	Presence bool
	Data     []byte
}

func Present(data []byte) TLV {
	return TLV{Presence: true, Data: data}
}

func (t TLV) Len() int {
	return len(t.Data)
}

func (t TLV) U8() (uint8, error) {
	if len(t.Data) < 1 {
		return 0, errors.Wrap(ErrMalformedIE, "empty value")
	}
	return t.Data[0], nil
}

// Decode splits b into consecutive IEs.
func Decode(b []byte) ([]IE, error) {
	var list []IE
	for len(b) > 0 {
		if len(b) < headerLen {
			return nil, errors.Wrapf(ErrMalformedIE, "%d octets left for an IE header", len(b))
		}
		l := int(binary.BigEndian.Uint16(b[1:3]))
		if len(b) < headerLen+l {
			return nil, errors.Wrapf(ErrMalformedIE, "IE type %d length %d, have %d", b[0], l, len(b)-headerLen)
		}
		list = append(list, IE{
			Type:     b[0],
			Instance: b[3] & 0x0f,
			Value:    b[headerLen : headerLen+l],
		})
		b = b[headerLen+l:]
	}
	return list, nil
}

// Encode appends the wire form of every IE to b.
func Encode(b []byte, list ...IE) []byte {
	for _, ie := range list {
		b = append(b, ie.Type)
		b = binary.BigEndian.AppendUint16(b, uint16(len(ie.Value)))
		b = append(b, ie.Instance&0x0f)
		b = append(b, ie.Value...)
	}
	return b
}

// Grouped builds a grouped IE such as a bearer context.
func Grouped(typ, instance uint8, members ...IE) IE {
	return IE{Type: typ, Instance: instance, Value: Encode(nil, members...)}
}

func Uint8(typ, instance, v uint8) IE {
	return IE{Type: typ, Instance: instance, Value: []byte{v}}
}
